package selection

import (
	"log"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Part Selection State
// ============================================================

// Listener получает события выбора. Вызывается синхронно из операций State.
type Listener interface {
	HotspotSelected(positionNumber, partNumber string)
	SelectionConfirmed(partNumbers []string)
}

// State: выбор деталей и раскрытые секции легенды для одной диаграммы.
// Не потокобезопасен: владелец сериализует вызовы.
type State struct {
	diagram  *models.PartsData
	listener Listener

	order    []string
	selected map[string]int
	expanded map[string]bool
}

func New(diagram *models.PartsData, listener Listener) *State {
	s := &State{listener: listener}
	s.Reset(diagram)
	return s
}

// Reset переключает состояние на другую диаграмму и очищает выбор и раскрытие.
func (s *State) Reset(diagram *models.PartsData) {
	s.diagram = diagram
	s.order = nil
	s.selected = map[string]int{}
	s.expanded = map[string]bool{}
}

func (s *State) Diagram() *models.PartsData {
	return s.diagram
}

// ToggleSelection переключает деталь и возвращает, выбрана ли она теперь.
func (s *State) ToggleSelection(partID string) bool {
	if partID == "" {
		return false
	}

	if idx, ok := s.selected[partID]; ok {
		s.order = append(s.order[:idx], s.order[idx+1:]...)
		delete(s.selected, partID)
		for i := idx; i < len(s.order); i++ {
			s.selected[s.order[i]] = i
		}
		return false
	}

	s.selected[partID] = len(s.order)
	s.order = append(s.order, partID)
	return true
}

func (s *State) IsSelected(partID string) bool {
	_, ok := s.selected[partID]
	return ok
}

func (s *State) Count() int {
	return len(s.order)
}

// Selected: копия выбора в порядке добавления.
func (s *State) Selected() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ToggleExpansion переключает секцию легенды.
func (s *State) ToggleExpansion(positionID string) bool {
	if positionID == "" {
		return false
	}
	s.expanded[positionID] = !s.expanded[positionID]
	return s.expanded[positionID]
}

func (s *State) IsExpanded(positionID string) bool {
	return s.expanded[positionID]
}

// Expanded: копия флагов раскрытия.
func (s *State) Expanded() map[string]bool {
	out := make(map[string]bool, len(s.expanded))
	for k, v := range s.expanded {
		if v {
			out[k] = true
		}
	}
	return out
}

// SelectHotspot находит первую деталь позиции, сообщает о ней слушателю и
// раскрывает секцию. Без совпадения состояние не меняется.
func (s *State) SelectHotspot(positionID string) bool {
	partNumber, ok := s.resolvePosition(positionID)
	if !ok {
		log.Printf("[SELECTION] no part found for position %q", positionID)
		return false
	}

	if s.listener != nil {
		s.listener.HotspotSelected(positionID, partNumber)
	}
	s.expanded[positionID] = true
	return true
}

// ConfirmSelection отдаёт выбор слушателю. Выбор не очищается.
func (s *State) ConfirmSelection() []string {
	ids := s.Selected()
	if s.listener != nil {
		s.listener.SelectionConfirmed(ids)
	}
	return ids
}

func (s *State) resolvePosition(positionID string) (string, bool) {
	if s.diagram == nil || positionID == "" {
		return "", false
	}
	for _, group := range s.diagram.PartGroups {
		for _, part := range group.Parts {
			if part.PositionNumber != positionID {
				continue
			}
			// первая найденная деталь решает, даже если у неё нет номера
			if part.Number == "" {
				return "", false
			}
			return part.Number, true
		}
	}
	return "", false
}
