package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnpart/internal/workshop/models"
)

type recorder struct {
	focused   [][2]string
	confirmed [][]string
}

func (r *recorder) HotspotSelected(position, part string) {
	r.focused = append(r.focused, [2]string{position, part})
}

func (r *recorder) SelectionConfirmed(ids []string) {
	r.confirmed = append(r.confirmed, ids)
}

func brakeDiagram() *models.PartsData {
	return &models.PartsData{
		Img: "//img/brakes.png",
		PartGroups: []models.PartGroup{
			{Name: "Pads", Parts: []models.Part{
				{Number: "BP-1", Name: "Front pad", PositionNumber: "1"},
				{Number: "BP-2", Name: "Rear pad", PositionNumber: "1"},
			}},
			{Name: "Discs", Parts: []models.Part{
				{Number: "BD-2", Name: "Front disc", PositionNumber: "2"},
				{Name: "Unnumbered shim", PositionNumber: "5"},
			}},
		},
	}
}

func TestConfirmSelectionScenario(t *testing.T) {
	rec := &recorder{}
	s := New(brakeDiagram(), rec)

	s.ToggleSelection("BP-1")
	s.ToggleSelection("BD-2")
	s.ToggleSelection("BP-1")

	ids := s.ConfirmSelection()

	assert.Equal(t, []string{"BD-2"}, ids)
	require.Len(t, rec.confirmed, 1)
	assert.Equal(t, []string{"BD-2"}, rec.confirmed[0])
	assert.Equal(t, 1, s.Count(), "confirm must not clear the selection")
}

func TestToggleSelectionEvenCountRestores(t *testing.T) {
	priors := [][]string{nil, {"A"}, {"A", "B"}, {"B", "C"}}

	for _, prior := range priors {
		for _, id := range []string{"A", "B", "Z"} {
			s := New(brakeDiagram(), nil)
			for _, p := range prior {
				s.ToggleSelection(p)
			}
			before := s.Selected()

			for i := 0; i < 4; i++ {
				s.ToggleSelection(id)
			}

			assert.ElementsMatch(t, before, s.Selected(), "prior=%v id=%s", prior, id)
		}
	}
}

func TestToggleSelectionIgnoresEmptyID(t *testing.T) {
	s := New(brakeDiagram(), nil)
	assert.False(t, s.ToggleSelection(""))
	assert.Equal(t, 0, s.Count())
}

func TestSelectionOrderIsStable(t *testing.T) {
	s := New(brakeDiagram(), nil)
	for _, id := range []string{"C", "A", "B", "D"} {
		s.ToggleSelection(id)
	}
	s.ToggleSelection("A")

	assert.Equal(t, []string{"C", "B", "D"}, s.Selected())
	assert.True(t, s.IsSelected("D"))
	assert.False(t, s.IsSelected("A"))
}

func TestToggleExpansionIndependentOfSelection(t *testing.T) {
	s := New(brakeDiagram(), nil)
	s.ToggleSelection("BP-1")

	assert.True(t, s.ToggleExpansion("1"))
	assert.True(t, s.IsExpanded("1"))
	assert.False(t, s.ToggleExpansion("1"))
	assert.False(t, s.IsExpanded("1"))
	assert.True(t, s.IsSelected("BP-1"))
}

func TestSelectHotspot(t *testing.T) {
	t.Run("focuses first part and expands", func(t *testing.T) {
		rec := &recorder{}
		s := New(brakeDiagram(), rec)

		require.True(t, s.SelectHotspot("1"))
		assert.Equal(t, [][2]string{{"1", "BP-1"}}, rec.focused)
		assert.True(t, s.IsExpanded("1"))

		// повторный клик не сворачивает секцию
		require.True(t, s.SelectHotspot("1"))
		assert.True(t, s.IsExpanded("1"))
	})

	t.Run("unknown position is a no-op", func(t *testing.T) {
		rec := &recorder{}
		s := New(brakeDiagram(), rec)
		s.ToggleSelection("BP-1")
		s.ToggleExpansion("2")

		assert.NotPanics(t, func() { s.SelectHotspot("99") })

		assert.Empty(t, rec.focused)
		assert.Equal(t, []string{"BP-1"}, s.Selected())
		assert.Equal(t, map[string]bool{"2": true}, s.Expanded())
	})

	t.Run("first match without number", func(t *testing.T) {
		rec := &recorder{}
		s := New(brakeDiagram(), rec)

		assert.False(t, s.SelectHotspot("5"))
		assert.Empty(t, rec.focused)
		assert.False(t, s.IsExpanded("5"))
	})

	t.Run("no diagram", func(t *testing.T) {
		s := New(nil, nil)
		assert.False(t, s.SelectHotspot("1"))
	})
}

func TestResetClearsEverything(t *testing.T) {
	s := New(brakeDiagram(), nil)
	s.ToggleSelection("BP-1")
	s.ToggleExpansion("1")

	other := &models.PartsData{Img: "//img/other.png"}
	s.Reset(other)

	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.Expanded())
	assert.Same(t, other, s.Diagram())
}
