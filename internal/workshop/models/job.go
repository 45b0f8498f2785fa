package models

import (
	"fmt"
	"strings"
)

// ============================================================
// Job
// ============================================================

type WorkItem struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// JobDetails: данные формы заказ-наряда, тело запроса /analyse-job.
type JobDetails struct {
	JobNumber    string        `json:"jobNumber"`
	Engine       string        `json:"engine"`
	Make         string        `json:"make"`
	Model        string        `json:"model"`
	VIN          string        `json:"vin"`
	Year         string        `json:"year"`
	WorkItems    []WorkItem    `json:"workItems"`
	AnalyzedData *AnalyzedData `json:"analyzedData,omitempty"`
}

// AnalyzedData: необязательные подсказки для чата.
type AnalyzedData struct {
	SuggestedCategories []string `json:"suggestedCategories"`
	PotentialParts      []Part   `json:"potentialParts"`
	Urgency             string   `json:"urgency"`
}

// ValidationError содержит ошибки по полям формы.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return fmt.Sprintf("invalid job details: %s", strings.Join(keys, ", "))
}

// Normalize отбрасывает пустые работы и проверяет обязательные поля.
func (j *JobDetails) Normalize() error {
	fields := map[string]string{}

	j.JobNumber = strings.TrimSpace(j.JobNumber)
	j.VIN = strings.TrimSpace(j.VIN)
	if j.JobNumber == "" {
		fields["jobNumber"] = "Job Number is required"
	}
	if j.VIN == "" {
		fields["vin"] = "VIN is required"
	}

	valid := make([]WorkItem, 0, len(j.WorkItems))
	for _, item := range j.WorkItems {
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		valid = append(valid, item)
	}
	j.WorkItems = valid
	if len(valid) == 0 {
		fields["workItems"] = "Please add at least one valid work item description."
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// RepairCategory: категория первой работы.
func (j *JobDetails) RepairCategory() string {
	if len(j.WorkItems) == 0 {
		return ""
	}
	return j.WorkItems[0].Category
}

// JobPart: строка списка деталей заказ-наряда.
type JobPart struct {
	JobNumber string  `json:"jobNumber"`
	Number    string  `json:"number"`
	Name      string  `json:"name"`
	Source    string  `json:"source,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Quantity  int     `json:"quantity"`
}
