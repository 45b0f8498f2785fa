package models

import (
	workshop "jobnpart/internal/workshop/models"
)

// HaynesProJob: тело запроса /haynes-pro.
type HaynesProJob struct {
	VIN       string              `json:"vin"`
	WorkItems []workshop.WorkItem `json:"workItems"`
}

// RepairTimeResult: результат поиска норм времени по одной работе.
type RepairTimeResult struct {
	WorkItemDescription string   `json:"workItemDescription"`
	IdentifiedGroup     *string  `json:"identifiedGroup"`
	FinalNodeID         *string  `json:"finalNodeId"`
	RepairTimeInfos     []any    `json:"repairTimeInfos"`
	Errors              []string `json:"errors"`
}

// Unresolved: результат для работы, которую не удалось сопоставить.
func Unresolved(description string, reason string) RepairTimeResult {
	return RepairTimeResult{
		WorkItemDescription: description,
		RepairTimeInfos:     []any{},
		Errors:              []string{reason},
	}
}
