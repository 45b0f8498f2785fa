package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Page Hand-off
// ============================================================

var (
	ErrHandoffMissing   = errors.New("job data not found, start from the job form again")
	ErrHandoffMalformed = errors.New("job data has an invalid format")
)

// ChatPageData: данные, передаваемые со страницы формы на страницу чата.
type ChatPageData struct {
	JobDetails    *JobDetails `json:"jobDetails"`
	PartsDataList []PartsData `json:"partsDataList"`
}

// ParseHandoff разбирает сохранённый hand-off один раз в типизированную модель.
func ParseHandoff(raw string) (*ChatPageData, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrHandoffMissing
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandoffMalformed, err)
	}
	if isNull(envelope["jobDetails"]) || isNull(envelope["partsDataList"]) {
		return nil, ErrHandoffMalformed
	}

	var data ChatPageData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandoffMalformed, err)
	}
	if data.JobDetails == nil || data.PartsDataList == nil {
		return nil, ErrHandoffMalformed
	}
	return &data, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
