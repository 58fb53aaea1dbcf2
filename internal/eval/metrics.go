// ABOUTME: Faithfulness and context recall scores for evaluated answers
// ABOUTME: Deterministic, case-insensitive ground truth matching with no model in the loop
package eval

import (
	"fmt"
	"strings"
)

// PassThreshold is the minimum faithfulness and recall for a passing scenario
const PassThreshold = 0.9

// Result status values
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Result is the outcome of one scenario
type Result struct {
	ScenarioID         string         `json:"scenario_id"`
	ScenarioName       string         `json:"scenario_name,omitempty"`
	FaithfulnessScore  float64        `json:"faithfulness"`
	ContextRecallScore float64        `json:"context_recall"`
	OverallScore       float64        `json:"overall"`
	Status             string         `json:"status"`
	Details            map[string]any `json:"details,omitempty"`
	ErrorMessage       string         `json:"error,omitempty"`
}

// Faithfulness scores a response (0.0-1.0): 1 when every expected string is
// present and no forbidden one is, 0.5 when only one of those holds, else 0
func Faithfulness(response string, expected, forbidden []string) (float64, string) {
	responseUpper := strings.ToUpper(response)

	missing := []string{}
	for _, e := range expected {
		if !strings.Contains(responseUpper, strings.ToUpper(e)) {
			missing = append(missing, e)
		}
	}

	found := []string{}
	for _, f := range forbidden {
		if strings.Contains(responseUpper, strings.ToUpper(f)) {
			found = append(found, f)
		}
	}

	switch {
	case len(missing) == 0 && len(found) == 0:
		return 1.0, "response matches ground truth"
	case len(missing) > 0 && len(found) > 0:
		return 0.0, fmt.Sprintf("missing expected items: %v, forbidden items found: %v", missing, found)
	case len(missing) > 0:
		return 0.5, fmt.Sprintf("missing expected items: %v", missing)
	default:
		return 0.5, fmt.Sprintf("forbidden items found: %v", found)
	}
}

// ContextRecall is the share of expected items found in the retrieved chunks
func ContextRecall(retrieved, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "no context expectations"
	}

	all := strings.ToUpper(strings.Join(retrieved, " "))
	foundCount := 0
	missing := []string{}
	for _, item := range expected {
		if strings.Contains(all, strings.ToUpper(item)) {
			foundCount++
		} else {
			missing = append(missing, item)
		}
	}

	recall := float64(foundCount) / float64(len(expected))
	if foundCount == len(expected) {
		return 1.0, "all expected items retrieved"
	}
	return recall, fmt.Sprintf("recall %.2f, missing items: %v", recall, missing)
}

// Evaluate scores one scenario's answer and retrieved chunks
func Evaluate(s Scenario, response string, retrieved []string) Result {
	faithfulness, faithDetail := Faithfulness(response, s.ExpectedInResponse, s.ForbiddenInResponse)
	recall, recallDetail := ContextRecall(retrieved, s.ExpectedContextItems)

	status := StatusFail
	if faithfulness >= PassThreshold && recall >= PassThreshold {
		status = StatusPass
	}

	preview := []rune(response)
	if len(preview) > 200 {
		preview = preview[:200]
	}

	return Result{
		ScenarioID:         s.ID,
		ScenarioName:       s.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		OverallScore:       (faithfulness + recall) / 2,
		Status:             status,
		Details: map[string]any{
			"faithfulness_detail": faithDetail,
			"recall_detail":       recallDetail,
			"response":            string(preview),
			"context_items":       len(retrieved),
		},
	}
}
