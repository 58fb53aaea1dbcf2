// ABOUTME: Tests for evaluation metrics, scenario loading and the runner
// ABOUTME: The runner is driven by a scripted engine
package eval

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/biorag/internal/models"
)

func TestFaithfulness(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		expected  []string
		forbidden []string
		want      float64
	}{
		{"all present", "Cas9 cuts DNA at the PAM", []string{"cas9", "pam"}, nil, 1.0},
		{"missing one", "Cas9 cuts DNA", []string{"cas9", "pam"}, nil, 0.5},
		{"forbidden found", "Cas12a and Cas9", []string{"cas9"}, []string{"cas12a"}, 0.5},
		{"both wrong", "Cas12a only", []string{"cas9"}, []string{"cas12a"}, 0.0},
		{"no expectations", "anything", nil, nil, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := Faithfulness(tt.response, tt.expected, tt.forbidden)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, detail)
		})
	}
}

func TestContextRecall(t *testing.T) {
	got, _ := ContextRecall([]string{"guide RNA design", "off-target scoring"}, []string{"guide rna", "off-target", "PAM"})
	assert.InDelta(t, 2.0/3.0, got, 1e-9)

	got, _ = ContextRecall(nil, nil)
	assert.Equal(t, 1.0, got)

	got, _ = ContextRecall(nil, []string{"x"})
	assert.Equal(t, 0.0, got)
}

func TestEvaluate_Status(t *testing.T) {
	s := Scenario{ID: "s1", ExpectedInResponse: []string{"bwa"}, ExpectedContextItems: []string{"aligner"}}

	pass := Evaluate(s, "They use BWA", []string{"the aligner is bwa mem"})
	assert.Equal(t, StatusPass, pass.Status)
	assert.Equal(t, 1.0, pass.OverallScore)

	fail := Evaluate(s, "They use BWA", []string{"unrelated"})
	assert.Equal(t, StatusFail, fail.Status)
	assert.Equal(t, 0.5, fail.OverallScore)
}

func TestLoadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`scenarios:
  - id: aligner
    name: Which aligner
    question: Which aligner do the scripts use?
    expected_in_response: [bwa]
    expected_context_items: [bwa mem]
  - question: What is a PAM?
`), 0644))

	scenarios, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "aligner", scenarios[0].ID)
	assert.Equal(t, []string{"bwa"}, scenarios[0].ExpectedInResponse)
	assert.Equal(t, "2", scenarios[1].ID)
}

func TestLoadScenarios_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadScenarios(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("scenarios: []\n"), 0644))
	_, err = LoadScenarios(empty)
	assert.ErrorContains(t, err, "no scenarios")

	noQuestion := filepath.Join(dir, "noq.yaml")
	require.NoError(t, os.WriteFile(noQuestion, []byte("scenarios:\n  - id: x\n"), 0644))
	_, err = LoadScenarios(noQuestion)
	assert.ErrorContains(t, err, "no question")
}

type scriptedEngine struct {
	answers map[string]string
	chunks  []string
}

func (s *scriptedEngine) Search(ctx context.Context, q string, k int) ([]models.SearchResult, error) {
	out := make([]models.SearchResult, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = models.SearchResult{Index: i, Text: c}
	}
	return out, nil
}

func (s *scriptedEngine) Query(ctx context.Context, q string) (string, error) {
	a, ok := s.answers[q]
	if !ok {
		return "", &models.TransientBackendError{Op: models.OpGeneration, Attempts: 3, Err: errors.New("down")}
	}
	return a, nil
}

func TestRunner_RunAndExport(t *testing.T) {
	engine := &scriptedEngine{
		answers: map[string]string{"which aligner?": "BWA-MEM"},
		chunks:  []string{"reads are aligned with bwa mem"},
	}
	r := NewRunner(engine, nil)
	r.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }

	summary := r.Run(context.Background(), []Scenario{
		{ID: "a", Question: "which aligner?", ExpectedInResponse: []string{"bwa"}, ExpectedContextItems: []string{"bwa mem"}},
		{ID: "b", Question: "unanswerable"},
	})

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[1].ErrorMessage, "generation failed after 3 attempts")

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, summary.Export(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back Summary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, summary.Passed, back.Passed)
	assert.True(t, back.Timestamp.Equal(summary.Timestamp))
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := NewRunner(&scriptedEngine{}, nil).Run(ctx, []Scenario{{ID: "a", Question: "q"}})
	require.Len(t, summary.Results, 1)
	assert.Equal(t, StatusFail, summary.Results[0].Status)
}
