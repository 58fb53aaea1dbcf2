// ABOUTME: Runs evaluation scenarios against an engine and summarizes the results
// ABOUTME: A scenario whose query fails is recorded as FAIL and the run continues
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/models"
)

// Engine is the engine surface evaluation needs
type Engine interface {
	Search(ctx context.Context, question string, k int) ([]models.SearchResult, error)
	Query(ctx context.Context, question string) (string, error)
}

// Summary is an exported evaluation run
type Summary struct {
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Results   []Result  `json:"results"`
}

// Runner evaluates scenarios one after another
type Runner struct {
	engine Engine
	logger *log.Logger
	now    func() time.Time
}

// NewRunner creates a Runner over engine
func NewRunner(engine Engine, logger *log.Logger) *Runner {
	return &Runner{
		engine: engine,
		logger: logging.OrNop(logger).With("component", "eval"),
		now:    time.Now,
	}
}

// RunScenario evaluates one scenario. Retrieval uses the engine's top_k, the
// same chunks the answer is generated from.
func (r *Runner) RunScenario(ctx context.Context, s Scenario) Result {
	r.logger.Debug("running scenario", "id", s.ID, "question", s.Question)

	hits, err := r.engine.Search(ctx, s.Question, 0)
	if err != nil {
		return failed(s, err)
	}
	retrieved := make([]string, len(hits))
	for i, h := range hits {
		retrieved[i] = h.Text
	}

	answer, err := r.engine.Query(ctx, s.Question)
	if err != nil {
		return failed(s, err)
	}

	result := Evaluate(s, answer, retrieved)
	r.logger.Info("scenario evaluated", "id", s.ID, "status", result.Status,
		"faithfulness", result.FaithfulnessScore, "recall", result.ContextRecallScore)
	return result
}

// Run evaluates every scenario and summarizes
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) Summary {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			results = append(results, failed(s, ctx.Err()))
			continue
		}
		results = append(results, r.RunScenario(ctx, s))
	}
	return Summarize(results, r.now())
}

// Summarize counts passes and failures
func Summarize(results []Result, at time.Time) Summary {
	s := Summary{Timestamp: at, Total: len(results), Results: results}
	for _, res := range results {
		if res.Status == StatusPass {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// Export writes the summary as indented JSON
func (s Summary) Export(path string) error {
	jsonData, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

func failed(s Scenario, err error) Result {
	return Result{
		ScenarioID:   s.ID,
		ScenarioName: s.Name,
		Status:       StatusFail,
		ErrorMessage: err.Error(),
	}
}
