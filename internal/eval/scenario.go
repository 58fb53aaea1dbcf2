// ABOUTME: Evaluation scenarios: a question plus ground truth for the answer and retrieval
// ABOUTME: Scenario files are YAML so they can live next to the corpus they test
package eval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one evaluated question
type Scenario struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Question string `yaml:"question" json:"question"`

	// Strings that must / must not appear in the answer
	ExpectedInResponse  []string `yaml:"expected_in_response" json:"expected_in_response,omitempty"`
	ForbiddenInResponse []string `yaml:"forbidden_in_response" json:"forbidden_in_response,omitempty"`

	// Strings the retrieved chunks should contain
	ExpectedContextItems []string `yaml:"expected_context_items" json:"expected_context_items,omitempty"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios reads a YAML file with a top-level scenarios list
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenarios %s: %w", path, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", path)
	}
	for i, s := range f.Scenarios {
		if s.Question == "" {
			return nil, fmt.Errorf("scenario %d (%s) has no question", i+1, s.ID)
		}
		if s.ID == "" {
			f.Scenarios[i].ID = fmt.Sprintf("%d", i+1)
		}
	}
	return f.Scenarios, nil
}
