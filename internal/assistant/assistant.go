// ABOUTME: Research assistant that turns retrieved chunks into structured research guidance
// ABOUTME: Modes: brainstorm, paper/code connections, implementation suggestions
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/models"
)

// ContextSize is how many chunks each mode retrieves
const ContextSize = 5

// Mode selects the kind of guidance
type Mode string

const (
	ModeBrainstorm     Mode = "brainstorm"
	ModeConnections    Mode = "connections"
	ModeImplementation Mode = "implementation"
)

// Modes lists every supported mode
var Modes = []Mode{ModeBrainstorm, ModeConnections, ModeImplementation}

type modePrompts struct {
	system string
	user   string
}

var prompts = map[Mode]modePrompts{
	ModeBrainstorm:     {brainstormSystem, brainstormPrompt},
	ModeConnections:    {connectionsSystem, connectionsPrompt},
	ModeImplementation: {implementationSystem, implementationPrompt},
}

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := prompts[m]; !ok {
		return "", fmt.Errorf("unknown research mode %q (want brainstorm, connections or implementation)", s)
	}
	return m, nil
}

// Engine is the retrieval and generation surface the assistant needs
type Engine interface {
	Search(ctx context.Context, question string, k int) ([]models.SearchResult, error)
	Generate(ctx context.Context, system, user string) (string, error)
}

// Assistant answers research questions over a corpus
type Assistant struct {
	engine Engine
	logger *log.Logger
}

// New creates an Assistant
func New(engine Engine, logger *log.Logger) *Assistant {
	return &Assistant{
		engine: engine,
		logger: logging.OrNop(logger).With("component", "assistant"),
	}
}

// Run produces guidance on topic in the given mode
func (a *Assistant) Run(ctx context.Context, mode Mode, topic string) (string, error) {
	p, ok := prompts[mode]
	if !ok {
		return "", fmt.Errorf("unknown research mode %q", mode)
	}

	results, err := a.engine.Search(ctx, topic, ContextSize)
	if err != nil {
		a.logger.Error("retrieval failed", "mode", mode, "err", err)
		return "", err
	}

	out, err := a.engine.Generate(ctx, p.system, fmt.Sprintf(p.user, topic, FormatContext(results)))
	if err != nil {
		a.logger.Error("generation failed", "mode", mode, "err", err)
		return "", err
	}
	return out, nil
}

// Brainstorm drafts a research plan
func (a *Assistant) Brainstorm(ctx context.Context, topic string) (string, error) {
	return a.Run(ctx, ModeBrainstorm, topic)
}

// Connections analyzes links between papers and code
func (a *Assistant) Connections(ctx context.Context, topic string) (string, error) {
	return a.Run(ctx, ModeConnections, topic)
}

// Implementation gives implementation suggestions
func (a *Assistant) Implementation(ctx context.Context, topic string) (string, error) {
	return a.Run(ctx, ModeImplementation, topic)
}

// FormatContext renders retrieved chunks with their source, in ranked order
func FormatContext(results []models.SearchResult) string {
	if len(results) == 0 {
		return "(no relevant documents found)"
	}
	parts := make([]string, len(results))
	for i, r := range results {
		source := r.Metadata.String("filename")
		if source == "" {
			source = "unknown source"
		}
		parts[i] = fmt.Sprintf("[%d] %s\n%s", i+1, source, r.Text)
	}
	return strings.Join(parts, "\n\n")
}
