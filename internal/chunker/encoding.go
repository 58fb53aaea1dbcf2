// ABOUTME: Token encodings: tiktoken BPE for OpenAI models and a rune-level fallback
// ABOUTME: BPE tables load from the embedded offline loader, never the network
package chunker

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/models"
)

// DefaultEncoding is used when the model has no known encoding
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// Tiktoken is a BPE Encoding
type Tiktoken struct {
	name string
	tke  *tiktoken.Tiktoken
}

// NewTiktoken returns the encoding used by model, falling back to DefaultEncoding
func NewTiktoken(model string, logger *log.Logger) (*Tiktoken, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	tke, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return &Tiktoken{name: model, tke: tke}, nil
	}

	logging.OrNop(logger).Warn("no tokenizer for model, using default", "model", model, "encoding", DefaultEncoding)
	tke, err = tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, &models.ConfigurationError{
			Field:  "openai.model",
			Reason: fmt.Sprintf("loading tokenizer: %v", err),
		}
	}
	return &Tiktoken{name: DefaultEncoding, tke: tke}, nil
}

// Name returns the model or encoding name the tokenizer was resolved from
func (t *Tiktoken) Name() string {
	return t.name
}

func (t *Tiktoken) Encode(text string) []int {
	return t.tke.Encode(text, nil, nil)
}

func (t *Tiktoken) Decode(tokens []int) string {
	return t.tke.Decode(tokens)
}

// RuneEncoding is a model-agnostic Encoding with one token per code point
type RuneEncoding struct{}

func (RuneEncoding) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (RuneEncoding) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}
