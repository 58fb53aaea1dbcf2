// ABOUTME: Tagged query result returned across the web, MCP, and chat boundaries
// ABOUTME: Either a generated answer or the error message, never both
package models

// AnswerStatus tags an Answer
type AnswerStatus string

const (
	AnswerOK    AnswerStatus = "ok"
	AnswerError AnswerStatus = "error"
)

// Answer is the result of answering one question
type Answer struct {
	Status AnswerStatus `json:"status"`
	Text   string       `json:"answer,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Success wraps generated answer text
func Success(text string) Answer {
	return Answer{Status: AnswerOK, Text: text}
}

// Failure wraps an error as its message
func Failure(err error) Answer {
	return Answer{Status: AnswerError, Error: err.Error()}
}

// OK reports whether the answer carries text
func (a Answer) OK() bool {
	return a.Status == AnswerOK
}
