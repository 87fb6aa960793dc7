// Package completion is the single gateway to the external text-completion
// service used for replies, summaries and sentiment estimation.
package completion

import (
	"context"
	"errors"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation handed to the model.
type Turn struct {
	Role    Role
	Content string
}

// Request describes a single completion call.
type Request struct {
	System      string
	Turns       []Turn
	MaxTokens   int
	Temperature *float32
}

// Completer returns the model's text for a request. Transport, quota and
// empty-output problems are all reported as errors.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

var (
	ErrNotConfigured = errors.New("completion service not configured")
	ErrEmptyResponse = errors.New("completion service returned no content")
)

// Disabled is a Completer that always fails. It stands in when no provider key
// is configured so callers run purely on their fallbacks.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// Temperature is a helper for building requests.
func Temperature(t float32) *float32 {
	return &t
}
