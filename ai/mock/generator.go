package mock

import (
	"context"
	"sync"
)

// Generator is a test double for ai.Generator.
type Generator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns a canned response echoing the prompt length.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewGenerator creates a mock generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate records the prompt and delegates to GenerateFunc when set.
func (m *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	return "mock response", nil
}

// CallCount returns the number of Generate calls.
func (m *Generator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns a copy of all prompts seen so far.
func (m *Generator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
