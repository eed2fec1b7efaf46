package mock

import "github.com/poiesic/datalens/ai"

// Provider is a test double for ai.Provider bundling the mock services.
type Provider struct {
	MockEmbedder  *Embedder
	MockGenerator *Generator
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider creates a provider with fresh mock services.
func NewProvider() *Provider {
	return &Provider{
		MockEmbedder:  NewEmbedder(),
		MockGenerator: NewGenerator(),
	}
}

// Embedder returns the mock embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// Generator returns the mock generation service.
func (p *Provider) Generator() ai.Generator {
	return p.MockGenerator
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
