package domain

import "context"

// Provider represents one upstream LLM wire shape.
type Provider interface {
	// Stream issues the upstream call and returns once the response status is
	// known. Any returned error happens before a single chunk is produced.
	// The channel yields deltas followed by exactly one Done chunk, or ends
	// with an Error chunk; it is closed afterwards. Cancelling ctx aborts the
	// upstream connection.
	Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamChunk, error)

	// Name returns the provider identifier.
	Name() string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)
}

