// Package registry holds the upstream providers known to the process. The
// relay selects exactly one of them by name at startup.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/davidbz/affirmrelay/internal/domain"
)

var (
	// ErrDuplicateProvider is returned when a name is registered twice.
	ErrDuplicateProvider = errors.New("provider already registered")

	// ErrUnknownProvider is returned by Get for an unregistered name.
	ErrUnknownProvider = errors.New("provider not found")
)

// Registry implements domain.ProviderRegistry.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]domain.Provider
	names     []string // sorted
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]domain.Provider)}
}

// Register adds a provider under its Name.
func (r *Registry) Register(_ context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrDuplicateProvider)
	}

	r.providers[name] = provider
	i, _ := slices.BinarySearch(r.names, name)
	r.names = slices.Insert(r.names, i, name)

	return nil
}

// Get returns the provider registered under name. Lookups are case-sensitive.
func (r *Registry) Get(_ context.Context, name string) (domain.Provider, error) {
	if name == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}

	return nil, fmt.Errorf("%s: %w (registered: %s)", name, ErrUnknownProvider, strings.Join(r.names, ", "))
}

// List returns the registered names in sorted order.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string{}, r.names...), nil
}
