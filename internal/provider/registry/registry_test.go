package registry_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/provider/registry"
)

type namedProvider string

func (p namedProvider) Stream(context.Context, *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	ch := make(chan domain.StreamChunk)
	close(ch)
	return ch, nil
}

func (p namedProvider) Name() string {
	return string(p)
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		existing []string
		provider domain.Provider
		wantErr  string
		wantIs   error
	}{
		{name: "should register a provider", provider: namedProvider("openrouter")},
		{name: "should reject nil", provider: nil, wantErr: "provider cannot be nil"},
		{name: "should reject an empty name", provider: namedProvider(""), wantErr: "provider name cannot be empty"},
		{
			name:     "should reject a duplicate name",
			existing: []string{"gemini"},
			provider: namedProvider("gemini"),
			wantErr:  "gemini",
			wantIs:   registry.ErrDuplicateProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.NewRegistry()
			for _, name := range tt.existing {
				require.NoError(t, reg.Register(ctx, namedProvider(name)))
			}

			err := reg.Register(ctx, tt.provider)

			if tt.wantErr == "" {
				require.NoError(t, err)
				got, getErr := reg.Get(ctx, tt.provider.Name())
				require.NoError(t, getErr)
				require.Equal(t, tt.provider, got)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewRegistry()
	for _, name := range []string{"openrouter", "gateway", "gemini", "openai", "echo"} {
		require.NoError(t, reg.Register(ctx, namedProvider(name)))
	}

	t.Run("should select every configured provider", func(t *testing.T) {
		for _, name := range []string{"openrouter", "gateway", "gemini", "openai", "echo"} {
			provider, err := reg.Get(ctx, name)
			require.NoError(t, err)
			require.Equal(t, name, provider.Name())
		}
	})

	t.Run("should name the registered providers for an unknown one", func(t *testing.T) {
		provider, err := reg.Get(ctx, "anthropic")

		require.Nil(t, provider)
		require.ErrorIs(t, err, registry.ErrUnknownProvider)
		require.Contains(t, err.Error(), "registered: echo, gateway, gemini, openai, openrouter")
	})

	t.Run("should be case sensitive", func(t *testing.T) {
		_, err := reg.Get(ctx, "OpenRouter")

		require.ErrorIs(t, err, registry.ErrUnknownProvider)
	})

	t.Run("should reject an empty name", func(t *testing.T) {
		_, err := reg.Get(ctx, "")

		require.ErrorContains(t, err, "provider name cannot be empty")
	})
}

func TestRegistry_List(t *testing.T) {
	ctx := context.Background()

	t.Run("should be empty but not nil", func(t *testing.T) {
		names, err := registry.NewRegistry().List(ctx)

		require.NoError(t, err)
		require.NotNil(t, names)
		require.Empty(t, names)
	})

	t.Run("should be sorted and detached", func(t *testing.T) {
		reg := registry.NewRegistry()
		for _, name := range []string{"provider3", "provider1", "provider2"} {
			require.NoError(t, reg.Register(ctx, namedProvider(name)))
		}

		names, err := reg.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"provider1", "provider2", "provider3"}, names)

		names[0] = "mutated"
		again, _ := reg.List(ctx)
		require.Equal(t, "provider1", again[0])
	})
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every name is registered twice; exactly one wins.
			_ = reg.Register(ctx, namedProvider(fmt.Sprintf("p%02d", i%10)))
			_, _ = reg.List(ctx)
		}()
	}
	wg.Wait()

	names, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, names, 10)
	require.IsIncreasing(t, names)
}
