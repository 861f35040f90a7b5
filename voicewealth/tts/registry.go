package tts

import (
	"context"
	"fmt"
	"slices"
)

// Factory builds a Synthesizer on demand, so backends that need credentials are only dialed when selected.
type Factory func(ctx context.Context) (Synthesizer, error)

type Registry struct {
	factories map[string]Factory // name -> factory
	names     []string
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("synthesizer name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("synthesizer %s has no factory", name)
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("synthesizer already registered: %s", name)
	}
	r.factories[name] = factory
	r.names = append(r.names, name)
	return nil
}

func (r *Registry) Get(name string) (Factory, bool) {
	factory, ok := r.factories[name]
	return factory, ok
}

// Build looks up name and runs its factory.
func (r *Registry) Build(ctx context.Context, name string) (Synthesizer, error) {
	factory, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown synthesizer %q, available: %v", name, r.names)
	}
	synth, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesizer %s: %w", name, err)
	}
	return synth, nil
}

func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}
