package cleaners

import (
	"fmt"
	"sort"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// BuilderFunc creates a TextCleaner from generic config.
// Config is a map of cleaner-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.TextCleaner, error)

// Registry maps cleaner names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new cleaner registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a cleaner builder to the registry.
// Name should be unique and match the cleaner's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a cleaner by name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.TextCleaner, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown cleaner %q", domain.ErrInvalidInput, name)
	}
	return builder(cfg)
}

// Has returns true if a cleaner with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered cleaner names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildPipeline assembles the configured cleaners in order.
func (r *Registry) BuildPipeline(cfg domain.CleanerConfig) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range cfg.Cleaners {
		cleaner, err := r.Build(name, cfg.GetCleanerConfig(name))
		if err != nil {
			return nil, err
		}
		p.Add(cleaner)
	}
	return p, nil
}
