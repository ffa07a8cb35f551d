package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Builder creates a processor from its [pipeline.<name>] options.
type Builder func(opts map[string]any) (driven.PostProcessor, error)

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder. Registering a name twice panics.
func (r *Registry) Register(name string, b Builder) {
	if b == nil {
		panic("postprocessors: nil builder for " + name)
	}
	if _, dup := r.builders[name]; dup {
		panic("postprocessors: processor registered twice: " + name)
	}
	r.builders[name] = b
}

// Build creates the named processor.
func (r *Registry) Build(name string, opts map[string]any) (driven.PostProcessor, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q (have %v)", domain.ErrUnsupportedType, name, r.Names())
	}
	proc, err := b(opts)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	return proc, nil
}

// BuildPipeline builds the processors listed in cfg, in order.
func (r *Registry) BuildPipeline(cfg domain.PipelineConfig) (*Pipeline, error) {
	if len(cfg.Processors) == 0 {
		return nil, fmt.Errorf("%w: pipeline has no processors", domain.ErrInvalidInput)
	}
	procs := make([]driven.PostProcessor, 0, len(cfg.Processors))
	for _, name := range cfg.Processors {
		proc, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, err
		}
		procs = append(procs, proc)
	}
	return NewPipeline(procs...), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
