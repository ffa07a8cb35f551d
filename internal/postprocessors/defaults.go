package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/postprocessors/chunker"
	"github.com/custodia-labs/lectern/internal/postprocessors/contextprefix"
)

// Built-in processor names, as used in domain.PipelineConfig.
const (
	Chunker       = "chunker"
	ContextPrefix = "context_prefix"
)

// RegisterDefaults registers the chunker and the context prefixer.
func RegisterDefaults(r *Registry) {
	r.Register(Chunker, buildChunker)
	r.Register(ContextPrefix, func(map[string]any) (driven.PostProcessor, error) {
		return contextprefix.New(), nil
	})
}

// buildChunker reads chunk_size and overlap, both in characters. A zero
// chunk_size means the default.
func buildChunker(opts map[string]any) (driven.PostProcessor, error) {
	size, err := intOption(opts, "chunk_size", chunker.DefaultChunkSize)
	if err != nil {
		return nil, err
	}
	overlap, err := intOption(opts, "overlap", chunker.DefaultChunkOverlap)
	if err != nil {
		return nil, err
	}
	switch {
	case size == 0:
		size = chunker.DefaultChunkSize
	case size < 0:
		return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidInput, size, overlap)
	}
	return chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap)), nil
}

// intOption reads an integer that may have been decoded from TOML as int64
// or from JSON as float64.
func intOption(opts map[string]any, key string, def int) (int, error) {
	v, ok := opts[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%w: %s must be a whole number, got %v", domain.ErrInvalidInput, key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", domain.ErrInvalidInput, key, v)
	}
}
