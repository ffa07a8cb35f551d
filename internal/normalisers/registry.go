package normalisers

import (
	"context"
	"fmt"
	"mime"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.NormaliserRegistry = (*Registry)(nil)

const plainText = "text/plain"

// Registry routes a raw document to a normaliser by MIME type. When several
// claim the same type the highest Priority wins; ties go to the one
// registered first.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byMIME: make(map[string][]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range n.SupportedMIMETypes() {
		list := append(slices.Clone(r.byMIME[m]), n)
		slices.SortStableFunc(list, func(a, b driven.Normaliser) int {
			return b.Priority() - a.Priority()
		})
		r.byMIME[m] = list
	}
}

// Normalise parses raw with the best normaliser for its MIME type.
// Parameters such as charset are ignored and an empty type means text/plain.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Transcript, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	media := mediaType(raw.MIMEType)

	r.mu.RLock()
	candidates := r.byMIME[media]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no normaliser for %s", domain.ErrUnsupportedType, media)
	}
	return candidates[0].Normalise(ctx, raw)
}

// SupportedMIMETypes lists every registered type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byMIME))
	for m := range r.byMIME {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

func mediaType(contentType string) string {
	if contentType == "" {
		return plainText
	}
	if media, _, err := mime.ParseMediaType(contentType); err == nil {
		return media
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// MIMETypeForExt maps a transcript file extension, case-insensitively, to
// the MIME type its normaliser registers. Unknown extensions map to "".
func MIMETypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".txt", ".text":
		return plainText
	case ".md", ".markdown":
		return "text/markdown"
	case ".html", ".htm":
		return "text/html"
	}
	return ""
}
