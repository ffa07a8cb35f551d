// Package chunker splits lesson bodies into overlapping chunks that end on
// natural boundaries where possible.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.PostProcessor = (*Processor)(nil)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

// chunkNamespace scopes deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lectern/chunk"))

// Processor splits transcript sections into chunks.
// Sizes are measured in runes, not bytes.
type Processor struct {
	chunkSize int
	overlap   int
}

type Option func(*Processor)

// WithChunkSize ignores non-positive sizes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap ignores negative overlaps.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New applies opts over the defaults. An overlap that would not leave room
// for new text drops to a quarter of the chunk size.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

func (p *Processor) Name() string   { return "chunker" }
func (p *Processor) ChunkSize() int { return p.chunkSize }
func (p *Processor) Overlap() int   { return p.overlap }

// Process chunks every section of the transcript in document order.
// Input chunks are ignored. Indices run across the whole course.
func (p *Processor) Process(ctx context.Context, t *domain.Transcript, _ []domain.Chunk) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	index := 0
	for _, s := range t.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, text := range p.Split(s.Body) {
			chunks = append(chunks, domain.Chunk{
				ID:           ChunkID(t.Course.Title, index),
				CourseTitle:  t.Course.Title,
				LessonNumber: s.LessonNumber,
				Index:        index,
				Raw:          text,
				Content:      text,
			})
			index++
		}
	}
	return chunks, nil
}

// ChunkID returns the deterministic ID of the index-th chunk of a course.
func ChunkID(courseTitle string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(courseTitle+"#"+strconv.Itoa(index))).String()
}

// Split cuts text into chunks of at most chunkSize runes. Each chunk after
// the first starts exactly overlap runes before the previous chunk ended, so
// dropping the first overlap runes of every later chunk and concatenating
// reproduces text.
func (p *Processor) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	// A chunk never ends before minLen runes, which keeps the cursor moving.
	minLen := p.chunkSize / 2
	if minLen <= p.overlap {
		minLen = p.overlap + 1
	}

	var out []string
	start := 0
	for {
		end := start + p.chunkSize
		if end >= n {
			out = append(out, string(runes[start:]))
			return out
		}
		end = breakPoint(runes, start+minLen, end)
		out = append(out, string(runes[start:end]))
		start = end - p.overlap
	}
}

// boundaries are tried in order of preference. Each reports whether a
// chunk may end just before runes[i].
var boundaries = []func(runes []rune, i int) bool{
	paragraphBreak,
	sentenceEnd,
	afterSpace,
}

func paragraphBreak(r []rune, i int) bool {
	return i >= 2 && r[i-1] == '\n' && r[i-2] == '\n'
}

func sentenceEnd(r []rune, i int) bool {
	return i >= 2 && unicode.IsSpace(r[i-1]) && strings.ContainsRune(".!?", r[i-2])
}

func afterSpace(r []rune, i int) bool {
	return i >= 1 && unicode.IsSpace(r[i-1])
}

// breakPoint returns the latest end in [lo, hi] at the most preferred
// boundary found, or hi when there is none.
func breakPoint(runes []rune, lo, hi int) int {
	for _, ok := range boundaries {
		for i := hi; i >= lo; i-- {
			if ok(runes, i) {
				return i
			}
		}
	}
	return hi
}
