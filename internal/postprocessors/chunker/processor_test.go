package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.ChunkSize())
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.Overlap() >= p.ChunkSize() {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", New().Name())
	}
}

func lorem(sentences int) string {
	words := []string{"testing", "is", "how", "we", "learn", "what", "code", "really", "does", "today"}
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		if i%7 == 6 {
			b.WriteString("\n\n")
		}
		for j := 0; j < 5+i%6; j++ {
			if j > 0 {
				b.WriteString(" ")
			}
			b.WriteString(words[(i+j)%len(words)])
		}
		b.WriteString(".")
	}
	return b.String()
}

// reassemble drops the overlap from every chunk after the first.
func reassemble(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func TestSplit_Properties(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
		text    string
	}{
		{"prose default size", 800, 100, lorem(120)},
		{"prose small size", 60, 10, lorem(40)},
		{"no whitespace hard cuts", 50, 7, strings.Repeat("x", 333)},
		{"zero overlap", 40, 0, lorem(20)},
		{"large overlap", 40, 30, lorem(20)},
		{"multibyte runes", 30, 5, strings.Repeat("héllo wörld ünïcode. ", 20)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(WithChunkSize(tc.size), WithOverlap(tc.overlap))
			chunks := p.Split(tc.text)
			if len(chunks) == 0 {
				t.Fatal("expected chunks")
			}

			if got := reassemble(chunks, tc.overlap); got != tc.text {
				t.Errorf("round trip mismatch:\nwant %q\ngot  %q", tc.text, got)
			}

			for i, c := range chunks {
				if n := utf8.RuneCountInString(c); n > tc.size {
					t.Errorf("chunk %d has %d runes, limit %d", i, n, tc.size)
				}
				if i == 0 {
					continue
				}
				prev := []rune(chunks[i-1])
				cur := []rune(c)
				if string(prev[len(prev)-tc.overlap:]) != string(cur[:tc.overlap]) {
					t.Errorf("chunk %d does not start with the last %d runes of chunk %d", i, tc.overlap, i-1)
				}
			}
		})
	}
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	text := "First sentence is here. Second sentence follows it and keeps going for a while longer."
	p := New(WithChunkSize(40), WithOverlap(0))

	chunks := p.Split(text)
	if chunks[0] != "First sentence is here. " {
		t.Errorf("expected break after first sentence, got %q", chunks[0])
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	text := "Para one. Still one.\n\nPara two starts here and is long enough to overflow."
	p := New(WithChunkSize(36), WithOverlap(0))

	chunks := p.Split(text)
	if chunks[0] != "Para one. Still one.\n\n" {
		t.Errorf("expected break at paragraph, got %q", chunks[0])
	}
}

func TestBoundaries(t *testing.T) {
	tests := []struct {
		text  string
		i     int
		check func([]rune, int) bool
		want  bool
	}{
		{"a\n\nb", 3, paragraphBreak, true},
		{"a\nb", 2, paragraphBreak, false},
		{"Done. Next", 6, sentenceEnd, true},
		{"Really? Yes", 8, sentenceEnd, true},
		{"e.g, more", 5, sentenceEnd, false},
		{"x", 1, sentenceEnd, false},
		{"one two", 4, afterSpace, true},
		{"one two", 3, afterSpace, false},
		{"", 0, afterSpace, false},
	}
	for _, tt := range tests {
		if got := tt.check([]rune(tt.text), tt.i); got != tt.want {
			t.Errorf("boundary at %d in %q = %v, want %v", tt.i, tt.text, got, tt.want)
		}
	}
}

func TestBreakPoint_FallsBackToHardCut(t *testing.T) {
	runes := []rune("abcdefghij")
	if got := breakPoint(runes, 5, 8); got != 8 {
		t.Errorf("expected hard cut at 8, got %d", got)
	}
}

func TestSplit_EmptyAndShort(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(10))

	if chunks := p.Split(""); chunks != nil {
		t.Errorf("expected no chunks for empty text, got %v", chunks)
	}

	chunks := p.Split("short")
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("expected single chunk, got %v", chunks)
	}
}

func TestProcess_IndicesRunAcrossCourse(t *testing.T) {
	tr := &domain.Transcript{
		Course: domain.Course{Title: "Intro to Testing"},
		Sections: []domain.Section{
			{Body: "Preamble text that introduces the course."},
			{LessonNumber: domain.LessonRef(0), Body: lorem(10)},
			{LessonNumber: domain.LessonRef(1), Body: ""},
			{LessonNumber: domain.LessonRef(2), Body: lorem(10)},
		},
	}
	p := New(WithChunkSize(80), WithOverlap(10))

	chunks, err := p.Process(context.Background(), tr, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	if chunks[0].LessonNumber != nil {
		t.Error("expected preamble chunk to have no lesson")
	}
	seenLesson2 := false
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.CourseTitle != "Intro to Testing" {
			t.Errorf("chunk %d has course %q", i, c.CourseTitle)
		}
		if c.ID != ChunkID("Intro to Testing", i) {
			t.Errorf("chunk %d has unexpected id", i)
		}
		if c.Content != c.Raw {
			t.Errorf("chunk %d content should equal raw before prefixing", i)
		}
		if c.LessonNumber != nil && *c.LessonNumber == 1 {
			t.Error("empty lesson body should produce no chunks")
		}
		if c.LessonNumber != nil && *c.LessonNumber == 2 {
			seenLesson2 = true
		}
	}
	if !seenLesson2 {
		t.Error("expected chunks for lesson 2")
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, &domain.Transcript{Sections: []domain.Section{{Body: "x"}}}, nil)
	if err == nil {
		t.Error("expected context error")
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	if ChunkID("A", 1) != ChunkID("A", 1) {
		t.Error("expected stable ids")
	}
	if ChunkID("A", 1) == ChunkID("A", 2) || ChunkID("A", 1) == ChunkID("B", 1) {
		t.Error("expected distinct ids")
	}
}
