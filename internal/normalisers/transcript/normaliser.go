// Package transcript parses course transcripts into a Course and its
// lesson sections.
//
// A transcript starts with header lines, then lesson markers:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//	<optional preamble>
//	Lesson <N>: <lesson title>
//	Lesson Link: <url>
//	<body>
//
// Headers may appear in any order before the first lesson marker and
// labels are case-insensitive. Markdown heading markers in front of a
// header or lesson line are ignored.
package transcript

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	headerPattern     = regexp.MustCompile(`(?i)^#*\s*course\s+(title|link|instructor)\s*:\s*(.*)$`)
	lessonPattern     = regexp.MustCompile(`(?i)^#*\s*lesson\s+(\d+)\s*:\s*(.*)$`)
	lessonLinkPattern = regexp.MustCompile(`(?i)^lesson\s+link\s*:\s*(\S*)\s*$`)
)

// Normaliser handles course transcripts in plain text or Markdown.
type Normaliser struct{}

// New creates a new transcript normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise parses a transcript. Structural problems are returned as a
// *domain.FormatError.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Transcript, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	t, err := Parse(raw.Content)
	if err != nil {
		if fe, ok := err.(*domain.FormatError); ok {
			fe.URI = raw.URI
		}
		return nil, err
	}
	t.Course.URI = raw.URI
	return t, nil
}

type section struct {
	lesson *int
	lines  []string
}

// Parse parses transcript bytes.
func Parse(content []byte) (*domain.Transcript, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, &domain.FormatError{Reason: "empty document"}
	}

	sum := sha256.Sum256(content)
	course := domain.Course{ContentHash: hex.EncodeToString(sum[:])}

	var (
		preamble     []string
		sections     []*section
		current      *section
		expectLink   bool
		seen         = make(map[int]int)
		titleWasSeen bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		if m := lessonPattern.FindStringSubmatch(trimmed); m != nil {
			num, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, &domain.FormatError{Line: lineNo, Reason: fmt.Sprintf("invalid lesson number %q", m[1])}
			}
			if first, dup := seen[num]; dup {
				return nil, &domain.FormatError{
					Line:   lineNo,
					Reason: fmt.Sprintf("duplicate lesson %d (first at line %d)", num, first),
				}
			}
			seen[num] = lineNo
			course.Lessons = append(course.Lessons, domain.Lesson{Number: num, Title: strings.TrimSpace(m[2])})
			current = &section{lesson: domain.LessonRef(num)}
			sections = append(sections, current)
			expectLink = true
			continue
		}

		if current == nil {
			if m := headerPattern.FindStringSubmatch(trimmed); m != nil {
				value := strings.TrimSpace(m[2])
				switch strings.ToLower(m[1]) {
				case "title":
					course.Title = value
					titleWasSeen = true
				case "link":
					course.Link = value
				case "instructor":
					course.Instructor = value
				}
				continue
			}
			preamble = append(preamble, line)
			continue
		}

		if expectLink {
			if trimmed == "" {
				current.lines = append(current.lines, line)
				continue
			}
			expectLink = false
			if m := lessonLinkPattern.FindStringSubmatch(trimmed); m != nil {
				course.Lessons[len(course.Lessons)-1].Link = m[1]
				continue
			}
		}
		current.lines = append(current.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &domain.FormatError{Line: lineNo, Reason: err.Error()}
	}

	if !titleWasSeen || course.Title == "" {
		return nil, &domain.FormatError{Reason: "missing Course Title header"}
	}
	if len(course.Lessons) == 0 {
		return nil, &domain.FormatError{Reason: "no lesson markers"}
	}

	t := &domain.Transcript{Course: course}
	if body := joinBody(preamble); body != "" {
		t.Sections = append(t.Sections, domain.Section{Body: body})
	}
	for _, s := range sections {
		t.Sections = append(t.Sections, domain.Section{LessonNumber: s.lesson, Body: joinBody(s.lines)})
	}
	return t, nil
}

func joinBody(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
