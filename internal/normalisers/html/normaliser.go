package html

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/normalisers/transcript"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser reduces a page to text and hands it to the plain transcript
// parser.
type Normaliser struct {
	text *transcript.Normaliser
}

func New() *Normaliser {
	return &Normaliser{text: transcript.New()}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (n *Normaliser) Priority() int { return 50 }

var courseTitleLine = regexp.MustCompile(`(?im)^#*\s*course\s+title\s*:`)

// Normalise parses the page text as a transcript, falling back to the
// <title> element when no "Course Title:" line survives.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Transcript, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page := render(raw.Content)
	text := page.text
	if page.title != "" && !courseTitleLine.MatchString(text) {
		text = "Course Title: " + page.title + "\n" + text
	}

	return n.text.Normalise(ctx, &domain.RawDocument{
		URI:      raw.URI,
		MIMEType: "text/plain",
		Content:  []byte(text),
	})
}

// Elements whose content is never transcript text.
var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Svg: true, atom.Template: true, atom.Iframe: true,
}

// Elements that start a new line when opened or closed.
var lineBreaking = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Tr: true, atom.Table: true,
	atom.Blockquote: true, atom.Pre: true, atom.Section: true, atom.Article: true,
}

type page struct {
	title string
	text  string // one non-empty, space-collapsed line per block
}

// render walks the token stream once. Text inside <head> other than the
// title is dropped, as is everything inside a skipped element.
func render(content []byte) page {
	z := html.NewTokenizer(bytes.NewReader(content))
	var title, body strings.Builder
	var inHead, inTitle bool
	skipDepth := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break // io.EOF, or input the tokenizer cannot continue past
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			switch {
			case skipped[tok.DataAtom]:
				if tt == html.StartTagToken {
					skipDepth++
				}
			case tok.DataAtom == atom.Head:
				inHead = true
			case tok.DataAtom == atom.Title:
				inTitle = tt == html.StartTagToken
			case lineBreaking[tok.DataAtom]:
				body.WriteByte('\n')
			}
		case html.EndTagToken:
			switch {
			case skipped[tok.DataAtom]:
				if skipDepth > 0 {
					skipDepth--
				}
			case tok.DataAtom == atom.Head:
				inHead = false
			case tok.DataAtom == atom.Title:
				inTitle = false
			case lineBreaking[tok.DataAtom]:
				body.WriteByte('\n')
			}
		case html.TextToken:
			switch {
			case skipDepth > 0:
			case inTitle:
				title.WriteString(tok.Data)
			case !inHead:
				body.WriteString(tok.Data)
			}
		}
	}

	return page{
		title: strings.Join(strings.Fields(title.String()), " "),
		text:  cleanLines(body.String()),
	}
}

func cleanLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func extractHTMLTitle(content string) string { return render([]byte(content)).title }
func stripHTML(content string) string        { return render([]byte(content)).text }
