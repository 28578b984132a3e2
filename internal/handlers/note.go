package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/search"
	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
)

// NoteHandler serves notes as rendered HTML pages.
type NoteHandler struct {
	noteService service.NoteService
	markdown    goldmark.Markdown
	page        *template.Template
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title   []search.Segment
	Path    string
	Tags    []string
	Created string
	Trashed bool
	Content template.HTML
}

// notePage lays out a single note. Title segments flagged Match are wrapped in <mark>.
const notePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{range .Title}}{{.Text}}{{end}}</title>
<style>
  body { font: 17px/1.6 Georgia, 'Times New Roman', serif; background: #fbf8f1; color: #2b2a27; }
  main { max-width: 46rem; margin: 3rem auto; padding: 0 1.25rem; }
  h1 { font-size: 1.9rem; line-height: 1.25; margin: 0 0 .4rem; }
  .byline { font: 14px/1.4 system-ui, sans-serif; color: #8a8577; }
  .byline .trash { color: #b4441f; font-weight: 600; }
  .labels { margin: .6rem 0 0; padding: 0; list-style: none; display: flex; gap: .4rem; }
  .labels li { font: 13px system-ui, sans-serif; background: #ece6d6; border-radius: 999px; padding: .1rem .6rem; }
  .body { margin-top: 2rem; border-top: 1px solid #e2dccb; padding-top: 1.5rem; }
  .body pre, .body code { font-family: ui-monospace, Menlo, monospace; font-size: 14px; background: #f1ece0; }
  .body pre { padding: .8rem 1rem; overflow-x: auto; }
  mark { background: #ffe58a; padding: 0 .1em; }
</style>
</head>
<body>
<main>
<h1>{{range .Title}}{{if .Match}}<mark>{{.Text}}</mark>{{else}}{{.Text}}{{end}}{{end}}</h1>
<div class="byline">{{.Created}}{{with .Path}} in {{.}}{{end}}{{if .Trashed}} <span class="trash">in trash</span>{{end}}</div>
{{with .Tags}}<ul class="labels">{{range .}}<li>#{{.}}</li>{{end}}</ul>{{end}}
<div class="body">{{.Content}}</div>
</main>
</body>
</html>
`

var notePageTemplate = template.Must(template.New("note").Parse(notePage))

// NewNoteHandler creates a new handler for rendering notes.
func NewNoteHandler(noteService service.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		markdown:    goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Footnote)),
		page:        notePageTemplate,
	}
}

// ServeHTTP renders the note with the given id. The optional q parameter is highlighted
// in the title and body.
func (h *NoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid note id", http.StatusBadRequest)
		return
	}

	note, err := h.noteService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to load note", "note_id", id, "error", err)
		http.Error(w, "failed to load note", http.StatusInternalServerError)
		return
	}

	term := highlightTerm(r.URL.Query().Get("q"))

	htmlContent, err := h.renderMarkdown([]byte(note.Body))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "note_id", id, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	data := notePageData{
		Title:   titleSegments(note, term),
		Path:    displayPath(note),
		Tags:    note.Tags,
		Created: note.CreatedAt.Local().Format("2006/01/02 15:04"),
		Trashed: note.InTrash(),
		Content: template.HTML(highlightHTML(htmlContent, term)),
	}

	var page bytes.Buffer
	if err := h.page.Execute(&page, data); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "note_id", id, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = page.WriteTo(w)
}

func (h *NoteHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.markdown.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// highlightTerm returns the term to mark in the page. Tag searches ("#tag") match tags,
// not text, so nothing is marked for them.
func highlightTerm(q string) string {
	if strings.TrimSpace(q) == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(q, "#"); ok && strings.TrimSpace(rest) != "" {
		return ""
	}
	return q
}

func titleSegments(note *storage.NoteRecord, term string) []search.Segment {
	title := note.Title
	if title == "" {
		title = "Untitled"
	}
	return search.Highlight(title, term)
}

func displayPath(note *storage.NoteRecord) string {
	if note.InTrash() && note.OriginalPath != nil {
		return *note.OriginalPath
	}
	if note.InTrash() {
		return ""
	}
	return note.Path
}

// markupPattern matches tags and character references, which are never highlighted into.
var markupPattern = regexp.MustCompile(`<[^>]*>|&[#a-zA-Z0-9]+;`)

// highlightHTML wraps case-insensitive occurrences of term in the text of rendered HTML
// with <mark>. Markup and entities are copied unchanged.
func highlightHTML(src, term string) string {
	if term == "" {
		return src
	}
	escaped := html.EscapeString(term)

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, loc := range markupPattern.FindAllStringIndex(src, -1) {
		markText(&b, src[last:loc[0]], escaped)
		b.WriteString(src[loc[0]:loc[1]])
		last = loc[1]
	}
	markText(&b, src[last:], escaped)
	return b.String()
}

func markText(b *strings.Builder, text, term string) {
	for _, seg := range search.Highlight(text, term) {
		if seg.Match {
			b.WriteString("<mark>")
			b.WriteString(seg.Text)
			b.WriteString("</mark>")
			continue
		}
		b.WriteString(seg.Text)
	}
}
