package vault

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Document is a markdown file converted to note fields.
type Document struct {
	Title string
	Body  string
	Tags  []string
}

// inlineTag matches Obsidian style tags such as #go or #project/alpha. A tag must
// start with a letter so that "#1" and headings are not taken as tags.
var inlineTag = regexp.MustCompile(`(?:^|\s)#(\p{L}[\p{L}\p{N}_/-]*)`)

// Parser converts markdown files to documents.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Parse extracts the title, body and tags of a markdown file.
//
// The title is the first level 1 heading, else the first level 2 heading, else the
// filename. A level 1 heading that opens the file is dropped from the body since the
// title already carries it. Tags come from #tag words in text, outside code.
func (p *Parser) Parse(content []byte, filename string) Document {
	if len(bytes.TrimSpace(content)) == 0 {
		return Document{Title: titleFromFilename(filename), Tags: []string{}}
	}

	doc := p.md.Parser().Parse(text.NewReader(content))

	var (
		firstH1, firstH2 string
		tags             []string
		seen             = make(map[string]bool)
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			headingText := nodeText(v, content)
			if v.Level == 1 && firstH1 == "" {
				firstH1 = headingText
			} else if v.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
		case *ast.CodeSpan, *ast.FencedCodeBlock, *ast.CodeBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			for _, m := range inlineTag.FindAllSubmatch(v.Segment.Value(content), -1) {
				tag := strings.ToLower(strings.TrimRight(string(m[1]), "/"))
				if !seen[tag] {
					seen[tag] = true
					tags = append(tags, tag)
				}
			}
		}
		return ast.WalkContinue, nil
	})

	d := Document{Body: string(content), Tags: tags}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	switch {
	case firstH1 != "":
		d.Title = firstH1
		if h, ok := doc.FirstChild().(*ast.Heading); ok && h.Level == 1 {
			d.Body = bodyAfter(h, content)
		}
	case firstH2 != "":
		d.Title = firstH2
	default:
		d.Title = titleFromFilename(filename)
	}
	return d
}

// bodyAfter returns the content that follows the line holding heading h.
func bodyAfter(h *ast.Heading, content []byte) string {
	lines := h.Lines()
	if lines.Len() == 0 {
		return string(content)
	}
	stop := lines.At(lines.Len() - 1).Stop
	stop = nextLine(content, stop)

	// Setext headings are underlined on the following line
	rest := content[stop:]
	underline := rest
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		underline = rest[:i]
	}
	if u := bytes.TrimSpace(underline); len(u) > 0 && len(bytes.Trim(u, "=")) == 0 {
		stop = nextLine(content, stop)
	}
	return strings.TrimLeft(string(content[stop:]), "\r\n")
}

// nextLine returns the offset just past the newline at or after pos.
func nextLine(content []byte, pos int) int {
	if i := bytes.IndexByte(content[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(content)
}

// nodeText extracts text content from a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// titleFromFilename removes the extension and capitalizes each word.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
