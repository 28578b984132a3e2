package vault

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
)

// NoteWriter is the part of service.NoteService an import needs.
type NoteWriter interface {
	Create(ctx context.Context, req service.CreateNoteRequest) (*storage.NoteRecord, error)
	ListByPath(ctx context.Context, path string) ([]storage.NoteRecord, error)
}

// Stats summarizes an import run.
type Stats struct {
	Files    int `json:"files"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Importer creates notes from the markdown files of a folder. Each file becomes a note
// whose path mirrors its folder below prefix.
type Importer struct {
	notes  NoteWriter
	parser *Parser
}

// NewImporter creates a new Importer.
func NewImporter(notes NoteWriter) *Importer {
	return &Importer{
		notes:  notes,
		parser: NewParser(),
	}
}

// NotePath maps a scanned folder to a note path below prefix. The root folder without
// a prefix maps to the empty path.
func NotePath(prefix, folder string) string {
	p := path.Join("/", strings.Trim(prefix, "/"), folder)
	if p == "/" {
		return ""
	}
	return p
}

// ImportFile imports a single file. It reports false when a note with the same title
// already exists at the target path.
func (im *Importer) ImportFile(ctx context.Context, file ScannedFile, prefix string) (bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return false, fmt.Errorf("failed to read file %s: %w", file.AbsPath, err)
	}

	doc := im.parser.Parse(content, file.RelPath)
	notePath := NotePath(prefix, file.Folder)

	existing, err := im.notes.ListByPath(ctx, notePath)
	if err != nil {
		return false, fmt.Errorf("failed to check existing notes: %w", err)
	}
	for _, n := range existing {
		if n.Title == doc.Title {
			logger.DebugContext(ctx, "skipping already imported file", "rel_path", file.RelPath, "note_id", n.ID)
			return false, nil
		}
	}

	note, err := im.notes.Create(ctx, service.CreateNoteRequest{
		Title: doc.Title,
		Body:  doc.Body,
		Tags:  doc.Tags,
		Path:  notePath,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create note: %w", err)
	}

	logger.InfoContext(ctx, "imported note", "rel_path", file.RelPath, "note_id", note.ID, "title", doc.Title)
	return true, nil
}

// ImportAll scans root and imports every markdown file below it.
// Errors for individual files are logged but don't stop the import.
func (im *Importer) ImportAll(ctx context.Context, root, prefix string) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	scannedFiles, err := Scan(ctx, root)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Files: len(scannedFiles)}
	logger.InfoContext(ctx, "starting import", "root", root, "total_files", stats.Files)

	for _, file := range scannedFiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		imported, err := im.ImportFile(ctx, file, prefix)
		switch {
		case err != nil:
			stats.Failed++
			logger.ErrorContext(ctx, "failed to import file", "rel_path", file.RelPath, "error", err)
		case imported:
			stats.Imported++
		default:
			stats.Skipped++
		}
	}

	logger.InfoContext(ctx, "import completed",
		"total_files", stats.Files,
		"imported", stats.Imported,
		"skipped", stats.Skipped,
		"errors", stats.Failed,
	)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("import completed with %d errors", stats.Failed)
	}
	return stats, nil
}
