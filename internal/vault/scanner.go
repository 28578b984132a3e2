// Package vault imports folders of markdown files, such as an Obsidian vault, as notes.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ScannedFile represents a markdown file found during a scan.
type ScannedFile struct {
	RelPath string // Relative path from the root (e.g., "projects/meeting-notes.md")
	Folder  string // Folder path (path components except filename, e.g., "projects")
	AbsPath string // Absolute file path
}

// Scan walks root and returns every markdown file below it in lexical order. Hidden
// directories such as .obsidian and .git are skipped.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	var scannedFiles []ScannedFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		folder := filepath.ToSlash(filepath.Dir(relPath))
		if folder == "." {
			folder = ""
		}

		scannedFiles = append(scannedFiles, ScannedFile{
			RelPath: relPath,
			Folder:  folder,
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return scannedFiles, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return scannedFiles, nil
}
