package storage

import (
	"strings"
	"time"
)

const (
	// TrashPath is the reserved path marking a note as soft-deleted.
	TrashPath = "/trashbox"
	// JournalPathPrefix prefixes the path of every journal entry ("/journal/2006-01-02").
	JournalPathPrefix = "/journal/"
)

// NoteRecord represents a single knowledge or journal note in the database.
type NoteRecord struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Tags         []string  `json:"tags"`
	Path         string    `json:"path,omitempty"`
	OriginalPath *string   `json:"originalPath,omitempty"` // Set only while the note is in the trash
	Read         bool      `json:"read"`
}

// InTrash reports whether the note is currently soft-deleted.
func (n NoteRecord) InTrash() bool {
	return n.Path == TrashPath
}

// IsJournal reports whether the note lives under the journal path.
func (n NoteRecord) IsJournal() bool {
	return strings.HasPrefix(n.Path, JournalPathPrefix)
}

// HasTag reports whether tags contains tag exactly.
func (n NoteRecord) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand records across goroutines.
func (n NoteRecord) Clone() NoteRecord {
	c := n
	if n.Tags != nil {
		c.Tags = append([]string(nil), n.Tags...)
	}
	if n.OriginalPath != nil {
		p := *n.OriginalPath
		c.OriginalPath = &p
	}
	return c
}

// TagCount is a tag together with the number of active notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
