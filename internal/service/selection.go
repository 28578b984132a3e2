package service

import (
	"context"

	"knowledge-tool/internal/storage"
)

// Selection is the editor state: which note is open, or the draft being created.
// Selected and Creating are never both set.
type Selection struct {
	Selected *int64              `json:"selected"`
	Creating bool                `json:"creating"`
	Draft    *storage.NoteRecord `json:"draft,omitempty"`
}

func (s Selection) clone() Selection {
	c := Selection{Creating: s.Creating}
	if s.Selected != nil {
		id := *s.Selected
		c.Selected = &id
	}
	if s.Draft != nil {
		d := s.Draft.Clone()
		c.Draft = &d
	}
	return c
}

// Selection returns a copy of the current selection.
func (s *noteService) Selection() Selection {
	s.selectionMu.Lock()
	defer s.selectionMu.Unlock()
	return s.selection.clone()
}

// Select opens an existing note, discarding any draft.
func (s *noteService) Select(ctx context.Context, id int64) (Selection, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return Selection{}, err
	}

	s.selectionMu.Lock()
	defer s.selectionMu.Unlock()
	s.selection = Selection{Selected: &id}
	return s.selection.clone(), nil
}

// BeginDraft starts creating a note from draft.
func (s *noteService) BeginDraft(draft storage.NoteRecord) Selection {
	d := draft.Clone()
	d.ID = 0

	s.selectionMu.Lock()
	defer s.selectionMu.Unlock()
	s.selection = Selection{Creating: true, Draft: &d}
	return s.selection.clone()
}

// ClearSelection resets the selection.
func (s *noteService) ClearSelection() Selection {
	s.selectionMu.Lock()
	defer s.selectionMu.Unlock()
	s.selection = Selection{}
	return s.selection
}

// forget clears the selection if it points at id.
func (s *noteService) forget(id int64) {
	s.selectionMu.Lock()
	defer s.selectionMu.Unlock()
	if s.selection.Selected != nil && *s.selection.Selected == id {
		s.selection = Selection{}
	}
}
