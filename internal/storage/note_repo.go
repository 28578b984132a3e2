package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks knowledge-tool/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// timeLayout is fixed-width so that ORDER BY on the TEXT column sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const noteColumns = "id, title, body, created_at, updated_at, tags, path, original_path, is_read"

// NoteStore defines the interface for note storage operations.
type NoteStore interface {
	// GetAll returns every note, newest first. Trashed notes are skipped unless includeTrash is set.
	GetAll(ctx context.Context, includeTrash bool) ([]NoteRecord, error)
	// GetByPath returns the notes whose path equals path exactly, newest first.
	GetByPath(ctx context.Context, path string) ([]NoteRecord, error)
	// GetByID gets a note by ID. Returns nil and ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*NoteRecord, error)
	// Add inserts a new note and returns the assigned ID.
	Add(ctx context.Context, note *NoteRecord) (int64, error)
	// Update overwrites the mutable fields of an existing note.
	Update(ctx context.Context, note *NoteRecord) error
	// MoveToTrash soft-deletes a note, remembering its path for restore.
	MoveToTrash(ctx context.Context, id int64) error
	// RestoreFromTrash moves a trashed note back to the path it had before.
	RestoreFromTrash(ctx context.Context, id int64) error
	// EmptyTrash permanently deletes every trashed note and returns how many were removed.
	EmptyTrash(ctx context.Context) (int64, error)
	// Delete permanently deletes a single note.
	Delete(ctx context.Context, id int64) error
	// MarkRead sets the read flag of a note.
	MarkRead(ctx context.Context, id int64, read bool) error
	// ListTags counts tags across notes that are not in the trash.
	ListTags(ctx context.Context) ([]TagCount, error)
}

// NoteRepo provides methods for note operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db, now: time.Now}
}

// WithClock returns a copy of the repo that stamps notes with times from now.
func (r *NoteRepo) WithClock(now func() time.Time) *NoteRepo {
	return &NoteRepo{db: r.db, now: now}
}

// DB returns the underlying database handle.
func (r *NoteRepo) DB() *sql.DB {
	return r.db
}

// GetAll returns every note ordered by creation time, newest first.
func (r *NoteRepo) GetAll(ctx context.Context, includeTrash bool) ([]NoteRecord, error) {
	query := "SELECT " + noteColumns + " FROM notes"
	args := []any{}
	if !includeTrash {
		query += " WHERE path != ?"
		args = append(args, TrashPath)
	}
	query += " ORDER BY created_at DESC, id DESC"

	return r.query(ctx, query, args...)
}

// GetByPath returns the notes stored under path, newest first.
func (r *NoteRepo) GetByPath(ctx context.Context, path string) ([]NoteRecord, error) {
	return r.query(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE path = ? ORDER BY created_at DESC, id DESC",
		path,
	)
}

// GetByID gets a note by ID. Returns nil and ErrNotFound if not found.
func (r *NoteRepo) GetByID(ctx context.Context, id int64) (*NoteRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}
	return note, nil
}

// Add inserts a new note. The store assigns ID, CreatedAt and UpdatedAt and writes them
// back into note. IDs come from AUTOINCREMENT and are never reused.
func (r *NoteRepo) Add(ctx context.Context, note *NoteRecord) (int64, error) {
	now := r.now().UTC()

	tags, err := encodeTags(note.Tags)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (title, body, created_at, updated_at, tags, path, original_path, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		note.Title, note.Body, now.Format(timeLayout), now.Format(timeLayout), tags,
		note.Path, nullString(note.OriginalPath), note.Read,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted note id: %w", err)
	}

	note.ID = id
	note.CreatedAt = now
	note.UpdatedAt = now
	return id, nil
}

// Update overwrites title, body, tags, path, original path and read flag.
// ID and CreatedAt are preserved; UpdatedAt is refreshed and never precedes CreatedAt.
func (r *NoteRepo) Update(ctx context.Context, note *NoteRecord) error {
	existing, err := r.GetByID(ctx, note.ID)
	if err != nil {
		return err
	}

	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}

	updatedAt := r.stamp(existing.CreatedAt)
	_, err = r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, body = ?, updated_at = ?, tags = ?, path = ?, original_path = ?, is_read = ?
		 WHERE id = ?`,
		note.Title, note.Body, updatedAt.Format(timeLayout), tags, note.Path,
		nullString(note.OriginalPath), note.Read, note.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	note.CreatedAt = existing.CreatedAt
	note.UpdatedAt = updatedAt
	return nil
}

// MoveToTrash stores the current path in original_path and sets path to TrashPath.
// Calling it on a note that is already in the trash is a no-op.
func (r *NoteRepo) MoveToTrash(ctx context.Context, id int64) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.InTrash() {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE notes SET original_path = path, path = ?, updated_at = ? WHERE id = ? AND path != ?`,
		TrashPath, r.stamp(existing.CreatedAt).Format(timeLayout), id, TrashPath,
	)
	if err != nil {
		return fmt.Errorf("failed to move note to trash: %w", err)
	}
	return nil
}

// RestoreFromTrash puts a trashed note back at its original path and clears original_path.
// Calling it on a note that is not in the trash is a no-op.
func (r *NoteRepo) RestoreFromTrash(ctx context.Context, id int64) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !existing.InTrash() {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE notes SET path = COALESCE(original_path, ''), original_path = NULL, updated_at = ?
		 WHERE id = ? AND path = ?`,
		r.stamp(existing.CreatedAt).Format(timeLayout), id, TrashPath,
	)
	if err != nil {
		return fmt.Errorf("failed to restore note from trash: %w", err)
	}
	return nil
}

// EmptyTrash deletes all notes whose path is TrashPath. Active notes are never touched.
func (r *NoteRepo) EmptyTrash(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE path = ?", TrashPath)
	if err != nil {
		return 0, fmt.Errorf("failed to empty trash: %w", err)
	}
	return result.RowsAffected()
}

// Delete permanently removes a note.
func (r *NoteRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead sets the read flag and refreshes updated_at.
func (r *NoteRepo) MarkRead(ctx context.Context, id int64, read bool) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE notes SET is_read = ?, updated_at = ? WHERE id = ?",
		read, r.stamp(existing.CreatedAt).Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark note read: %w", err)
	}
	return nil
}

// ListTags counts tags on notes outside the trash, ordered by count then name.
func (r *NoteRepo) ListTags(ctx context.Context) ([]TagCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT j.value, COUNT(DISTINCT notes.id)
		 FROM notes, json_each(notes.tags) AS j
		 WHERE notes.path != ?
		 GROUP BY j.value
		 ORDER BY COUNT(DISTINCT notes.id) DESC, j.value ASC`,
		TrashPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tags := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tags, nil
}

func (r *NoteRepo) query(ctx context.Context, query string, args ...any) ([]NoteRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	notes := []NoteRecord{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, *note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return notes, nil
}

// stamp returns the current time, clamped so it never precedes createdAt.
func (r *NoteRepo) stamp(createdAt time.Time) time.Time {
	now := r.now().UTC()
	if now.Before(createdAt) {
		return createdAt
	}
	return now
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*NoteRecord, error) {
	var (
		note                 NoteRecord
		createdAt, updatedAt string
		tags                 string
		originalPath         sql.NullString
	)

	err := row.Scan(&note.ID, &note.Title, &note.Body, &createdAt, &updatedAt, &tags, &note.Path, &originalPath, &note.Read)
	if err != nil {
		return nil, err
	}

	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	note.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &note.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}

	if originalPath.Valid {
		p := originalPath.String
		note.OriginalPath = &p
	}

	return &note, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tools may use plain RFC3339
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t.UTC(), nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(raw), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
