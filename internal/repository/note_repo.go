package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"notes_service/internal/models"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository { return &NoteRepository{db: db} }

var _ Notes = (*NoteRepository)(nil)

// SQLite TIMESTAMP format "YYYY-MM-DD HH:MM:SS"
const sqliteTimeLayout = "2006-01-02 15:04:05"

const (
	insertNoteSQL         = `INSERT INTO notes (title, content, created_at, updated_at, user_id) VALUES (?, ?, ?, ?, ?)`
	selectNoteSQL         = `SELECT id, title, content, created_at, updated_at, user_id FROM notes WHERE id = ? AND user_id = ?`
	selectNotesByOwnerSQL = `SELECT id, title, content, created_at, updated_at, user_id FROM notes WHERE user_id = ? ORDER BY id ASC`
	selectNotesByTagSQL   = `SELECT n.id, n.title, n.content, n.created_at, n.updated_at, n.user_id FROM notes n JOIN note_tags nt ON nt.note_id = n.id JOIN tags t ON t.id = nt.tag_id WHERE n.user_id = ? AND t.name = ? ORDER BY n.id ASC`
	updateNoteSQL         = `UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	deleteNoteSQL         = `DELETE FROM notes WHERE id = ? AND user_id = ?`

	selectTagByNameSQL   = `SELECT id, name FROM tags WHERE name = ?`
	insertTagSQL         = `INSERT INTO tags (name) VALUES (?)`
	selectTagsForNoteSQL = `SELECT t.id, t.name FROM tags t JOIN note_tags nt ON nt.tag_id = t.id WHERE nt.note_id = ? ORDER BY t.name ASC`
	attachTagSQL         = `INSERT INTO note_tags (note_id, tag_id) VALUES (?, ?)`
	detachTagSQL         = `DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?`
	detachAllTagsSQL     = `DELETE FROM note_tags WHERE note_id = ?`
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so tag helpers can run
// inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create persists a new note and its tag set in one transaction.
func (r *NoteRepository) Create(ctx context.Context, ownerID int, title, content string, tags []string) (*models.Note, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create note: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, insertNoteSQL,
		title, content, now.Format(sqliteTimeLayout), now.Format(sqliteTimeLayout), ownerID)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	noteID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id for note: %w", err)
	}

	if err := syncTags(ctx, tx, int(noteID), tags); err != nil {
		return nil, err
	}

	note, err := scanNote(ctx, tx, ownerID, int(noteID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create note: %w", err)
	}
	return note, nil
}

// List returns all notes owned by ownerID, each with its tags.
func (r *NoteRepository) List(ctx context.Context, ownerID int) ([]models.Note, error) {
	return r.queryNotes(ctx, selectNotesByOwnerSQL, ownerID)
}

// ListByTag returns the owner's notes joined to the tag with that exact name.
// A tag that exists but matches nothing yields an empty slice; whether the
// tag exists at all is the caller's question (see TagByName).
func (r *NoteRepository) ListByTag(ctx context.Context, ownerID int, tag string) ([]models.Note, error) {
	return r.queryNotes(ctx, selectNotesByTagSQL, ownerID, tag)
}

// GetByID fetches a single owned note. Returns (nil, nil) when the note is
// missing or owned by another user; the two are indistinguishable.
func (r *NoteRepository) GetByID(ctx context.Context, ownerID, noteID int) (*models.Note, error) {
	return scanNote(ctx, r.db, ownerID, noteID)
}

// Update overwrites title/content unconditionally and replaces the tag set,
// all in one transaction. Returns (nil, nil) when the note is not owned.
func (r *NoteRepository) Update(ctx context.Context, ownerID, noteID int, title, content string, tags []string) (*models.Note, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update note: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, updateNoteSQL,
		title, content, now.Format(sqliteTimeLayout), noteID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update note %d: %w", noteID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected for note %d: %w", noteID, err)
	}
	if affected == 0 {
		return nil, nil // missing or not owned
	}

	if err := syncTags(ctx, tx, noteID, tags); err != nil {
		return nil, err
	}

	note, err := scanNote(ctx, tx, ownerID, noteID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update note: %w", err)
	}
	return note, nil
}

// Delete removes an owned note and its tag associations; tag rows survive.
// The removed note is returned, or (nil, nil) when not owned.
func (r *NoteRepository) Delete(ctx context.Context, ownerID, noteID int) (*models.Note, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete note: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	note, err := scanNote(ctx, tx, ownerID, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, detachAllTagsSQL, noteID); err != nil {
		return nil, fmt.Errorf("detach tags of note %d: %w", noteID, err)
	}
	if _, err := tx.ExecContext(ctx, deleteNoteSQL, noteID, ownerID); err != nil {
		return nil, fmt.Errorf("delete note %d: %w", noteID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete note: %w", err)
	}
	return note, nil
}

// TagByName fetches a tag by exact name. Returns (nil, nil) if not found.
func (r *NoteRepository) TagByName(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	err := r.db.QueryRowContext(ctx, selectTagByNameSQL, name).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select tag %q: %w", name, err)
	}
	return &t, nil
}

func (r *NoteRepository) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select notes: %w", err)
	}
	defer rows.Close()

	out := make([]models.Note, 0, 16)
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt, &n.UserID); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.CreatedAt = n.CreatedAt.UTC()
		n.UpdatedAt = n.UpdatedAt.UTC()
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tags, err := tagsForNote(ctx, r.db, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
	}
	return out, nil
}

// scanNote loads one owned note with its tags. Returns (nil, nil) on no row.
func scanNote(ctx context.Context, q dbtx, ownerID, noteID int) (*models.Note, error) {
	var n models.Note
	err := q.QueryRowContext(ctx, selectNoteSQL, noteID, ownerID).
		Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt, &n.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select note %d: %w", noteID, err)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()

	tags, err := tagsForNote(ctx, q, n.ID)
	if err != nil {
		return nil, err
	}
	n.Tags = tags
	return &n, nil
}

func tagsForNote(ctx context.Context, q dbtx, noteID int) ([]models.Tag, error) {
	rows, err := q.QueryContext(ctx, selectTagsForNoteSQL, noteID)
	if err != nil {
		return nil, fmt.Errorf("select tags of note %d: %w", noteID, err)
	}
	defer rows.Close()

	tags := make([]models.Tag, 0, 4)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// syncTags reconciles the note's current tag set against desired: tags no
// longer wanted are detached, new ones are attached, and missing tag rows
// are created lazily. Duplicate and blank names in the input collapse away.
// Names are processed in sorted order to keep the statement sequence
// deterministic.
func syncTags(ctx context.Context, q dbtx, noteID int, desired []string) error {
	want := make(map[string]bool, len(desired))
	for _, name := range desired {
		name = strings.TrimSpace(name)
		if name != "" {
			want[name] = true
		}
	}

	current, err := tagsForNote(ctx, q, noteID)
	if err != nil {
		return err
	}
	have := make(map[string]int, len(current))
	for _, t := range current {
		have[t.Name] = t.ID
	}

	var toRemove, toAdd []string
	for name := range have {
		if !want[name] {
			toRemove = append(toRemove, name)
		}
	}
	for name := range want {
		if _, ok := have[name]; !ok {
			toAdd = append(toAdd, name)
		}
	}
	sort.Strings(toRemove)
	sort.Strings(toAdd)

	for _, name := range toRemove {
		if _, err := q.ExecContext(ctx, detachTagSQL, noteID, have[name]); err != nil {
			return fmt.Errorf("detach tag %q from note %d: %w", name, noteID, err)
		}
	}

	for _, name := range toAdd {
		tagID, err := lookupOrCreateTag(ctx, q, name)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, attachTagSQL, noteID, tagID); err != nil {
			return fmt.Errorf("attach tag %q to note %d: %w", name, noteID, err)
		}
	}
	return nil
}

// lookupOrCreateTag reuses an existing tag row by exact name, inserting one
// only when absent. Idempotent, so a UNIQUE race is safe to retry.
func lookupOrCreateTag(ctx context.Context, q dbtx, name string) (int, error) {
	var t models.Tag
	err := q.QueryRowContext(ctx, selectTagByNameSQL, name).Scan(&t.ID, &t.Name)
	if err == nil {
		return t.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("select tag %q: %w", name, err)
	}

	res, err := q.ExecContext(ctx, insertTagSQL, name)
	if err != nil {
		return 0, fmt.Errorf("insert tag %q: %w", name, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for tag %q: %w", name, err)
	}
	return int(lastID), nil
}
