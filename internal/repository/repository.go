package repository

import (
	"context"
	"database/sql"

	"notes_service/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// Notes owns persistence of notes, tags and the note-tag relation.
// Every operation is scoped to an owner id; a note that exists but
// belongs to someone else behaves exactly like a missing note.
type Notes interface {
	Create(ctx context.Context, ownerID int, title, content string, tags []string) (*models.Note, error)
	List(ctx context.Context, ownerID int) ([]models.Note, error)
	ListByTag(ctx context.Context, ownerID int, tag string) ([]models.Note, error)
	GetByID(ctx context.Context, ownerID, noteID int) (*models.Note, error)
	Update(ctx context.Context, ownerID, noteID int, title, content string, tags []string) (*models.Note, error)
	Delete(ctx context.Context, ownerID, noteID int) (*models.Note, error)
	TagByName(ctx context.Context, name string) (*models.Tag, error)
}

type Repository struct {
	Auth  Authorization
	Notes Notes
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Auth:  NewUserRepository(db),
		Notes: NewNoteRepository(db),
	}
}
