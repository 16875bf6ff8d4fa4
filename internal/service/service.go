package service

import (
	"context"
	"time"

	"notes_service/internal/models"
	"notes_service/internal/repository"
)

type Authorization interface {
	Register(username, password string) (*models.User, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
	UserByUsername(username string) (*models.User, error)
}

// Notes exposes owner-scoped note operations with the full tag-replacement
// semantics: every create/update carries the complete desired tag set.
type Notes interface {
	Create(ctx context.Context, ownerID int, in NoteInput) (*models.Note, error)
	List(ctx context.Context, ownerID int, tag string) ([]models.Note, error)
	Get(ctx context.Context, ownerID, noteID int) (*models.Note, error)
	Update(ctx context.Context, ownerID, noteID int, in NoteInput) (*models.Note, error)
	Delete(ctx context.Context, ownerID, noteID int) (*models.Note, error)
	SearchByTag(ctx context.Context, ownerID int, tag string) ([]models.Note, error)
}

// NoteInput is the full-replacement payload for create and update.
type NoteInput struct {
	Title   string
	Content string
	Tags    []string
}

// AuthConfig carries the token signing material from configuration.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

type Service struct {
	Authorization
	Notes
}

func NewService(repos *repository.Repository, authCfg AuthConfig) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Auth, authCfg),
		Notes:         NewNotesService(repos.Notes),
	}
}
