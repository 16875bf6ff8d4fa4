package service

import (
	"context"
	"strings"

	"notes_service/internal/models"
	"notes_service/internal/repository"
)

// NotesService applies the owner-scoping and not-found policy on top of the
// repository. Listing with an unknown tag is ErrTagNotFound; a known tag with
// zero matches is an empty result.
type NotesService struct {
	notesRepo repository.Notes
}

func NewNotesService(repo repository.Notes) *NotesService {
	return &NotesService{notesRepo: repo}
}

func (s *NotesService) Create(ctx context.Context, ownerID int, in NoteInput) (*models.Note, error) {
	return s.notesRepo.Create(ctx, ownerID, in.Title, in.Content, in.Tags)
}

func (s *NotesService) List(ctx context.Context, ownerID int, tag string) ([]models.Note, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return s.notesRepo.List(ctx, ownerID)
	}

	t, err := s.notesRepo.TagByName(ctx, tag)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTagNotFound
	}
	return s.notesRepo.ListByTag(ctx, ownerID, tag)
}

func (s *NotesService) Get(ctx context.Context, ownerID, noteID int) (*models.Note, error) {
	note, err := s.notesRepo.GetByID(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (s *NotesService) Update(ctx context.Context, ownerID, noteID int, in NoteInput) (*models.Note, error) {
	note, err := s.notesRepo.Update(ctx, ownerID, noteID, in.Title, in.Content, in.Tags)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (s *NotesService) Delete(ctx context.Context, ownerID, noteID int) (*models.Note, error) {
	note, err := s.notesRepo.Delete(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

// SearchByTag returns the owner's notes for a tag name; unknown tag and zero
// matches are both an empty slice here, the handler decides what empty means.
func (s *NotesService) SearchByTag(ctx context.Context, ownerID int, tag string) ([]models.Note, error) {
	return s.notesRepo.ListByTag(ctx, ownerID, tag)
}
