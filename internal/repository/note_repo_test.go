package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockNoteRepo(t *testing.T) (*NoteRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := NewNoteRepository(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

func noteColumns() []string {
	return []string{"id", "title", "content", "created_at", "updated_at", "user_id"}
}

func tagColumns() []string {
	return []string{"id", "name"}
}

func TestNoteRepository_Create_SyncsTagsInOneTx(t *testing.T) {
	repo, mock, cleanup := newMockNoteRepo(t)
	defer cleanup()

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertNoteSQL)).
		WithArgs("T", "C", sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(5, 1))

	// note has no tags yet
	mock.ExpectQuery(regexp.QuoteMeta(selectTagsForNoteSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(tagColumns()))

	// additions processed in sorted order: "a" is created lazily, "b" is reused
	mock.ExpectQuery(regexp.QuoteMeta(selectTagByNameSQL)).
		WithArgs("a").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(insertTagSQL)).
		WithArgs("a").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta(attachTagSQL)).
		WithArgs(5, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta(selectTagByNameSQL)).
		WithArgs("b").
		WillReturnRows(sqlmock.NewRows(tagColumns()).AddRow(12, "b"))
	mock.ExpectExec(regexp.QuoteMeta(attachTagSQL)).
		WithArgs(5, 12).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// reload inside the same tx
	mock.ExpectQuery(regexp.QuoteMeta(selectNoteSQL)).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows(noteColumns()).AddRow(5, "T", "C", now, now, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectTagsForNoteSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(tagColumns()).AddRow(11, "a").AddRow(12, "b"))

	mock.ExpectCommit()

	// duplicate input name collapses to one
	note, err := repo.Create(context.Background(), 1, "T", "C", []string{"b", "a", "b"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if note.ID != 5 || note.Title != "T" {
		t.Fatalf("unexpected note: %+v", note)
	}
	if len(note.Tags) != 2 || note.Tags[0].Name != "a" || note.Tags[1].Name != "b" {
		t.Fatalf("unexpected tags: %+v", note.Tags)
	}
}

func TestNoteRepository_Update_ReplacesTagSet(t *testing.T) {
	repo, mock, cleanup := newMockNoteRepo(t)
	defer cleanup()

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateNoteSQL)).
		WithArgs("T2", "C2", sqlmock.AnyArg(), 5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// current tags {a, b}; desired {b, c} -> detach a, attach c
	mock.ExpectQuery(regexp.QuoteMeta(selectTagsForNoteSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(tagColumns()).AddRow(1, "a").AddRow(2, "b"))

	mock.ExpectExec(regexp.QuoteMeta(detachTagSQL)).
		WithArgs(5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta(selectTagByNameSQL)).
		WithArgs("c").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(insertTagSQL)).
		WithArgs("c").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta(attachTagSQL)).
		WithArgs(5, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta(selectNoteSQL)).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows(noteColumns()).AddRow(5, "T2", "C2", now, now, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectTagsForNoteSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(tagColumns()).AddRow(2, "b").AddRow(3, "c"))

	mock.ExpectCommit()

	note, err := repo.Update(context.Background(), 1, 5, "T2", "C2", []string{"b", "c"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if note.Title != "T2" || note.Content != "C2" {
		t.Fatalf("unexpected note: %+v", note)
	}
	if len(note.Tags) != 2 || note.Tags[0].Name != "b" || note.Tags[1].Name != "c" {
		t.Fatalf("unexpected tags: %+v", note.Tags)
	}
}

func TestNoteRepository_Update_NotOwnedIsNotFound(t *testing.T) {
	repo, mock, cleanup := newMockNoteRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateNoteSQL)).
		WithArgs("T", "C", sqlmock.AnyArg(), 9, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	note, err := repo.Update(context.Background(), 2, 9, "T", "C", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note != nil {
		t.Fatalf("expected nil note for foreign/missing id, got %+v", note)
	}
}

func TestNoteRepository_Delete_DetachesTagsKeepsTagRows(t *testing.T) {
	repo, mock, cleanup := newMockNoteRepo(t)
	defer cleanup()

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectNoteSQL)).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows(noteColumns()).AddRow(5, "T", "C", now, now, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectTagsForNoteSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(tagColumns()).AddRow(1, "a"))

	// only the relation rows go; no DELETE against tags
	mock.ExpectExec(regexp.QuoteMeta(detachAllTagsSQL)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteNoteSQL)).
		WithArgs(5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	note, err := repo.Delete(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if note == nil || note.ID != 5 {
		t.Fatalf("expected deleted note back, got %+v", note)
	}
}

func TestNoteRepository_GetByID_MissingIsNilNil(t *testing.T) {
	repo, mock, cleanup := newMockNoteRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectNoteSQL)).
		WithArgs(99, 1).
		WillReturnError(sql.ErrNoRows)

	note, err := repo.GetByID(context.Background(), 1, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note != nil {
		t.Fatalf("expected nil note, got %+v", note)
	}
}

func TestNoteRepository_ListByTag(t *testing.T) {
	repo, mock, cleanup := newMockNoteRepo(t)
	defer cleanup()

	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectNotesByTagSQL)).
		WithArgs(1, "work").
		WillReturnRows(sqlmock.NewRows(noteColumns()).AddRow(5, "T", "C", now, now, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectTagsForNoteSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(tagColumns()).AddRow(1, "work"))

	notes, err := repo.ListByTag(context.Background(), 1, "work")
	if err != nil {
		t.Fatalf("ListByTag returned error: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "T" || len(notes[0].Tags) != 1 {
		t.Fatalf("unexpected notes: %+v", notes)
	}
}

func TestNoteRepository_TagByName_MissingIsNilNil(t *testing.T) {
	repo, mock, cleanup := newMockNoteRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectTagByNameSQL)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	tag, err := repo.TagByName(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != nil {
		t.Fatalf("expected nil tag, got %+v", tag)
	}
}
