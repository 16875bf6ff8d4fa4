package handlers

import (
	"context"
	"net/http"

	"notes_service/internal/models"
	"notes_service/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerUser *models.User
	registerErr  error

	genTokenToken string
	genTokenErr   error

	parseSubject string
	parseErr     error

	userByName *models.User
	userByErr  error

	lastRegisterUsername string
	lastGenUsername      string
	lastGenPassword      string
	lastParseToken       string
	lastLookupUsername   string
}

func (m *mockAuth) Register(username, password string) (*models.User, error) {
	m.lastRegisterUsername = username
	return m.registerUser, m.registerErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseSubject, m.parseErr
}
func (m *mockAuth) UserByUsername(username string) (*models.User, error) {
	m.lastLookupUsername = username
	return m.userByName, m.userByErr
}

type mockNotes struct {
	note  *models.Note
	notes []models.Note
	err   error

	lastOwner int
	lastID    int
	lastTag   string
	lastInput service.NoteInput
}

func (m *mockNotes) Create(_ context.Context, ownerID int, in service.NoteInput) (*models.Note, error) {
	m.lastOwner = ownerID
	m.lastInput = in
	return m.note, m.err
}
func (m *mockNotes) List(_ context.Context, ownerID int, tag string) ([]models.Note, error) {
	m.lastOwner = ownerID
	m.lastTag = tag
	return m.notes, m.err
}
func (m *mockNotes) Get(_ context.Context, ownerID, noteID int) (*models.Note, error) {
	m.lastOwner = ownerID
	m.lastID = noteID
	return m.note, m.err
}
func (m *mockNotes) Update(_ context.Context, ownerID, noteID int, in service.NoteInput) (*models.Note, error) {
	m.lastOwner = ownerID
	m.lastID = noteID
	m.lastInput = in
	return m.note, m.err
}
func (m *mockNotes) Delete(_ context.Context, ownerID, noteID int) (*models.Note, error) {
	m.lastOwner = ownerID
	m.lastID = noteID
	return m.note, m.err
}
func (m *mockNotes) SearchByTag(_ context.Context, ownerID int, tag string) ([]models.Note, error) {
	m.lastOwner = ownerID
	m.lastTag = tag
	return m.notes, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

// authedServices wires a mockAuth that accepts any bearer token as user 1.
func authedServices(notes *mockNotes) *service.Service {
	return &service.Service{
		Authorization: &mockAuth{
			parseSubject: "alice",
			userByName:   &models.User{ID: 1, Username: "alice"},
		},
		Notes: notes,
	}
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
