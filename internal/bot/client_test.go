package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/token" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok123",
			"token_type":   "bearer",
		})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL)

	token, err := c.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token != "tok123" {
		t.Fatalf("expected tok123, got %q", token)
	}

	if _, err := c.Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatalf("expected error for rejected login")
	}
}

func TestAPIClient_CreateNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notes/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var body struct {
			Title   string   `json:"title"`
			Content string   `json:"content"`
			Tags    []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Title != "T" || len(body.Tags) != 2 {
			t.Fatalf("unexpected body: %+v", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL)
	if err := c.CreateNote(context.Background(), "tok123", "T", "C", []string{"work", "urgent"}); err != nil {
		t.Fatalf("CreateNote returned error: %v", err)
	}
}

func TestAPIClient_SearchNotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		switch r.URL.Query().Get("tag") {
		case "work":
			_ = json.NewEncoder(w).Encode([]NoteView{{ID: 3, Title: "T", Content: "C"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL)

	notes, err := c.SearchNotes(context.Background(), "tok", "work")
	if err != nil {
		t.Fatalf("SearchNotes returned error: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != 3 {
		t.Fatalf("unexpected notes: %+v", notes)
	}

	// a 404 means no matches, not a failure
	notes, err = c.SearchNotes(context.Background(), "tok", "ghost")
	if err != nil {
		t.Fatalf("expected nil error for 404, got %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected no notes, got %+v", notes)
	}
}
