package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NoteView is the slice of a note the chat front end shows.
type NoteView struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// API is what the conversation engine needs from the notes service.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	CreateNote(ctx context.Context, token, title, content string, tags []string) error
	SearchNotes(ctx context.Context, token, tag string) ([]NoteView, error)
}

// APIClient proxies to the notes service over HTTP, the same surface any
// external caller uses.
type APIClient struct {
	baseURL string
	http    *http.Client
}

const clientTimeout = 10 * time.Second

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: clientTimeout},
	}
}

var _ API = (*APIClient)(nil)

// Login exchanges credentials for a bearer token via the form-encoded
// POST /token endpoint.
func (c *APIClient) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	return out.AccessToken, nil
}

// CreateNote posts a new note with its full tag set.
func (c *APIClient) CreateNote(ctx context.Context, token, title, content string, tags []string) error {
	payload := struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}{Title: title, Content: content, Tags: tags}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode note payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notes/",
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create note request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create note failed: status %d", resp.StatusCode)
	}
	return nil
}

// SearchNotes lists the caller's notes carrying the given tag. A 404 from the
// service means no matches and yields an empty slice, not an error.
func (c *APIClient) SearchNotes(ctx context.Context, token, tag string) ([]NoteView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?tag="+url.QueryEscape(tag), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	var notes []NoteView
	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return notes, nil
}
