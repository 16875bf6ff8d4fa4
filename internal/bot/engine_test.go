package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// mockAPI is an in-test mock for the notes service client.
type mockAPI struct {
	LoginFn      func(username, password string) (string, error)
	CreateNoteFn func(token, title, content string, tags []string) error
	SearchFn     func(token, tag string) ([]NoteView, error)
}

func (m *mockAPI) Login(_ context.Context, username, password string) (string, error) {
	return m.LoginFn(username, password)
}
func (m *mockAPI) CreateNote(_ context.Context, token, title, content string, tags []string) error {
	return m.CreateNoteFn(token, title, content, tags)
}
func (m *mockAPI) SearchNotes(_ context.Context, token, tag string) ([]NoteView, error) {
	return m.SearchFn(token, tag)
}

func newTestEngine(api API) *Engine {
	return NewEngine(NewMemorySessionStore(), api, nil)
}

func say(t *testing.T, e *Engine, chatID, text string) string {
	t.Helper()
	return e.HandleMessage(context.Background(), chatID, text)
}

func signIn(t *testing.T, e *Engine, chatID string) {
	t.Helper()
	say(t, e, chatID, "/start")
	say(t, e, chatID, "alice")
	if got := say(t, e, chatID, "secret123"); got != replyLoggedIn {
		t.Fatalf("sign-in failed, reply: %q", got)
	}
}

func TestEngine_LoginFlow(t *testing.T) {
	var gotUser, gotPass string
	api := &mockAPI{
		LoginFn: func(username, password string) (string, error) {
			gotUser, gotPass = username, password
			return "tok123", nil
		},
	}
	e := newTestEngine(api)

	if got := say(t, e, "chat1", "/start"); got != replyAskUsername {
		t.Fatalf("expected username prompt, got %q", got)
	}
	if got := say(t, e, "chat1", "alice"); got != replyAskPassword {
		t.Fatalf("expected password prompt, got %q", got)
	}
	if got := say(t, e, "chat1", "secret123"); got != replyLoggedIn {
		t.Fatalf("expected logged-in reply, got %q", got)
	}
	if gotUser != "alice" || gotPass != "secret123" {
		t.Fatalf("credentials not forwarded: %q/%q", gotUser, gotPass)
	}

	// token survives in the session: create is now allowed to start
	if got := say(t, e, "chat1", "/create_note"); got != replyAskTitle {
		t.Fatalf("expected title prompt after login, got %q", got)
	}
}

func TestEngine_LoginFailure(t *testing.T) {
	api := &mockAPI{
		LoginFn: func(username, password string) (string, error) {
			return "", errors.New("401")
		},
	}
	e := newTestEngine(api)

	say(t, e, "chat1", "/start")
	say(t, e, "chat1", "alice")
	if got := say(t, e, "chat1", "nope"); got != replyBadLogin {
		t.Fatalf("expected bad-login reply, got %q", got)
	}

	// still unauthenticated
	if got := say(t, e, "chat1", "/create_note"); got != replyNeedLogin {
		t.Fatalf("expected need-login reply, got %q", got)
	}
}

func TestEngine_CreateNoteFlow(t *testing.T) {
	var gotToken, gotTitle, gotContent string
	var gotTags []string
	api := &mockAPI{
		LoginFn: func(username, password string) (string, error) { return "tok123", nil },
		CreateNoteFn: func(token, title, content string, tags []string) error {
			gotToken, gotTitle, gotContent, gotTags = token, title, content, tags
			return nil
		},
	}
	e := newTestEngine(api)
	signIn(t, e, "chat1")

	if got := say(t, e, "chat1", "/create_note"); got != replyAskTitle {
		t.Fatalf("expected title prompt, got %q", got)
	}
	if got := say(t, e, "chat1", "T"); got != replyAskContent {
		t.Fatalf("expected content prompt, got %q", got)
	}
	if got := say(t, e, "chat1", "C"); got != replyAskTags {
		t.Fatalf("expected tags prompt, got %q", got)
	}
	if got := say(t, e, "chat1", "work, urgent ,work"); got != replyNoteCreated {
		t.Fatalf("expected created reply, got %q", got)
	}

	if gotToken != "tok123" || gotTitle != "T" || gotContent != "C" {
		t.Fatalf("note fields not forwarded: %q %q %q", gotToken, gotTitle, gotContent)
	}
	if len(gotTags) != 2 || gotTags[0] != "work" || gotTags[1] != "urgent" {
		t.Fatalf("expected deduplicated trimmed tags, got %v", gotTags)
	}
}

func TestEngine_SearchFlow(t *testing.T) {
	api := &mockAPI{
		LoginFn: func(username, password string) (string, error) { return "tok123", nil },
		SearchFn: func(token, tag string) ([]NoteView, error) {
			if tag != "work" {
				t.Fatalf("expected tag 'work', got %q", tag)
			}
			return []NoteView{{ID: 3, Title: "T", Content: "C"}}, nil
		},
	}
	e := newTestEngine(api)
	signIn(t, e, "chat1")

	if got := say(t, e, "chat1", "/search_notes"); got != replyAskSearchTag {
		t.Fatalf("expected search prompt, got %q", got)
	}
	got := say(t, e, "chat1", "work")
	if !strings.Contains(got, "Note 3: T - C") {
		t.Fatalf("unexpected search reply: %q", got)
	}
}

func TestEngine_SearchNoMatches(t *testing.T) {
	api := &mockAPI{
		LoginFn:  func(username, password string) (string, error) { return "tok123", nil },
		SearchFn: func(token, tag string) ([]NoteView, error) { return nil, nil },
	}
	e := newTestEngine(api)
	signIn(t, e, "chat1")

	say(t, e, "chat1", "/search_notes")
	if got := say(t, e, "chat1", "ghost"); got != replyNoMatches {
		t.Fatalf("expected no-matches reply, got %q", got)
	}
}

func TestEngine_CancelAbortsDraft(t *testing.T) {
	api := &mockAPI{
		LoginFn: func(username, password string) (string, error) { return "tok123", nil },
		CreateNoteFn: func(token, title, content string, tags []string) error {
			t.Fatal("CreateNote should not be called after /cancel")
			return nil
		},
	}
	e := newTestEngine(api)
	signIn(t, e, "chat1")

	say(t, e, "chat1", "/create_note")
	say(t, e, "chat1", "T")
	if got := say(t, e, "chat1", "/cancel"); got != replyCancelled {
		t.Fatalf("expected cancelled reply, got %q", got)
	}
	// next plain message is idle chatter, not a content answer
	if got := say(t, e, "chat1", "hello"); got != replyHelp {
		t.Fatalf("expected help reply, got %q", got)
	}
}

func TestEngine_StartDropsPreviousToken(t *testing.T) {
	api := &mockAPI{
		LoginFn: func(username, password string) (string, error) { return "tok123", nil },
	}
	e := newTestEngine(api)
	signIn(t, e, "chat1")

	// re-running /start and bailing out must not keep the old identity
	say(t, e, "chat1", "/start")
	say(t, e, "chat1", "/cancel")

	if got := say(t, e, "chat1", "/create_note"); got != replyNeedLogin {
		t.Fatalf("expected need-login after aborted re-auth, got %q", got)
	}
}

func TestEngine_SessionsAreIsolatedPerChat(t *testing.T) {
	api := &mockAPI{
		LoginFn: func(username, password string) (string, error) { return "tok123", nil },
	}
	e := newTestEngine(api)
	signIn(t, e, "chat1")

	// a different chat has no token
	if got := say(t, e, "chat2", "/create_note"); got != replyNeedLogin {
		t.Fatalf("expected need-login for fresh chat, got %q", got)
	}
}

func TestMemorySessionStore_RoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	got, err := store.Load(ctx, "chat1")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) for fresh chat, got %v, %v", got, err)
	}

	sess := &Session{ChatID: "chat1", State: StateAwaitingPassword, Username: "alice"}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err = store.Load(ctx, "chat1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.State != StateAwaitingPassword || got.Username != "alice" {
		t.Fatalf("unexpected session: %+v", got)
	}

	// loaded sessions are copies, not aliases
	got.Username = "mallory"
	again, _ := store.Load(ctx, "chat1")
	if again.Username != "alice" {
		t.Fatalf("store leaked a mutable reference")
	}

	if err := store.Clear(ctx, "chat1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	got, _ = store.Load(ctx, "chat1")
	if got != nil {
		t.Fatalf("expected nil after clear, got %+v", got)
	}
}
