package bot

import (
	"context"
	"fmt"
	"strings"

	"notes_service/internal/logger"
)

// Engine drives the chat conversation. Each inbound message loads the chat's
// session record, transitions the state machine once, saves the session and
// returns the reply text. Nothing is held between calls.
type Engine struct {
	sessions SessionStore
	api      API
	log      *logger.Logger
}

func NewEngine(sessions SessionStore, api API, log *logger.Logger) *Engine {
	return &Engine{sessions: sessions, api: api, log: log}
}

const (
	replyHelp         = "Commands: /start - sign in, /create_note - create a note, /search_notes - search notes by tag, /cancel - abort."
	replyAskUsername  = "Enter your username:"
	replyAskPassword  = "Enter your password:"
	replyLoggedIn     = "You are signed in. Commands:\n/create_note - create a note\n/search_notes - search notes by tag"
	replyBadLogin     = "Wrong username or password."
	replyNeedLogin    = "Sign in first with /start."
	replyAskTitle     = "Enter the note title:"
	replyAskContent   = "Enter the note content:"
	replyAskTags      = "Enter the note tags (comma-separated):"
	replyNoteCreated  = "Note created."
	replyNoteFailed   = "Could not create the note."
	replyAskSearchTag = "Enter a tag to search for:"
	replySearchFailed = "Could not search notes."
	replyNoMatches    = "No notes with that tag."
	replyCancelled    = "Cancelled."
	replySomethingOff = "Something went wrong, try again."
)

// HandleMessage processes one user message for the given chat and returns
// the bot's reply.
func (e *Engine) HandleMessage(ctx context.Context, chatID, text string) string {
	text = strings.TrimSpace(text)

	sess, err := e.sessions.Load(ctx, chatID)
	if err != nil {
		if e.log != nil {
			e.log.Errorw("chat_session_load_failed", "chat_id", chatID, "err", err)
		}
		return replySomethingOff
	}
	if sess == nil {
		sess = &Session{ChatID: chatID, State: StateIdle}
	}

	reply := e.transition(ctx, sess, text)

	if err := e.sessions.Save(ctx, sess); err != nil {
		if e.log != nil {
			e.log.Errorw("chat_session_save_failed", "chat_id", chatID, "err", err)
		}
		return replySomethingOff
	}
	return reply
}

// transition mutates the session in place and returns the reply.
func (e *Engine) transition(ctx context.Context, sess *Session, text string) string {
	// Commands interrupt whatever was being collected.
	switch text {
	case "/start":
		// a fresh sign-in drops the previous identity entirely
		sess.State = StateAwaitingUsername
		sess.Username = ""
		sess.Token = ""
		sess.Draft = NoteDraft{}
		return replyAskUsername
	case "/cancel":
		sess.State = StateIdle
		sess.Draft = NoteDraft{}
		return replyCancelled
	case "/create_note":
		if sess.Token == "" {
			return replyNeedLogin
		}
		sess.State = StateAwaitingTitle
		sess.Draft = NoteDraft{}
		return replyAskTitle
	case "/search_notes":
		if sess.Token == "" {
			return replyNeedLogin
		}
		sess.State = StateAwaitingSearchTag
		return replyAskSearchTag
	}

	switch sess.State {
	case StateAwaitingUsername:
		sess.Username = text
		sess.State = StateAwaitingPassword
		return replyAskPassword

	case StateAwaitingPassword:
		sess.State = StateIdle
		token, err := e.api.Login(ctx, sess.Username, text)
		if err != nil {
			if e.log != nil {
				e.log.Infow("chat_login_failed", "chat_id", sess.ChatID, "err", err)
			}
			return replyBadLogin
		}
		sess.Token = token
		return replyLoggedIn

	case StateAwaitingTitle:
		sess.Draft.Title = text
		sess.State = StateAwaitingContent
		return replyAskContent

	case StateAwaitingContent:
		sess.Draft.Content = text
		sess.State = StateAwaitingTags
		return replyAskTags

	case StateAwaitingTags:
		tags := splitTags(text)
		draft := sess.Draft
		sess.State = StateIdle
		sess.Draft = NoteDraft{}
		if err := e.api.CreateNote(ctx, sess.Token, draft.Title, draft.Content, tags); err != nil {
			if e.log != nil {
				e.log.Infow("chat_create_note_failed", "chat_id", sess.ChatID, "err", err)
			}
			return replyNoteFailed
		}
		return replyNoteCreated

	case StateAwaitingSearchTag:
		sess.State = StateIdle
		notes, err := e.api.SearchNotes(ctx, sess.Token, text)
		if err != nil {
			if e.log != nil {
				e.log.Infow("chat_search_failed", "chat_id", sess.ChatID, "err", err)
			}
			return replySearchFailed
		}
		if len(notes) == 0 {
			return replyNoMatches
		}
		lines := make([]string, 0, len(notes))
		for _, n := range notes {
			lines = append(lines, fmt.Sprintf("Note %d: %s - %s", n.ID, n.Title, n.Content))
		}
		return strings.Join(lines, "\n")
	}

	return replyHelp
}

// splitTags turns "work, urgent ,work" into {"work","urgent"} order-preserving.
func splitTags(text string) []string {
	parts := strings.Split(text, ",")
	seen := make(map[string]bool, len(parts))
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		tags = append(tags, p)
	}
	return tags
}
