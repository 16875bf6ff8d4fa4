package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"notes_service/internal/service"

	"github.com/gin-gonic/gin"
)

// noteRequest is the full-replacement body used by create and update: every
// field is applied as-is, so callers resend unchanged fields too.
type noteRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags"`
}

const (
	errLoadNotes  = "failed to load notes"
	errSaveNote   = "failed to save note"
	errDeleteNote = "failed to delete note"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// noteIDParam parses the :id path segment; replies 400 and returns false on garbage.
func (h *Handler) noteIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note id"})
		return 0, false
	}
	return id, true
}

// @Summary      Create note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        body  body      noteRequest  true  "Note payload with full tag set"
// @Success      201   {object}  models.Note
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /notes/ [post]
// @Security     BearerAuth
func (h *Handler) createNote(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}

	var req noteRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	note, err := h.services.Notes.Create(c.Request.Context(), owner, service.NoteInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveNote, "note_create_failed", err)
		return
	}

	c.JSON(http.StatusCreated, note)
}

// @Summary      List notes
// @Description  All notes of the caller; with ?tag= only notes carrying that tag. Unknown tag is 404, a known tag with no matches is an empty list.
// @Tags         notes
// @Produce      json
// @Param        tag  query     string  false  "Exact tag name"
// @Success      200  {array}   models.Note
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /notes/ [get]
// @Security     BearerAuth
func (h *Handler) listNotes(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}

	notes, err := h.services.Notes.List(c.Request.Context(), owner, c.Query("tag"))
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadNotes, "notes_list_failed", err, "tag", c.Query("tag"))
		return
	}

	c.JSON(http.StatusOK, notes)
}

// @Summary      Get note
// @Tags         notes
// @Produce      json
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  models.Note
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notes/{id} [get]
// @Security     BearerAuth
func (h *Handler) getNote(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}
	id, ok := h.noteIDParam(c)
	if !ok {
		return
	}

	note, err := h.services.Notes.Get(c.Request.Context(), owner, id)
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadNotes, "note_get_failed", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, note)
}

// @Summary      Update note
// @Description  Full replacement: title, content and tag set are all overwritten.
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Note ID"
// @Param        body  body      noteRequest  true  "Replacement payload"
// @Success      200   {object}  models.Note
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /notes/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateNote(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}
	id, ok := h.noteIDParam(c)
	if !ok {
		return
	}

	var req noteRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	note, err := h.services.Notes.Update(c.Request.Context(), owner, id, service.NoteInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveNote, "note_update_failed", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, note)
}

// @Summary      Delete note
// @Description  Removes the note and its tag associations; tag rows survive.
// @Tags         notes
// @Produce      json
// @Param        id   path      int  true  "Note ID"
// @Success      200  {object}  models.Note  "the deleted note"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notes/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteNote(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}
	id, ok := h.noteIDParam(c)
	if !ok {
		return
	}

	note, err := h.services.Notes.Delete(c.Request.Context(), owner, id)
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errDeleteNote, "note_delete_failed", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, note)
}

// @Summary      Search notes by tag
// @Description  Matching notes of the caller; no matches (unknown tag included) is 404.
// @Tags         notes
// @Produce      json
// @Param        tag  query     string  true  "Exact tag name"
// @Success      200  {array}   models.Note
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /search [get]
// @Security     BearerAuth
func (h *Handler) searchNotes(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}

	tag := c.Query("tag")
	if tag == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag query parameter is required"})
		return
	}

	notes, err := h.services.Notes.SearchByTag(c.Request.Context(), owner, tag)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadNotes, "notes_search_failed", err, "tag", tag)
		return
	}
	if len(notes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no notes found for the given tag"})
		return
	}

	c.JSON(http.StatusOK, notes)
}
