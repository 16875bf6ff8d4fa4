package handlers

import (
	"errors"
	"net/http"

	"notes_service/internal/service"

	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Register user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Credentials"
// @Success      201   {object}  map[string]interface{}  "id, username"
// @Failure      400   {object}  map[string]string
// @Router       /users/ [post]
func (h *Handler) createUser(c *gin.Context) {
	var input createUserRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	user, err := h.services.Register(input.Username, input.Password)
	if err != nil {
		// caller mistakes are 400; anything else stays opaque
		if errors.Is(err, service.ErrUsernameTaken) || errors.Is(err, service.ErrEmptyCredentials) {
			if h.log != nil {
				h.log.Infow("user_register_rejected", "username", input.Username, "err", err)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to register user", "user_register_failed", err, "username", input.Username)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

// @Summary      Issue bearer token
// @Description  Form-encoded username+password exchange.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "Username"
// @Param        password  formData  string  true  "Password"
// @Success      200  {object}  map[string]string  "access_token, token_type"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /token [post]
func (h *Handler) issueToken(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.services.GenerateToken(username, password)
	if err != nil {
		if h.log != nil && !errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Errorw("token_issue_failed", "err", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}
