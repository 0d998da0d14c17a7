// Package api exposes the REST surface of the chat backend over gin.
package api

import (
	"dm-chat/auth"
	"dm-chat/errors"
	"dm-chat/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCounter reports how many realtime sessions are live.
type SessionCounter interface {
	Count() int
}

type Handler struct {
	auth      services.IAuthService
	profiles  services.IProfileService
	contacts  services.IContactService
	messages  services.IMessageService
	sessions  SessionCounter
	cookieTTL time.Duration
	cookie    auth.CookieOptions
	log       *slog.Logger
}

func NewHandler(
	authService services.IAuthService,
	profiles services.IProfileService,
	contacts services.IContactService,
	messages services.IMessageService,
	sessions SessionCounter,
	cookieTTL time.Duration,
	cookie auth.CookieOptions,
	log *slog.Logger,
) *Handler {
	return &Handler{
		auth:      authService,
		profiles:  profiles,
		contacts:  contacts,
		messages:  messages,
		sessions:  sessions,
		cookieTTL: cookieTTL,
		cookie:    cookie,
		log:       log,
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	user, token, err := h.auth.Signup(c.Request.Context(), creds)
	if err != nil {
		h.respondError(c, err)
		return
	}

	http.SetCookie(c.Writer, auth.NewTokenCookie(token, h.cookieTTL, h.cookie))
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    toUserResponse(user),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing email or password"})
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), creds)
	if err != nil {
		h.respondError(c, err)
		return
	}

	http.SetCookie(c.Writer, auth.NewTokenCookie(token, h.cookieTTL, h.cookie))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    toUserResponse(user),
	})
}

// Logout only clears the cookie, tokens are stateless.
func (h *Handler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, auth.NewTokenCookie("", 0, h.cookie))
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *Handler) UserInfo(c *gin.Context) {
	user, err := h.profiles.UserInfo(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var body auth.ProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	user, err := h.profiles.UpdateProfile(c.Request.Context(), auth.Email(c), body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile successfully updated",
		"user":    toUserResponse(user),
	})
}

func (h *Handler) SearchContacts(c *gin.Context) {
	var body SearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Search query is required"})
		return
	}

	contacts, err := h.contacts.Search(c.Request.Context(), auth.UserID(c), body.SearchTerm)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": toContacts(contacts)})
}

func (h *Handler) AllContacts(c *gin.Context) {
	contacts, err := h.contacts.All(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": toContacts(contacts)})
}

func (h *Handler) DeleteDM(c *gin.Context) {
	deleted, err := h.contacts.DeleteDM(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "DM deleted successfully",
		"deleted": deleted,
	})
}

func (h *Handler) GetMessages(c *gin.Context) {
	var body ConversationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing contact id"})
		return
	}

	messages, err := h.messages.GetMessages(c.Request.Context(), auth.UserID(c), body.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": toMessages(messages)})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.sessions.Count(),
	})
}

// respondError maps the error taxonomy to a status. Server faults are logged
// and hidden behind a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"user_id", auth.UserID(c),
			"error", err)
		c.JSON(status, gin.H{"message": "Server or database issue"})
		return
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.JSON(status, gin.H{"message": auth.RejectionMessage(err)})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
