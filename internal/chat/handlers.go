package chat

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Service is the chat API consumed by the HTTP handlers. *ChatService is the
// production implementation.
type Service interface {
	ResolveOrCreate(ctx context.Context, userA, userB int64, itemID *int64) (*Chat, error)
	ListForUser(ctx context.Context, userID int64) ([]ChatSummary, error)
	AppendMessage(ctx context.Context, chatID, senderID int64, content string) (*Message, error)
	ListMessages(ctx context.Context, chatID int64) ([]Message, error)
	UnseenNotificationCount(ctx context.Context, userID int64) (int, error)
}

// Handlers contains the chat HTTP handler methods
type Handlers struct {
	service Service
}

// NewHandlers creates a new chat handlers instance
func NewHandlers(service Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the chat endpoints on an API group
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/chats", h.ResolveChat)
	g.GET("/chats/:userId", h.ListChats)
	g.GET("/chats/messages/:chatId", h.ListMessages)
	g.POST("/messages", h.SendMessage)
	g.GET("/notifications/:userId", h.NotificationCount)
}

// ResolveChatRequest is the find-or-create request for a conversation
type ResolveChatRequest struct {
	UserAID int64  `json:"userAId" validate:"required"`
	UserBID int64  `json:"userBId" validate:"required"`
	ItemID  *int64 `json:"itemId,omitempty"`
}

// SendMessageRequest is the append-message request
type SendMessageRequest struct {
	ChatID   int64  `json:"chatId" validate:"required"`
	SenderID int64  `json:"senderId" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// ResolveChat handles POST /chats: returns the unique chat for a participant
// pair and optional item, creating it on first request.
func (h *Handlers) ResolveChat(c echo.Context) error {
	var req ResolveChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user IDs")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user IDs")
	}

	chat, err := h.service.ResolveOrCreate(c.Request().Context(), req.UserAID, req.UserBID, req.ItemID)
	if err != nil {
		return httpError(err, "Error creating/getting chat")
	}

	return c.JSON(http.StatusOK, chat)
}

// ListChats handles GET /chats/:userId
func (h *Handlers) ListChats(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	chats, err := h.service.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err, "Error fetching chats")
	}

	return c.JSON(http.StatusOK, chats)
}

// ListMessages handles GET /chats/messages/:chatId
func (h *Handlers) ListMessages(c echo.Context) error {
	chatID, err := strconv.ParseInt(c.Param("chatId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid chat ID")
	}

	messages, err := h.service.ListMessages(c.Request().Context(), chatID)
	if err != nil {
		return httpError(err, "Error fetching messages")
	}

	return c.JSON(http.StatusOK, messages)
}

// SendMessage handles POST /messages
func (h *Handlers) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	msg, err := h.service.AppendMessage(c.Request().Context(), req.ChatID, req.SenderID, req.Content)
	if err != nil {
		return httpError(err, "Error sending message")
	}

	return c.JSON(http.StatusOK, msg)
}

// NotificationCount handles GET /notifications/:userId
func (h *Handlers) NotificationCount(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	count, err := h.service.UnseenNotificationCount(c.Request().Context(), userID)
	if err != nil {
		return httpError(err, "Error fetching notifications")
	}

	return c.JSON(http.StatusOK, map[string]int{"unseen": count})
}

// httpError maps chat errors to HTTP status codes. Storage failures map to
// 500 with a generic message; callers see the taxonomy, not driver internals.
func httpError(err error, fallback string) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidParticipant), errors.Is(err, ErrEmptyContent):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrChatNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotParticipant):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
