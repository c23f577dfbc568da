// Package client is a typed Go client for the Retrueque wire API. It is what
// the terminal chat client and the poller talk through.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retrueque/internal/chat"
	"github.com/retrueque/internal/users"
)

// APIError is a non-2xx response from the server, surfaced unmodified.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Client talks JSON over HTTP to a Retrueque server
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given server base URL (for example
// http://localhost:3000). Every call carries the client's ambient timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// do performs one request. A uuid correlation id is attached so client calls
// can be matched to server request logs.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

type resolveChatRequest struct {
	UserAID int64  `json:"userAId"`
	UserBID int64  `json:"userBId"`
	ItemID  *int64 `json:"itemId,omitempty"`
}

// ResolveOrCreate finds or creates the chat for a participant pair and
// optional subject item.
func (c *Client) ResolveOrCreate(ctx context.Context, userA, userB int64, itemID *int64) (*chat.Chat, error) {
	req := resolveChatRequest{UserAID: userA, UserBID: userB, ItemID: itemID}
	out := &chat.Chat{}
	if err := c.do(ctx, http.MethodPost, "/api/chats", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUser returns the user's conversations, most recently active first.
func (c *Client) ListForUser(ctx context.Context, userID int64) ([]chat.ChatSummary, error) {
	var out []chat.ChatSummary
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/chats/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns a chat's messages oldest first.
func (c *Client) ListMessages(ctx context.Context, chatID int64) ([]chat.Message, error) {
	var out []chat.Message
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/chats/messages/%d", chatID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type sendMessageRequest struct {
	ChatID   int64  `json:"chatId"`
	SenderID int64  `json:"senderId"`
	Content  string `json:"content"`
}

// AppendMessage sends a message into a chat.
func (c *Client) AppendMessage(ctx context.Context, chatID, senderID int64, content string) (*chat.Message, error) {
	req := sendMessageRequest{ChatID: chatID, SenderID: senderID, Content: content}
	out := &chat.Message{}
	if err := c.do(ctx, http.MethodPost, "/api/messages", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool        `json:"success"`
	User    *users.User `json:"user"`
}

// Login checks credentials and returns the account profile.
func (c *Client) Login(ctx context.Context, email, password string) (*users.User, error) {
	out := &authResponse{}
	if err := c.do(ctx, http.MethodPost, "/api/login", loginRequest{Email: email, Password: password}, out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// UnseenNotifications returns the user's unread notification count.
func (c *Client) UnseenNotifications(ctx context.Context, userID int64) (int, error) {
	var out struct {
		Unseen int `json:"unseen"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/notifications/%d", userID), nil, &out); err != nil {
		return 0, err
	}
	return out.Unseen, nil
}
