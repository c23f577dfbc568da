// Package poller implements the client-side delivery loop: while a
// conversation is open its messages are re-fetched on a fixed interval, and
// at most one interval timer exists across the whole session. Closing the
// view stops the timer synchronously; a fetch already in flight may finish
// but its result is discarded unless the conversation is still the active
// one.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/retrueque/internal/chat"
)

// ErrNoActiveChat is returned by Send when no conversation is open.
var ErrNoActiveChat = errors.New("no active chat")

// Fetcher is the slice of the wire API the poller drives.
// *client.Client satisfies it.
type Fetcher interface {
	ListMessages(ctx context.Context, chatID int64) ([]chat.Message, error)
	ListForUser(ctx context.Context, userID int64) ([]chat.ChatSummary, error)
	AppendMessage(ctx context.Context, chatID, senderID int64, content string) (*chat.Message, error)
}

// View renders fetched state. Implementations own the input widget and any
// error toasts; the poller never retries on their behalf.
type View interface {
	ShowMessages(chatID int64, messages []chat.Message)
	ShowChats(chats []chat.ChatSummary)
	ClearInput()
	Notify(err error)
}

// Session owns the client-side mutable chat state: the current user, the
// currently open conversation and the single active poll timer.
type Session struct {
	userID   int64
	api      Fetcher
	view     View
	interval time.Duration

	mu         sync.Mutex
	activeChat int64
	cancel     context.CancelFunc
}

// NewSession creates a session for userID polling at the given interval.
func NewSession(userID int64, api Fetcher, view View, interval time.Duration) *Session {
	if interval <= 0 {
		interval = time.Second
	}
	return &Session{
		userID:   userID,
		api:      api,
		view:     view,
		interval: interval,
	}
}

// UserID returns the session's user.
func (s *Session) UserID() int64 {
	return s.userID
}

// ActiveChat returns the open conversation id, or 0 when closed.
func (s *Session) ActiveChat() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeChat
}

// Open makes chatID the active conversation: any previous timer is cancelled
// first, messages are fetched once immediately, then again on every tick
// until Close or the next Open.
func (s *Session) Open(chatID int64) {
	s.mu.Lock()
	s.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.activeChat = chatID
	s.cancel = cancel
	s.mu.Unlock()

	go s.poll(ctx, chatID)
}

// Close stops polling. The timer is cancelled before Close returns; any
// fetch still in flight is discarded by the staleness guard.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.activeChat = 0
}

func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) poll(ctx context.Context, chatID int64) {
	s.fetchMessages(ctx, chatID)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchMessages(ctx, chatID)
		}
	}
}

// fetchMessages pulls the history once and applies it only if chatID is
// still the active conversation when the fetch completes.
func (s *Session) fetchMessages(ctx context.Context, chatID int64) {
	messages, err := s.api.ListMessages(ctx, chatID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.view.Notify(err)
		return
	}

	s.mu.Lock()
	stale := s.activeChat != chatID
	s.mu.Unlock()
	if stale {
		return
	}

	s.view.ShowMessages(chatID, messages)
}

// RefreshChats fetches the conversation list on demand.
func (s *Session) RefreshChats(ctx context.Context) {
	chats, err := s.api.ListForUser(ctx, s.userID)
	if err != nil {
		s.view.Notify(err)
		return
	}
	s.view.ShowChats(chats)
}

// Send appends a message to the active conversation. The input is cleared
// optimistically; on success both the history and the conversation list are
// refreshed immediately rather than waiting for the next tick. On failure
// the error is reported and no state changes.
func (s *Session) Send(ctx context.Context, content string) error {
	s.mu.Lock()
	chatID := s.activeChat
	s.mu.Unlock()
	if chatID == 0 {
		return ErrNoActiveChat
	}

	s.view.ClearInput()

	if _, err := s.api.AppendMessage(ctx, chatID, s.userID, content); err != nil {
		s.view.Notify(err)
		return err
	}

	s.fetchMessages(ctx, chatID)
	s.RefreshChats(ctx)
	return nil
}
