package chat

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Notifier delivers a "new message" notification to a recipient out of band.
// Delivery is best effort: a notification failure never fails the send.
type Notifier interface {
	NotifyMessage(ctx context.Context, chatID, messageID, recipientID int64) error
}

// ChatService implements the chat core: conversation identity resolution,
// message appends and ordered reads.
type ChatService struct {
	repo     *ChatRepo
	notifier Notifier

	// Per-sender token buckets for message appends.
	mu        sync.Mutex
	limiters  map[int64]*rate.Limiter
	sendRate  rate.Limit
	sendBurst int
}

// NewChatService creates a new chat service. notifier may be nil when no
// notification backend is running (tests, seed). sendRatePerMinute caps how
// many messages a single sender can append per minute.
func NewChatService(db *sql.DB, notifier Notifier, sendRatePerMinute int) *ChatService {
	if sendRatePerMinute <= 0 {
		sendRatePerMinute = 60
	}
	return &ChatService{
		repo:      NewChatRepo(db),
		notifier:  notifier,
		limiters:  make(map[int64]*rate.Limiter),
		sendRate:  rate.Limit(float64(sendRatePerMinute) / 60.0),
		sendBurst: sendRatePerMinute,
	}
}

func (s *ChatService) limiterFor(senderID int64) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.limiters[senderID]
	if !ok {
		lim = rate.NewLimiter(s.sendRate, s.sendBurst)
		s.limiters[senderID] = lim
	}
	return lim
}

// ResolveOrCreate returns the single chat for an unordered participant pair
// and optional subject item, creating it when absent. The call is idempotent
// and symmetric in the participants: (a, b) and (b, a) resolve to the same
// chat. Two chats between the same pair about different items (or one with no
// item) are distinct.
func (s *ChatService) ResolveOrCreate(ctx context.Context, userA, userB int64, itemID *int64) (*Chat, error) {
	if userA <= 0 || userB <= 0 || userA == userB {
		return nil, ErrInvalidParticipant
	}
	if itemID != nil && *itemID <= 0 {
		itemID = nil
	}

	chat, err := s.repo.FindByPairAndItem(ctx, userA, userB, itemID)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}

	chat, err = s.repo.InsertChat(ctx, userA, userB, itemID)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		log.Info().
			Int64("chat_id", chat.ID).
			Int64("user_a", userA).
			Int64("user_b", userB).
			Msg("Created chat")
		return chat, nil
	}

	// Lost a concurrent create for the same key; the unique index swallowed
	// our insert, so the winning row must exist now.
	chat, err = s.repo.FindByPairAndItem(ctx, userA, userB, itemID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return chat, nil
}

// ListForUser returns the user's conversations, most recently active first.
func (s *ChatService) ListForUser(ctx context.Context, userID int64) ([]ChatSummary, error) {
	if userID <= 0 {
		return nil, ErrInvalidParticipant
	}
	return s.repo.ListForUser(ctx, userID)
}

// AppendMessage persists a message and bumps the chat's recency marker. The
// sender must be one of the chat's participants and content must be
// non-empty. On success the other participant is notified best-effort.
func (s *ChatService) AppendMessage(ctx context.Context, chatID, senderID int64, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if senderID <= 0 {
		return nil, ErrInvalidParticipant
	}

	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	if !s.limiterFor(senderID).Allow() {
		return nil, ErrRateLimited
	}

	msg, err := s.repo.InsertMessage(ctx, chatID, senderID, content)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		recipient := chat.OtherParticipant(senderID)
		if err := s.notifier.NotifyMessage(ctx, chatID, msg.ID, recipient); err != nil {
			log.Error().Err(err).
				Int64("chat_id", chatID).
				Int64("recipient", recipient).
				Msg("Failed to enqueue message notification")
		}
	}

	return msg, nil
}

// ListMessages returns a chat's messages oldest first.
func (s *ChatService) ListMessages(ctx context.Context, chatID int64) ([]Message, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return s.repo.ListMessages(ctx, chatID)
}

// UnseenNotificationCount returns the user's unread notification count.
func (s *ChatService) UnseenNotificationCount(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, ErrInvalidParticipant
	}
	return s.repo.CountUnseenNotifications(ctx, userID)
}
