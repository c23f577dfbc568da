package chat

import "time"

// Chat represents a conversation between exactly two users, optionally scoped
// to the item being negotiated. For a given unordered pair of users and item
// (including "no item") at most one chat exists; the pair (user_a, user_b) is
// stored in the order the first request named it.
type Chat struct {
	ID        int64     `json:"id" db:"id"`
	UserAID   int64     `json:"userAId" db:"user_a_id"`
	UserBID   int64     `json:"userBId" db:"user_b_id"`
	ItemID    *int64    `json:"itemId,omitempty" db:"item_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// OtherParticipant returns the participant that is not userID.
func (c *Chat) OtherParticipant(userID int64) int64 {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// HasParticipant reports whether userID is one of the chat's two participants.
func (c *Chat) HasParticipant(userID int64) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// Message is a single chat message. Messages are immutable and ordered within
// a chat by creation time ascending.
type Message struct {
	ID        int64     `json:"id" db:"id"`
	ChatID    int64     `json:"chatId" db:"chat_id"`
	SenderID  int64     `json:"senderId" db:"sender_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Sender display metadata, joined from the users table on reads.
	Sender *UserRef `json:"sender,omitempty"`
}

// UserRef is the display identity of a user as shown in chat views.
type UserRef struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ItemRef is the subject item of a chat as shown in chat views.
type ItemRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ChatSummary is one row of a user's conversation list: the other
// participant, the subject item if any, and the most recent message.
// LastMessage is nil for a chat with no messages yet.
type ChatSummary struct {
	ID          int64     `json:"id"`
	UserAID     int64     `json:"userAId"`
	UserBID     int64     `json:"userBId"`
	OtherUser   UserRef   `json:"otherUser"`
	Item        *ItemRef  `json:"item,omitempty"`
	LastMessage *Message  `json:"lastMessage,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NormalizePair returns the participant pair in ascending order. Chat
// identity compares participants as a set, so (a, b) and (b, a) normalize to
// the same key.
func NormalizePair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
