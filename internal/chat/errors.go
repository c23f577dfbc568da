package chat

import "errors"

var (
	// ErrInvalidParticipant covers non-positive ids and a user chatting with
	// themselves.
	ErrInvalidParticipant = errors.New("invalid participant id")

	// ErrChatNotFound is returned when a chat id references no stored chat.
	ErrChatNotFound = errors.New("chat not found")

	// ErrNotParticipant is returned when a message's sender is not one of the
	// chat's two participants.
	ErrNotParticipant = errors.New("sender is not a participant of this chat")

	// ErrEmptyContent is returned for messages with no content.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrRateLimited is returned when a sender exceeds the send rate.
	ErrRateLimited = errors.New("message rate limit exceeded")
)
