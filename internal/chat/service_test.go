package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Validation happens before any storage access, so these run without a
// database.

func TestResolveOrCreateRejectsInvalidParticipants(t *testing.T) {
	svc := NewChatService(nil, nil, 60)
	ctx := context.Background()

	_, err := svc.ResolveOrCreate(ctx, 0, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidParticipant)

	_, err = svc.ResolveOrCreate(ctx, 1, -4, nil)
	assert.ErrorIs(t, err, ErrInvalidParticipant)

	_, err = svc.ResolveOrCreate(ctx, 3, 3, nil)
	assert.ErrorIs(t, err, ErrInvalidParticipant)
}

func TestAppendMessageRejectsEmptyContent(t *testing.T) {
	svc := NewChatService(nil, nil, 60)

	_, err := svc.AppendMessage(context.Background(), 1, 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestListForUserRejectsInvalidUser(t *testing.T) {
	svc := NewChatService(nil, nil, 60)

	_, err := svc.ListForUser(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidParticipant)
}

func TestSenderRateLimiterBurst(t *testing.T) {
	svc := NewChatService(nil, nil, 2)

	lim := svc.limiterFor(5)
	assert.True(t, lim.Allow())
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow(), "third send within the minute should be limited")

	// A different sender has an independent bucket
	assert.True(t, svc.limiterFor(6).Allow())
}
