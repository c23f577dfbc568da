package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrueque/internal/chat"
)

type fakeAPI struct {
	mu        sync.Mutex
	messages  map[int64][]chat.Message
	chats     []chat.ChatSummary
	listErr   error
	appendErr error

	fetches int
	appends int

	// when set, ListMessages blocks until released
	block chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{messages: map[int64][]chat.Message{}}
}

func (f *fakeAPI) ListMessages(ctx context.Context, chatID int64) ([]chat.Message, error) {
	f.mu.Lock()
	block := f.block
	f.fetches++
	err := f.listErr
	msgs := f.messages[chatID]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (f *fakeAPI) ListForUser(ctx context.Context, userID int64) ([]chat.ChatSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats, nil
}

func (f *fakeAPI) AppendMessage(ctx context.Context, chatID, senderID int64, content string) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	msg := chat.Message{ID: int64(len(f.messages[chatID]) + 1), ChatID: chatID, SenderID: senderID, Content: content}
	f.messages[chatID] = append(f.messages[chatID], msg)
	return &msg, nil
}

func (f *fakeAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type recordingView struct {
	mu          sync.Mutex
	shown       [][]chat.Message
	shownChatID int64
	chatLists   int
	cleared     int
	errs        []error
}

func (v *recordingView) ShowMessages(chatID int64, messages []chat.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shownChatID = chatID
	v.shown = append(v.shown, messages)
}

func (v *recordingView) ShowChats(chats []chat.ChatSummary) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.chatLists++
}

func (v *recordingView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

func (v *recordingView) Notify(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, err)
}

func (v *recordingView) showCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.shown)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestOpenFetchesImmediatelyThenTicks(t *testing.T) {
	api := newFakeAPI()
	api.messages[7] = []chat.Message{{ID: 1, ChatID: 7, Content: "hola"}}
	view := &recordingView{}
	s := NewSession(1, api, view, 20*time.Millisecond)
	defer s.Close()

	s.Open(7)

	// First render arrives before the first tick interval elapses
	waitFor(t, func() bool { return view.showCount() >= 1 })
	assert.Equal(t, int64(7), view.shownChatID)

	// Then the ticker keeps refreshing
	waitFor(t, func() bool { return api.fetchCount() >= 3 })
}

func TestCloseStopsPolling(t *testing.T) {
	api := newFakeAPI()
	view := &recordingView{}
	s := NewSession(1, api, view, 20*time.Millisecond)

	s.Open(7)
	waitFor(t, func() bool { return api.fetchCount() >= 2 })
	s.Close()

	assert.Equal(t, int64(0), s.ActiveChat())

	settled := api.fetchCount()
	time.Sleep(100 * time.Millisecond)
	// Allow one in-flight fetch racing the cancel, but no steady ticking
	assert.LessOrEqual(t, api.fetchCount(), settled+1)
}

func TestReopenDiscardsStaleFetch(t *testing.T) {
	api := newFakeAPI()
	api.messages[1] = []chat.Message{{ID: 1, ChatID: 1, Content: "vieja"}}
	api.messages[2] = []chat.Message{{ID: 2, ChatID: 2, Content: "nueva"}}
	view := &recordingView{}
	s := NewSession(1, api, view, time.Hour)
	defer s.Close()

	release := make(chan struct{})
	api.mu.Lock()
	api.block = release
	api.mu.Unlock()

	s.Open(1)
	waitFor(t, func() bool { return api.fetchCount() >= 1 })

	// Switch conversations while chat 1's fetch is still in flight
	api.mu.Lock()
	api.block = nil
	api.mu.Unlock()
	s.Open(2)
	close(release)

	waitFor(t, func() bool { return view.showCount() >= 1 })
	time.Sleep(50 * time.Millisecond)

	view.mu.Lock()
	defer view.mu.Unlock()
	for _, msgs := range view.shown {
		for _, m := range msgs {
			assert.Equal(t, int64(2), m.ChatID, "stale chat-1 result must never render")
		}
	}
}

func TestSendRefreshesImmediately(t *testing.T) {
	api := newFakeAPI()
	view := &recordingView{}
	s := NewSession(1, api, view, time.Hour)
	defer s.Close()

	s.Open(7)
	waitFor(t, func() bool { return view.showCount() >= 1 })
	before := api.fetchCount()

	require.NoError(t, s.Send(context.Background(), "¿Aceptas el trueque?"))

	view.mu.Lock()
	cleared := view.cleared
	chatLists := view.chatLists
	view.mu.Unlock()
	assert.Equal(t, 1, cleared, "input cleared on send")
	assert.Equal(t, 1, chatLists, "conversation list refreshed after send")
	// History re-fetched without waiting for the hour-long tick
	assert.Greater(t, api.fetchCount(), before)
}

func TestSendFailureNotifiesAndKeepsState(t *testing.T) {
	api := newFakeAPI()
	api.appendErr = errors.New("boom")
	view := &recordingView{}
	s := NewSession(1, api, view, time.Hour)
	defer s.Close()

	s.Open(7)
	waitFor(t, func() bool { return view.showCount() >= 1 })

	err := s.Send(context.Background(), "hola")
	require.Error(t, err)

	view.mu.Lock()
	defer view.mu.Unlock()
	require.Len(t, view.errs, 1)
	assert.Equal(t, 0, view.chatLists, "no refresh after a failed send")
}

func TestSendWithoutActiveChat(t *testing.T) {
	api := newFakeAPI()
	view := &recordingView{}
	s := NewSession(1, api, view, time.Hour)

	err := s.Send(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrNoActiveChat)
	assert.Equal(t, 0, api.fetchCount())
}
