package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avlasenko/taxikit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	sent    []string
	sendErr error
	closed  bool
}

func (f *fakeChannel) Send(_ context.Context, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

const me int64 = 42

func confirmed(id string, sender int64, text string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:       id,
		SenderID: sender,
		Text:     text,
		SentAt:   time.Now(),
		State:    domain.MessageConfirmed,
	}
}

func TestSend_AppendsPendingEchoAndTransmits(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReconciler(me, ch)

	msg, err := r.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, domain.MessagePending, msg.State)
	assert.Equal(t, me, msg.SenderID)
	assert.NotEmpty(t, msg.ID)

	log := r.Messages()
	require.Len(t, log, 1)
	assert.Equal(t, "hi", log[0].Text)
	assert.Equal(t, domain.MessagePending, log[0].State)
	assert.Equal(t, []string{"hi"}, ch.sent)
}

func TestSend_TransmitFailureKeepsEchoPending(t *testing.T) {
	ch := &fakeChannel{sendErr: errors.New("socket closed")}
	r := NewReconciler(me, ch)

	msg, err := r.Send(context.Background(), "hi")
	require.Error(t, err)

	log := r.Messages()
	require.Len(t, log, 1, "the user's text must stay visible after a failed transmit")
	assert.Equal(t, domain.MessagePending, log[0].State)
	assert.Equal(t, msg.ID, log[0].ID)
	assert.Equal(t, 1, r.PendingCount())
}

func TestSend_RetryReusesPendingEcho(t *testing.T) {
	ch := &fakeChannel{sendErr: errors.New("socket closed")}
	r := NewReconciler(me, ch)

	first, err := r.Send(context.Background(), "hi")
	require.Error(t, err)

	// The transport recovers; resending the same text must not grow the
	// log, and the eventual confirmation matches the single echo.
	ch.sendErr = nil
	second, err := r.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, r.Messages(), 1)
	assert.Equal(t, []string{"hi"}, ch.sent)

	r.Receive(confirmed("srv-3", me, "hi"))
	log := r.Messages()
	require.Len(t, log, 1)
	assert.Equal(t, domain.MessageConfirmed, log[0].State)
	assert.Zero(t, r.PendingCount())
}

func TestReceive_ConfirmsPendingInPlace(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReconciler(me, ch)

	_, err := r.Send(context.Background(), "hello")
	require.NoError(t, err)
	r.Receive(confirmed("srv-1", me, "hello"))

	log := r.Messages()
	require.Len(t, log, 1, "confirmation must replace the echo, not duplicate it")
	assert.Equal(t, domain.MessageConfirmed, log[0].State)
	assert.Equal(t, "srv-1", log[0].ID)
	assert.Zero(t, r.PendingCount())
}

func TestReceive_PreservesListPosition(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReconciler(me, ch)

	_, err := r.Send(context.Background(), "first")
	require.NoError(t, err)
	r.Receive(confirmed("srv-9", 7, "from accountant"))

	// Confirmation for "first" arrives after the accountant's message;
	// the echo keeps its original slot.
	r.Receive(confirmed("srv-10", me, "first"))

	log := r.Messages()
	require.Len(t, log, 2)
	assert.Equal(t, "first", log[0].Text)
	assert.Equal(t, domain.MessageConfirmed, log[0].State)
	assert.Equal(t, "from accountant", log[1].Text)
}

func TestReceive_MatchesFirstPendingOnly(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReconciler(me, ch)

	_, err := r.Send(context.Background(), "same text")
	require.NoError(t, err)
	_, err = r.Send(context.Background(), "same text")
	require.NoError(t, err)

	r.Receive(confirmed("srv-1", me, "same text"))

	log := r.Messages()
	require.Len(t, log, 2)
	assert.Equal(t, domain.MessageConfirmed, log[0].State)
	assert.Equal(t, domain.MessagePending, log[1].State)
}

func TestReceive_UnmatchedAppendsAtTail(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReconciler(me, ch)
	r.SetHistory([]domain.ChatMessage{confirmed("h-1", 7, "welcome")})

	r.Receive(confirmed("srv-2", 7, "any progress?"))

	log := r.Messages()
	require.Len(t, log, 2)
	assert.Equal(t, "any progress?", log[1].Text)
}

func TestReceive_DifferentSenderNeverMatchesEcho(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReconciler(me, ch)

	_, err := r.Send(context.Background(), "ok")
	require.NoError(t, err)
	r.Receive(confirmed("srv-1", 7, "ok"))

	log := r.Messages()
	require.Len(t, log, 2)
	assert.Equal(t, domain.MessagePending, log[0].State)
	assert.Equal(t, int64(7), log[1].SenderID)
}

func TestSetHistory_ReplacesLog(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReconciler(me, ch)
	r.SetHistory([]domain.ChatMessage{
		confirmed("h-1", 7, "one"),
		confirmed("h-2", me, "two"),
	})

	log := r.Messages()
	require.Len(t, log, 2)
	assert.Equal(t, "one", log[0].Text)
}

func TestClose_PropagatesAndKeepsHistory(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReconciler(me, ch)
	r.SetHistory([]domain.ChatMessage{confirmed("h-1", 7, "kept")})

	require.NoError(t, r.Close())
	assert.True(t, ch.closed)
	assert.Len(t, r.Messages(), 1, "close must not corrupt reconciled history")
}
