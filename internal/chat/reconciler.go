// Package chat keeps a single, order-stable message log while messages
// arrive from two sources: the local optimistic echo at send time and the
// server's confirmation over the socket.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/avlasenko/taxikit/internal/domain"
	"github.com/google/uuid"
)

// Channel is the duplex transport for one conversation. History never
// travels over it; it only carries incremental messages.
type Channel interface {
	Send(ctx context.Context, text string) error
	Close() error
}

// Reconciler owns the visible message log: history first (server order),
// then live messages in the order this client observed them. A pending
// message keeps its list position when it becomes confirmed.
type Reconciler struct {
	mu       sync.Mutex
	selfID   int64
	channel  Channel
	messages []domain.ChatMessage
	now      func() time.Time
}

// NewReconciler creates a reconciler for the given local sender id.
func NewReconciler(selfID int64, channel Channel) *Reconciler {
	return &Reconciler{
		selfID:  selfID,
		channel: channel,
		now:     time.Now,
	}
}

// SetHistory installs the REST-fetched history as the initial log,
// discarding anything already present. Called once per connection.
func (r *Reconciler) SetHistory(history []domain.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = make([]domain.ChatMessage, len(history))
	copy(r.messages, history)
}

// Send appends a pending local echo at the tail of the log and then
// transmits the text. The echo is appended before the transmit so the UI
// never appears to swallow a send, and it stays pending even when the
// transmit fails: the error surfaces to the caller while the log keeps
// showing what the user typed. A retry with the same text reuses the
// existing pending echo instead of appending a duplicate, so the
// eventual server confirmation still matches exactly one entry.
func (r *Reconciler) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	r.mu.Lock()
	msg, found := r.pendingSelfLocked(text)
	if !found {
		msg = domain.ChatMessage{
			ID:       "tmp-" + uuid.NewString(),
			SenderID: r.selfID,
			Text:     text,
			SentAt:   r.now(),
			State:    domain.MessagePending,
		}
		r.messages = append(r.messages, msg)
	}
	r.mu.Unlock()

	if err := r.channel.Send(ctx, text); err != nil {
		return msg, err
	}
	return msg, nil
}

// pendingSelfLocked finds an unconfirmed local echo with the given text.
func (r *Reconciler) pendingSelfLocked(text string) (domain.ChatMessage, bool) {
	for i := range r.messages {
		m := &r.messages[i]
		if m.State == domain.MessagePending && m.SenderID == r.selfID && m.Text == text {
			return *m, true
		}
	}
	return domain.ChatMessage{}, false
}

// Receive reconciles one inbound message in arrival order. The first
// pending message with the same sender and identical text is replaced in
// place and marked confirmed; with no match the message is appended as a
// new confirmed entry at the tail.
func (r *Reconciler) Receive(msg domain.ChatMessage) {
	msg.State = domain.MessageConfirmed

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		m := &r.messages[i]
		if m.State == domain.MessagePending && m.SenderID == msg.SenderID && m.Text == msg.Text {
			r.messages[i] = msg
			return
		}
	}
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of the visible log.
func (r *Reconciler) Messages() []domain.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

// PendingCount returns the number of unconfirmed local echoes.
func (r *Reconciler) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.messages {
		if r.messages[i].State == domain.MessagePending {
			n++
		}
	}
	return n
}

// Close shuts the transport down. Already-reconciled history stays intact.
func (r *Reconciler) Close() error {
	return r.channel.Close()
}
