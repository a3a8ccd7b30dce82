package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avlasenko/taxikit/internal/domain"
)

var upgrader = websocket.Upgrader{}

// echoServer upgrades the connection and answers every inbound frame
// with a full confirmed-message object, the way the backend does.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var seq int64
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var in struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(frame, &in))

			seq++
			out := map[string]any{
				"id":             seq,
				"sender_user_id": 42,
				"message":        in.Message,
				"created_at":     time.Now().UTC().Format(time.RFC3339),
			}
			data, err := json.Marshal(out)
			require.NoError(t, err)
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestChannel_SendAndListen(t *testing.T) {
	srv := echoServer(t)

	ch, err := Dial(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)
	defer ch.Close()

	received := make(chan domain.ChatMessage, 4)
	go func() {
		_ = ch.Listen(func(msg domain.ChatMessage) { received <- msg })
	}()

	require.NoError(t, ch.Send(context.Background(), "hello"))
	require.NoError(t, ch.Send(context.Background(), "world"))

	first := <-received
	assert.Equal(t, "hello", first.Text)
	assert.Equal(t, int64(42), first.SenderID)
	assert.Equal(t, domain.MessageConfirmed, first.State)

	second := <-received
	assert.Equal(t, "world", second.Text, "arrival order is preserved")
}

func TestChannel_CloseStopsListenCleanly(t *testing.T) {
	srv := echoServer(t)

	ch, err := Dial(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- ch.Listen(func(domain.ChatMessage) {})
	}()

	require.NoError(t, ch.Close())
	select {
	case err := <-done:
		assert.NoError(t, err, "an intentional close is not an error")
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after Close")
	}
}

func TestDial_RefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := Dial(context.Background(), wsURL(srv), nil)
	require.Error(t, err)
}
