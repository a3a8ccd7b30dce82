package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avlasenko/taxikit/internal/domain"
)

type chatMessageDTO struct {
	ID           int64     `json:"id"`
	SenderUserID int64     `json:"sender_user_id"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

func (d chatMessageDTO) toDomain() domain.ChatMessage {
	return domain.ChatMessage{
		ID:       fmt.Sprintf("%d", d.ID),
		SenderID: d.SenderUserID,
		Text:     d.Message,
		SentAt:   d.CreatedAt,
		State:    domain.MessageConfirmed,
	}
}

// ChatHistory fetches the full message log for a conversation. History
// always arrives over REST; the socket only carries increments.
func (c *Client) ChatHistory(ctx context.Context, driverID int64) ([]domain.ChatMessage, error) {
	var dtos []chatMessageDTO
	path := fmt.Sprintf("/api/v1/chat/history/%d", driverID)
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	msgs := make([]domain.ChatMessage, 0, len(dtos))
	for _, d := range dtos {
		msgs = append(msgs, d.toDomain())
	}
	return msgs, nil
}

// ChatSocketURL builds the websocket endpoint for a conversation,
// translating the configured http(s) scheme to ws(s).
func (c *Client) ChatSocketURL(driverID int64) string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return fmt.Sprintf("%s/api/v1/chat/ws/%d?token=%s", base, driverID, c.token)
}

// ParseInboundMessage decodes one socket frame into a confirmed message.
func ParseInboundMessage(frame []byte) (domain.ChatMessage, error) {
	var dto chatMessageDTO
	if err := unmarshalFrame(frame, &dto); err != nil {
		return domain.ChatMessage{}, err
	}
	return dto.toDomain(), nil
}
