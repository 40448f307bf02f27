package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// Chat persists room messages and broadcasts them to every member.
type Chat struct {
	rooms        *store.Rooms
	messages     store.MessageStore
	send         Sender
	log          *zerolog.Logger
	maxLength    int
	historyLimit int
}

// NewChat constructs the chat service.
func NewChat(rooms *store.Rooms, messages store.MessageStore, send Sender, maxLength, historyLimit int, logger *zerolog.Logger) *Chat {
	if maxLength <= 0 {
		maxLength = 2000
	}
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Chat{
		rooms:        rooms,
		messages:     messages,
		send:         send,
		log:          logger,
		maxLength:    maxLength,
		historyLimit: historyLimit,
	}
}

// Send posts a message from a joined client.
func (c *Chat) Send(ctx context.Context, client *Client, text string) (*store.Message, error) {
	code := client.Room()
	if code == "" {
		return nil, errNotJoined
	}
	userID, name := client.Identity()
	return c.Post(ctx, code, userID, name, text)
}

// Post validates, persists, then broadcasts a message. Nothing is broadcast
// when the write fails.
func (c *Chat) Post(ctx context.Context, code string, userID store.UserID, name, text string) (*store.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("message text is required")
	}
	if len(text) > c.maxLength {
		return nil, invalid(fmt.Sprintf("message text exceeds %d bytes", c.maxLength))
	}

	room, err := c.rooms.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	msg := &store.Message{
		ID:        uuid.NewString(),
		RoomCode:  code,
		UserID:    userID,
		UserName:  name,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.messages.SaveMessage(ctx, msg); err != nil {
		c.log.Error().Err(err).Str("room", code).Msg("save message failed")
		return nil, coreError(ErrCodeStorage, "message not saved")
	}

	broadcast(c.send, room, &Event{Kind: EventReceiveMessage, Data: msg}, "")
	return msg, nil
}

// History returns up to limit messages, oldest first.
func (c *Chat) History(ctx context.Context, code string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		limit = c.historyLimit
	}
	msgs, err := c.messages.ListMessages(ctx, code, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}
