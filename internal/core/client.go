package core

import (
	"sync"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// Client is one live event connection as seen by the core layer.
// ID doubles as the connection id peers address signaling envelopes to.
type Client struct {
	ID     string
	Events chan *Event

	mu       sync.RWMutex
	userID   store.UserID
	name     string
	room     string
	verified bool
}

// NewClient constructs a client with an initialized event channel.
// A non-empty userID marks the identity as verified by the transport, in
// which case identities claimed in join requests are ignored.
func NewClient(id string, userID store.UserID, name string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:       id,
		Events:   make(chan *Event, buffer),
		userID:   userID,
		name:     name,
		verified: userID != "",
	}
}

// Identity returns the user bound to the client.
func (c *Client) Identity() (store.UserID, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.name
}

// Verified reports whether the identity came from a verified token.
func (c *Client) Verified() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verified
}

// Room returns the code of the joined room, or "".
func (c *Client) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Client) bind(room string, userID store.UserID, name string) {
	c.mu.Lock()
	c.room = room
	c.userID = userID
	c.name = name
	c.mu.Unlock()
}

func (c *Client) unbind() {
	c.mu.Lock()
	c.room = ""
	c.mu.Unlock()
}
