package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/core"
	"github.com/vovakirdan/wireroom-server/internal/store"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
)

// ChatHandlers exposes chat history over REST.
type ChatHandlers struct {
	chat *core.Chat
	log  *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(chat *core.Chat, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{chat: chat, log: logger}
}

// PostMessageRequest represents the append message request body.
type PostMessageRequest struct {
	UserID   json.RawMessage `json:"userId"`
	UserName string          `json:"userName"`
	Text     string          `json:"text"`
}

// MessageResponse wraps a single stored message.
type MessageResponse struct {
	Message *store.Message `json:"message"`
}

// HistoryResponse lists messages oldest first.
type HistoryResponse struct {
	Messages []*store.Message `json:"messages"`
}

// History returns recent messages of a room.
// GET /api/chat/:roomId
func (h *ChatHandlers) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	code := c.Param("roomId")
	msgs, err := h.chat.History(c.Request.Context(), code, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", code).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if msgs == nil {
		msgs = []*store.Message{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Messages: msgs})
}

// PostMessage appends a message and broadcasts it to the room.
// POST /api/chat/:roomId
func (h *ChatHandlers) PostMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid post message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	userID, name := store.ParseUserID(req.UserID), req.UserName
	if verified, verifiedName, ok := identityFrom(c); ok {
		userID = verified
		if name == "" {
			name = verifiedName
		}
	}

	code := c.Param("roomId")
	msg, err := h.chat.Post(c.Request.Context(), code, userID, name, req.Text)
	if err != nil {
		status, text := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("room", code).Msg("failed to post message")
		}
		c.JSON(status, ErrorResponse{Error: text})
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{Message: msg})
}
