package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	rooms *store.Rooms
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(rooms *store.Rooms, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms: rooms,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	CreatorID json.RawMessage `json:"creatorId"`
}

// CreateRoomResponse carries the generated room code.
type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

// ParticipantsResponse lists the live roster of a room.
type ParticipantsResponse struct {
	Participants []store.Participant `json:"participants"`
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Debug().Err(err).Msg("invalid create room request")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	creator := store.ParseUserID(req.CreatorID)
	if userID, _, ok := identityFrom(c); ok {
		creator = userID
	}

	room, err := h.rooms.Create(c.Request.Context(), creator)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room", room.Code).Str("user_id", creator.String()).Msg("room created")
	c.JSON(http.StatusCreated, CreateRoomResponse{RoomID: room.Code})
}

// GetRoom returns the stored room.
// GET /api/rooms/:roomId
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	room, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, room)
}

// Participants returns the live roster of a room.
// GET /api/rooms/:roomId/participants
func (h *RoomHandlers) Participants(c *gin.Context) {
	room, ok := h.load(c)
	if !ok {
		return
	}
	participants := room.Participants
	if participants == nil {
		participants = []store.Participant{}
	}
	c.JSON(http.StatusOK, ParticipantsResponse{Participants: participants})
}

func (h *RoomHandlers) load(c *gin.Context) (*store.Room, bool) {
	code := c.Param("roomId")
	room, err := h.rooms.Get(c.Request.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return nil, false
	}
	if err != nil {
		h.log.Error().Err(err).Str("room", code).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return nil, false
	}
	return room, true
}
