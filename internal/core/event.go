package core

import (
	"encoding/json"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventError notifies a client about a failed request.
	EventError EventKind = iota
	// EventPermissionError tells the requester an action was denied.
	EventPermissionError

	// Presence
	EventRoomParticipants
	EventUserJoined
	EventUserLeft

	// Signaling
	EventOffer
	EventAnswer
	EventICECandidate

	// Chat and media echoes
	EventReceiveMessage
	EventUserSpeaking
	EventUserStoppedSpeaking
	EventUserAudioToggled
	EventUserVideoToggled

	// Screen share
	EventScreenShareRequested
	EventScreenShareActive
	EventScreenShareEnded

	// Shared document
	EventDocumentState
	EventDocumentPageUpdate
	EventDocumentPresenters
	EventDocumentRemoved

	// Whiteboard
	EventWhiteboardDraw
	EventWhiteboardClear

	// Groups
	EventGroupsUpdate
)

// Event is sent to clients to describe what happened in the system.
// Data holds one of the payload types below, already shaped for the wire.
type Event struct {
	Kind  EventKind
	Room  string
	Data  any
	Error *CoreError
}

// UserJoinedData announces a new participant to the rest of the room.
type UserJoinedData struct {
	UserID       store.UserID        `json:"userId"`
	UserName     string              `json:"userName"`
	Participants []store.Participant `json:"participants"`
}

// UserLeftData names the connection peers must tear down.
type UserLeftData struct {
	SocketID     string              `json:"socketId"`
	Participants []store.Participant `json:"participants"`
}

// SignalData is a negotiation envelope delivered to its addressee.
type SignalData struct {
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// SpeakingData is echoed while a participant talks.
type SpeakingData struct {
	UserID   store.UserID `json:"userId"`
	UserName string       `json:"userName,omitempty"`
	SocketID string       `json:"socketId"`
}

// AudioToggledData echoes a microphone state change.
type AudioToggledData struct {
	UserID       store.UserID `json:"userId"`
	AudioEnabled bool         `json:"audioEnabled"`
	SocketID     string       `json:"socketId"`
}

// VideoToggledData echoes a camera state change.
type VideoToggledData struct {
	UserID       store.UserID `json:"userId"`
	VideoEnabled bool         `json:"videoEnabled"`
	SocketID     string       `json:"socketId"`
}

// ScreenShareData identifies the sharer.
type ScreenShareData struct {
	UserID   store.UserID `json:"userId"`
	UserName string       `json:"userName,omitempty"`
	SocketID string       `json:"socketId,omitempty"`
}

// PageUpdateData carries only the new page number.
type PageUpdateData struct {
	CurrentPage int `json:"currentPage"`
}

// PresentersData carries the presenter set.
type PresentersData struct {
	Presenters []store.UserID `json:"presenters"`
}

// DrawData is a stroke relayed to the other participants.
type DrawData struct {
	Page   int          `json:"page"`
	Line   store.Stroke `json:"line"`
	UserID store.UserID `json:"userId"`
}

// ClearData scopes a whiteboard clear to one page.
type ClearData struct {
	Page int `json:"page"`
}

// PermissionErrorData explains a denied action.
type PermissionErrorData struct {
	Message string `json:"message"`
}
