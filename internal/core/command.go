package core

import (
	"encoding/json"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom binds the client to a room roster.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom removes the client from its room.
	CommandLeaveRoom

	CommandOffer
	CommandAnswer
	CommandICECandidate

	CommandSendMessage
	CommandUserSpeaking
	CommandUserStoppedSpeaking
	CommandToggleAudio
	CommandToggleVideo

	CommandRequestScreenShare
	CommandScreenShareStarted
	CommandScreenShareStopped

	CommandDocumentUploaded
	CommandSetPage
	CommandUpdateMetadata
	CommandTogglePresentation
	CommandGrantPresenter
	CommandRevokePresenter
	CommandRemoveDocument

	CommandDraw
	CommandClearPage

	CommandCreateGroup
	CommandDeleteGroup
	CommandRequestJoinGroup
	CommandApproveJoinRequest
	CommandRejectJoinRequest
	CommandAddGroupMember
	CommandRemoveGroupMember
	CommandLinkDocumentGroup
)

// Command represents an action requested by a client. Only the fields
// relevant to Kind are set.
type Command struct {
	Kind CommandKind

	// join-room
	RoomCode string
	UserID   store.UserID
	UserName string

	// offer, answer, ice-candidate
	To      string
	Payload json.RawMessage

	// send-message
	Text string

	// toggle-audio, toggle-video
	Enabled bool

	// pdf-uploaded
	Document DocumentInfo

	// pdf-page-changed: either a relative move or an absolute target
	Direction  int
	TargetPage *int

	// pdf-update-metadata, pdf-toggle-presentation
	TotalPages   *int
	Orientation  *int
	IsPresenting *bool

	// whiteboard-draw, whiteboard-clear
	Page   int
	Stroke store.Stroke

	// presenters and groups
	TargetUserID store.UserID
	GroupID      string
	GroupName    string
	Permissions  store.Permissions
}

// DocumentInfo describes a file already stored through the upload endpoint.
type DocumentInfo struct {
	ID          string
	Filename    string
	TotalPages  int
	Orientation int
}
