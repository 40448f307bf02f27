package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound event names.
const (
	InboundJoinRoom           = "join-room"
	InboundLeaveRoom          = "leave-room"
	InboundOffer              = "offer"
	InboundAnswer             = "answer"
	InboundICECandidate       = "ice-candidate"
	InboundSendMessage        = "send-message"
	InboundUserSpeaking       = "user-speaking"
	InboundUserStoppedSpeak   = "user-stopped-speaking"
	InboundToggleAudio        = "toggle-audio"
	InboundToggleVideo        = "toggle-video"
	InboundRequestScreenShare = "request-screen-share"
	InboundScreenShareStarted = "screen-share-started"
	InboundScreenShareStopped = "screen-share-stopped"
	InboundPDFUploaded        = "pdf-uploaded"
	InboundPDFPageChanged     = "pdf-page-changed"
	InboundPDFUpdateMetadata  = "pdf-update-metadata"
	InboundPDFTogglePresent   = "pdf-toggle-presentation"
	InboundPDFGrantPresenter  = "pdf-grant-presenter"
	InboundPDFRevokePresenter = "pdf-revoke-presenter"
	InboundPDFRemove          = "pdf-remove"
	InboundWhiteboardDraw     = "whiteboard-draw"
	InboundWhiteboardClear    = "whiteboard-clear"
	InboundCreateGroup        = "create-group"
	InboundDeleteGroup        = "delete-group"
	InboundRequestJoinGroup   = "request-join-group"
	InboundApproveJoinRequest = "approve-join-request"
	InboundRejectJoinRequest  = "reject-join-request"
	InboundAddGroupMember     = "add-group-member"
	InboundRemoveGroupMember  = "remove-group-member"
	InboundLinkPDFGroup       = "link-pdf-group"
)

// Outbound envelope types and event names.
const (
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventRoomParticipants     = "room-participants"
	EventUserJoined           = "user-joined"
	EventUserLeft             = "user-left"
	EventOffer                = "offer"
	EventAnswer               = "answer"
	EventICECandidate         = "ice-candidate"
	EventReceiveMessage       = "receive-message"
	EventUserSpeaking         = "user-speaking"
	EventUserStoppedSpeaking  = "user-stopped-speaking"
	EventUserAudioToggled     = "user-audio-toggled"
	EventUserVideoToggled     = "user-video-toggled"
	EventScreenShareRequested = "screen-share-requested"
	EventScreenShareActive    = "screen-share-active"
	EventScreenShareEnded     = "screen-share-ended"
	EventPDFState             = "pdf-state"
	EventPDFPageUpdate        = "pdf-page-update"
	EventPDFPresentersUpdate  = "pdf-presenters-update"
	EventPDFRemoved           = "pdf-removed"
	EventWhiteboardDraw       = "whiteboard-draw"
	EventWhiteboardClear      = "whiteboard-clear"
	EventGroupsUpdate         = "groups-update"
	EventErrorPermission      = "error-permission"
)

// JoinRoomData requests to join a room. UserID may be a string, a number or
// an object id; it is normalized by the server.
type JoinRoomData struct {
	RoomID   string          `json:"roomId"`
	UserID   json.RawMessage `json:"userId,omitempty"`
	UserName string          `json:"userName,omitempty"`
}

// SignalData addresses a negotiation envelope to a peer connection.
// Clients may put the envelope in payload or in the offer/answer/candidate field.
type SignalData struct {
	To        string          `json:"to"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// MessageData is a chat message from the client.
type MessageData struct {
	Text string `json:"text"`
}

// ToggleData carries a media state change.
type ToggleData struct {
	Enabled      *bool `json:"enabled,omitempty"`
	AudioEnabled *bool `json:"audioEnabled,omitempty"`
	VideoEnabled *bool `json:"videoEnabled,omitempty"`
}

// DocumentData describes a file returned by the upload endpoint.
type DocumentData struct {
	ID          string `json:"id,omitempty"`
	Filename    string `json:"filename"`
	TotalPages  int    `json:"totalPages"`
	Orientation int    `json:"orientation,omitempty"`
}

// PDFUploadedData installs an uploaded document. The descriptor may be sent
// inline or nested under pdfData.
type PDFUploadedData struct {
	DocumentData
	PDFData *DocumentData `json:"pdfData,omitempty"`
}

// PageChangedData moves the document by direction or to currentPage.
type PageChangedData struct {
	Direction   int  `json:"direction,omitempty"`
	CurrentPage *int `json:"currentPage,omitempty"`
}

// MetadataData corrects document metadata.
type MetadataData struct {
	TotalPages  *int `json:"totalPages,omitempty"`
	Orientation *int `json:"orientation,omitempty"`
}

// PresentationData sets presentation mode; omitted means flip.
type PresentationData struct {
	IsPresenting *bool `json:"isPresenting,omitempty"`
}

// PresenterData names the user to grant or revoke.
type PresenterData struct {
	TargetUserID json.RawMessage `json:"targetUserId"`
}

// StrokeData is a freehand segment with flat x,y points in [0,1].
type StrokeData struct {
	Points []float64 `json:"points"`
	Color  string    `json:"color"`
	Width  float64   `json:"width"`
	Tool   string    `json:"tool,omitempty"`
}

// DrawData is a stroke drawn on a page.
type DrawData struct {
	Page int        `json:"page"`
	Line StrokeData `json:"line"`
}

// ClearData clears one page.
type ClearData struct {
	Page int `json:"page"`
}

// PermissionsData are group control rights.
type PermissionsData struct {
	CanDraw     bool `json:"canDraw"`
	CanNavigate bool `json:"canNavigate"`
}

// GroupData covers every group operation; unused fields are ignored.
type GroupData struct {
	GroupID     string          `json:"groupId,omitempty"`
	GroupName   string          `json:"groupName,omitempty"`
	Permissions PermissionsData `json:"permissions"`
	UserID      json.RawMessage `json:"userId,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Room  string `json:"room,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
