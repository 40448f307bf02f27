package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a room or message does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when inserting a room whose code is taken.
	ErrConflict = errors.New("conflict")
	// ErrRemoveRoom is returned by a mutation to delete the room instead of saving it.
	ErrRemoveRoom = errors.New("remove room")
)

// Room is the live state of one meeting room.
type Room struct {
	Code         string           `json:"roomId" bson:"_id"`
	CreatorID    UserID           `json:"creatorId,omitempty" bson:"creator_id,omitempty"`
	Participants []Participant    `json:"participants" bson:"participants"`
	Document     *DocumentSession `json:"document,omitempty" bson:"document,omitempty"`
	Whiteboard   []WhiteboardPage `json:"whiteboard" bson:"whiteboard"`
	Groups       []Group          `json:"groups" bson:"groups"`
	ScreenShare  ScreenShare      `json:"screenShare" bson:"screen_share"`
	CreatedAt    time.Time        `json:"createdAt" bson:"created_at"`

	// Uploads are stored files of this room not yet installed as its document.
	Uploads []string `json:"uploads,omitempty" bson:"uploads,omitempty"`

	// Removed is set by Rooms.Mutate when the mutation deleted the room.
	Removed bool `json:"-" bson:"-"`
}

// Participant is a roster entry tying a user to its live connection.
type Participant struct {
	UserID       UserID    `json:"userId" bson:"user_id"`
	ConnectionID string    `json:"socketId" bson:"connection_id"`
	Name         string    `json:"userName" bson:"name"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joined_at"`
}

// DocumentSession is the document currently shared in a room.
type DocumentSession struct {
	ID            string    `json:"id" bson:"id"`
	Filename      string    `json:"filename" bson:"filename"`
	TotalPages    int       `json:"totalPages" bson:"total_pages"`
	CurrentPage   int       `json:"currentPage" bson:"current_page"`
	OwnerID       UserID    `json:"uploadedBy,omitempty" bson:"owner_id,omitempty"`
	Presenters    []UserID  `json:"presenters" bson:"presenters"`
	LinkedGroupID string    `json:"linkedGroupId,omitempty" bson:"linked_group_id,omitempty"`
	IsPresenting  bool      `json:"isPresenting" bson:"is_presenting"`
	Orientation   int       `json:"orientation" bson:"orientation"`
	UploadedAt    time.Time `json:"uploadedAt" bson:"uploaded_at"`
}

// WhiteboardPage holds the strokes drawn over one document page.
type WhiteboardPage struct {
	Page    int      `json:"page" bson:"page"`
	Strokes []Stroke `json:"lines" bson:"strokes"`
}

// Stroke is one freehand segment. Points are flat x,y pairs normalized to [0,1].
type Stroke struct {
	Points []float64 `json:"points" bson:"points"`
	Color  string    `json:"color" bson:"color"`
	Width  float64   `json:"width" bson:"width"`
	Tool   string    `json:"tool,omitempty" bson:"tool,omitempty"`
}

// Group is a named subset of participants with its own permissions.
type Group struct {
	ID          string        `json:"_id" bson:"id"`
	Name        string        `json:"name" bson:"name"`
	CreatorID   UserID        `json:"creatorId" bson:"creator_id"`
	Members     []UserID      `json:"members" bson:"members"`
	Requests    []JoinRequest `json:"requests" bson:"requests"`
	Permissions Permissions   `json:"permissions" bson:"permissions"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
}

// JoinRequest is a pending request to join a group.
type JoinRequest struct {
	UserID   UserID `json:"userId" bson:"user_id"`
	UserName string `json:"userName" bson:"user_name"`
}

// Permissions are the control rights a group grants to its members.
type Permissions struct {
	CanDraw     bool `json:"canDraw" bson:"can_draw"`
	CanNavigate bool `json:"canNavigate" bson:"can_navigate"`
}

// ScreenShare describes the single active screen share of a room.
type ScreenShare struct {
	Active       bool   `json:"active" bson:"active"`
	UserID       UserID `json:"userId,omitempty" bson:"user_id,omitempty"`
	ConnectionID string `json:"socketId,omitempty" bson:"connection_id,omitempty"`
}

// Message is a persisted chat message.
type Message struct {
	ID        string    `json:"_id" bson:"_id"`
	RoomCode  string    `json:"roomId" bson:"room_id"`
	UserID    UserID    `json:"userId" bson:"user_id"`
	UserName  string    `json:"userName" bson:"user_name"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"timestamp" bson:"created_at"`
}

// RoomStore handles room persistence. Implementations need not serialize
// concurrent writers; Rooms does that.
type RoomStore interface {
	// LoadRoom retrieves a room by code. Returns ErrNotFound if absent.
	LoadRoom(ctx context.Context, code string) (*Room, error)

	// InsertRoom stores a new room. Returns ErrConflict if the code is taken.
	InsertRoom(ctx context.Context, room *Room) error

	// SaveRoom overwrites an existing room.
	SaveRoom(ctx context.Context, room *Room) error

	// DeleteRoom removes a room. Deleting a missing room is not an error.
	DeleteRoom(ctx context.Context, code string) error

	// ListRooms returns every stored room.
	ListRooms(ctx context.Context) ([]*Room, error)
}

// MessageStore handles chat history persistence.
type MessageStore interface {
	// SaveMessage persists a message to storage.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages returns up to limit messages of a room, newest first.
	ListMessages(ctx context.Context, roomCode string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	MessageStore

	// Close releases the underlying connection.
	Close() error
}
