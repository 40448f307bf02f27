package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

const leaveTimeout = 10 * time.Second

// Options tunes the controller's components.
type Options struct {
	// OptimisticStrokes broadcasts strokes before they are persisted.
	OptimisticStrokes bool
	MaxMessageLength  int
	HistoryLimit      int
}

// Controller owns the live connection table and routes client commands to
// the presence, relay, collaboration and chat components. Those components
// reach connections only through Send.
type Controller struct {
	log *zerolog.Logger

	rooms    *store.Rooms
	presence *Presence
	relay    *Relay
	collab   *Collab
	chat     *Chat

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewController wires the core components over a room store.
func NewController(rooms *store.Rooms, messages store.MessageStore, files FileReleaser, opts Options, logger *zerolog.Logger) *Controller {
	c := &Controller{
		log:     logger,
		rooms:   rooms,
		clients: make(map[string]*Client),
	}
	c.presence = NewPresence(rooms, c, files, logger)
	c.relay = NewRelay(c, c, logger)
	c.collab = NewCollab(rooms, c, files, opts.OptimisticStrokes, logger)
	c.chat = NewChat(rooms, messages, c, opts.MaxMessageLength, opts.HistoryLimit, logger)
	return c
}

// Rooms exposes the room store for read paths.
func (c *Controller) Rooms() *store.Rooms { return c.rooms }

// Chat exposes the chat service for the request/response surface.
func (c *Controller) Chat() *Chat { return c.chat }

// StageDocument binds a freshly stored file to a room.
func (c *Controller) StageDocument(ctx context.Context, code, filename string) error {
	return c.collab.StageDocument(ctx, code, filename)
}

// Recover runs startup recovery over rooms left by a previous process.
func (c *Controller) Recover(ctx context.Context) error {
	removed, err := c.presence.Recover(ctx)
	if err != nil {
		return err
	}
	c.log.Info().Int("rooms_removed", removed).Msg("startup recovery complete")
	return nil
}

// Connect registers a client so it can receive events.
func (c *Controller) Connect(client *Client) {
	c.mu.Lock()
	c.clients[client.ID] = client
	n := len(c.clients)
	c.mu.Unlock()

	c.log.Debug().Str("conn_id", client.ID).Int("connections", n).Msg("client connected")
}

// Disconnect unregisters a client, closes its event channel and always runs
// Leave, even for clients that never joined a room.
func (c *Controller) Disconnect(client *Client) {
	c.mu.Lock()
	_, ok := c.clients[client.ID]
	if ok {
		delete(c.clients, client.ID)
		close(client.Events)
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()
	c.presence.Leave(ctx, client)

	c.log.Debug().Str("conn_id", client.ID).Msg("client disconnected")
}

// RoomOf returns the room a live connection has joined.
func (c *Controller) RoomOf(connID string) (string, bool) {
	c.mu.RLock()
	client, ok := c.clients[connID]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	room := client.Room()
	return room, room != ""
}

// Send delivers an event to one connection without blocking.
func (c *Controller) Send(connID string, ev *Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	client, ok := c.clients[connID]
	if !ok {
		return false
	}
	select {
	case client.Events <- ev:
		return true
	default:
		// Drop if slow consumer.
		c.log.Warn().Str("conn_id", connID).Msg("event dropped for slow client")
		return false
	}
}

// Handle executes one client command. Failures are reported to that client only.
func (c *Controller) Handle(ctx context.Context, client *Client, cmd *Command) {
	if err := c.dispatch(ctx, client, cmd); err != nil {
		c.fail(client, cmd, err)
	}
}

func (c *Controller) dispatch(ctx context.Context, client *Client, cmd *Command) error {
	switch cmd.Kind {
	case CommandJoinRoom:
		userID, name := cmd.UserID, cmd.UserName
		if client.Verified() {
			userID, name = client.Identity()
			if cmd.UserName != "" {
				name = cmd.UserName
			}
		}
		_, err := c.presence.Join(ctx, client, cmd.RoomCode, userID, name)
		return err
	case CommandLeaveRoom:
		c.presence.Leave(ctx, client)
		return nil

	case CommandOffer:
		return c.relay.Forward(client, EventOffer, cmd.To, cmd.Payload)
	case CommandAnswer:
		return c.relay.Forward(client, EventAnswer, cmd.To, cmd.Payload)
	case CommandICECandidate:
		return c.relay.Forward(client, EventICECandidate, cmd.To, cmd.Payload)

	case CommandSendMessage:
		_, err := c.chat.Send(ctx, client, cmd.Text)
		return err
	case CommandUserSpeaking:
		return c.collab.Echo(ctx, client, EventUserSpeaking, true)
	case CommandUserStoppedSpeaking:
		return c.collab.Echo(ctx, client, EventUserStoppedSpeaking, false)
	case CommandToggleAudio:
		return c.collab.Echo(ctx, client, EventUserAudioToggled, cmd.Enabled)
	case CommandToggleVideo:
		return c.collab.Echo(ctx, client, EventUserVideoToggled, cmd.Enabled)

	case CommandRequestScreenShare:
		return c.collab.RequestScreenShare(ctx, client)
	case CommandScreenShareStarted:
		return c.collab.StartScreenShare(ctx, client)
	case CommandScreenShareStopped:
		return c.collab.StopScreenShare(ctx, client)

	case CommandDocumentUploaded:
		return c.collab.UploadDocument(ctx, client, cmd.Document)
	case CommandSetPage:
		return c.collab.SetPage(ctx, client, cmd.Direction, cmd.TargetPage)
	case CommandUpdateMetadata:
		return c.collab.UpdateMetadata(ctx, client, cmd.TotalPages, cmd.Orientation)
	case CommandTogglePresentation:
		return c.collab.TogglePresentation(ctx, client, cmd.IsPresenting)
	case CommandGrantPresenter:
		return c.collab.GrantPresenter(ctx, client, cmd.TargetUserID)
	case CommandRevokePresenter:
		return c.collab.RevokePresenter(ctx, client, cmd.TargetUserID)
	case CommandRemoveDocument:
		return c.collab.RemoveDocument(ctx, client)

	case CommandDraw:
		return c.collab.Draw(ctx, client, cmd.Page, cmd.Stroke)
	case CommandClearPage:
		return c.collab.ClearPage(ctx, client, cmd.Page)

	case CommandCreateGroup:
		return c.collab.CreateGroup(ctx, client, cmd.GroupName, cmd.Permissions)
	case CommandDeleteGroup:
		return c.collab.DeleteGroup(ctx, client, cmd.GroupID)
	case CommandRequestJoinGroup:
		return c.collab.RequestJoinGroup(ctx, client, cmd.GroupID)
	case CommandApproveJoinRequest:
		return c.collab.ApproveJoinRequest(ctx, client, cmd.GroupID, cmd.TargetUserID)
	case CommandRejectJoinRequest:
		return c.collab.RejectJoinRequest(ctx, client, cmd.GroupID, cmd.TargetUserID)
	case CommandAddGroupMember:
		return c.collab.AddGroupMember(ctx, client, cmd.GroupID, cmd.TargetUserID)
	case CommandRemoveGroupMember:
		return c.collab.RemoveGroupMember(ctx, client, cmd.GroupID, cmd.TargetUserID)
	case CommandLinkDocumentGroup:
		return c.collab.LinkDocumentGroup(ctx, client, cmd.GroupID)
	}
	return coreError(ErrCodeBadRequest, "unknown command")
}

func (c *Controller) fail(client *Client, cmd *Command, err error) {
	ce := toCoreError(err)
	logEv := c.log.Debug()
	if ce.Code == ErrCodeStorage {
		logEv = c.log.Error()
	}
	logEv.Err(err).Str("conn_id", client.ID).Str("room", client.Room()).
		Int("command", int(cmd.Kind)).Str("code", ce.Code).Msg("command failed")

	if errors.Is(ce, ErrPermissionDenied) {
		c.Send(client.ID, &Event{Kind: EventPermissionError, Room: client.Room(), Data: PermissionErrorData{Message: ce.Message}})
		return
	}
	c.Send(client.ID, &Event{Kind: EventError, Room: client.Room(), Error: ce})
}
