package core

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

const (
	maxStrokePoints = 20000
	maxStrokeWidth  = 200
	maxColorLength  = 32
	maxTotalPages   = 10000
)

var errNotJoined = coreError(ErrCodeNotInRoom, "join a room first")

// Collab applies shared-state changes to a room and fans the result out.
// Every change follows the same shape: authorize, mutate, broadcast.
type Collab struct {
	rooms      *store.Rooms
	send       Sender
	files      FileReleaser
	log        *zerolog.Logger
	optimistic bool
}

// NewCollab constructs the broadcaster. With optimistic set, strokes reach
// peers before they are persisted.
func NewCollab(rooms *store.Rooms, send Sender, files FileReleaser, optimistic bool, logger *zerolog.Logger) *Collab {
	return &Collab{rooms: rooms, send: send, files: files, optimistic: optimistic, log: logger}
}

// mutate runs fn on the client's room after checking the client is on its roster.
func (c *Collab) mutate(ctx context.Context, client *Client, fn func(r *store.Room, userID store.UserID) error, commit func(*store.Room)) (*store.Room, error) {
	code := client.Room()
	if code == "" {
		return nil, errNotJoined
	}
	userID, _ := client.Identity()
	return c.rooms.Mutate(ctx, code, func(r *store.Room) error {
		if r.ParticipantByConnection(client.ID) == nil {
			return errNotJoined
		}
		return fn(r, userID)
	}, commit)
}

// snapshot loads the client's room for read-only fan-out.
func (c *Collab) snapshot(ctx context.Context, client *Client) (*store.Room, error) {
	code := client.Room()
	if code == "" {
		return nil, errNotJoined
	}
	room, err := c.rooms.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.ParticipantByConnection(client.ID) == nil {
		return nil, errNotJoined
	}
	return room, nil
}

func (c *Collab) release(ctx context.Context, filename string) {
	if filename == "" || c.files == nil {
		return
	}
	if err := c.files.Release(ctx, filename); err != nil {
		c.log.Warn().Err(err).Str("file", filename).Msg("release document failed")
	}
}

func requireDocument(r *store.Room) (*store.DocumentSession, error) {
	if r.Document == nil {
		return nil, notFound("no active document")
	}
	return r.Document, nil
}

// StageDocument records a file stored for the room so a member can install it.
// Files of other rooms cannot be installed.
func (c *Collab) StageDocument(ctx context.Context, code, filename string) error {
	_, err := c.rooms.Mutate(ctx, code, func(r *store.Room) error {
		r.StageUpload(filename)
		return nil
	}, nil)
	return err
}

// UploadDocument installs a file staged for the room as its document. The
// uploader becomes its owner and only presenter.
func (c *Collab) UploadDocument(ctx context.Context, client *Client, info DocumentInfo) error {
	if info.Filename == "" || info.Filename != filepath.Base(info.Filename) {
		return invalid("a stored filename is required")
	}
	total := min(max(info.TotalPages, 1), maxTotalPages)
	id := info.ID
	if id == "" {
		id = uuid.NewString()
	}

	var previous string
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		if !r.TakeUpload(info.Filename) {
			return invalid("document was not uploaded to this room")
		}
		if r.Document != nil && r.Document.Filename != info.Filename {
			previous = r.Document.Filename
			r.Whiteboard = []store.WhiteboardPage{}
		}
		r.Document = &store.DocumentSession{
			ID:          id,
			Filename:    info.Filename,
			TotalPages:  total,
			CurrentPage: 1,
			OwnerID:     userID,
			Presenters:  []store.UserID{userID},
			Orientation: info.Orientation,
			UploadedAt:  time.Now().UTC(),
		}
		return nil
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventDocumentState, Data: r.Document}, "")
	})
	if err != nil {
		return err
	}
	c.release(ctx, previous)
	return nil
}

// SetPage moves the document by a relative delta or to an absolute page.
// The result is always clamped to the document bounds.
func (c *Collab) SetPage(ctx context.Context, client *Client, direction int, target *int) error {
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		if !Authorize(r, userID, ActionNavigate) {
			return permissionError(ActionNavigate)
		}
		doc := r.Document
		next := doc.CurrentPage + direction
		if target != nil {
			next = *target
		}
		doc.CurrentPage = doc.ClampPage(next)
		return nil
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventDocumentPageUpdate, Data: PageUpdateData{CurrentPage: r.Document.CurrentPage}}, "")
	})
	return err
}

// UpdateMetadata corrects the page count and orientation once a presenter's
// viewer has rendered the file.
func (c *Collab) UpdateMetadata(ctx context.Context, client *Client, totalPages, orientation *int) error {
	if totalPages == nil && orientation == nil {
		return invalid("totalPages or orientation is required")
	}
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		doc, err := requireDocument(r)
		if err != nil {
			return err
		}
		if !doc.IsPresenter(userID) {
			return denied("Only presenters can update the document.")
		}
		if totalPages != nil {
			doc.TotalPages = min(max(*totalPages, 1), maxTotalPages)
			doc.CurrentPage = doc.ClampPage(doc.CurrentPage)
		}
		if orientation != nil {
			doc.Orientation = *orientation
		}
		return nil
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventDocumentState, Data: r.Document}, "")
	})
	return err
}

// TogglePresentation sets presentation mode, or flips it when value is nil.
func (c *Collab) TogglePresentation(ctx context.Context, client *Client, value *bool) error {
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		doc, err := requireDocument(r)
		if err != nil {
			return err
		}
		if !doc.IsPresenter(userID) {
			return denied("Only presenters can toggle presentation mode.")
		}
		if value != nil {
			doc.IsPresenting = *value
		} else {
			doc.IsPresenting = !doc.IsPresenting
		}
		return nil
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventDocumentState, Data: r.Document}, "")
	})
	return err
}

// GrantPresenter adds target to the presenter set. Owner only; idempotent.
func (c *Collab) GrantPresenter(ctx context.Context, client *Client, target store.UserID) error {
	return c.changePresenters(ctx, client, target, func(doc *store.DocumentSession) error {
		doc.AddPresenter(target)
		return nil
	})
}

// RevokePresenter removes target from the presenter set. Owner only; idempotent.
// The owner always stays a presenter.
func (c *Collab) RevokePresenter(ctx context.Context, client *Client, target store.UserID) error {
	return c.changePresenters(ctx, client, target, func(doc *store.DocumentSession) error {
		if target == doc.OwnerID {
			return invalid("the document owner cannot be revoked")
		}
		doc.RemovePresenter(target)
		return nil
	})
}

func (c *Collab) changePresenters(ctx context.Context, client *Client, target store.UserID, change func(*store.DocumentSession) error) error {
	if target == "" {
		return invalid("targetUserId is required")
	}
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		doc, err := requireDocument(r)
		if err != nil {
			return err
		}
		if doc.OwnerID != userID {
			return denied("Only the document owner can manage presenters.")
		}
		return change(doc)
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventDocumentPresenters, Data: PresentersData{Presenters: presentersOf(r.Document)}}, "")
	})
	return err
}

// RemoveDocument clears the document and every whiteboard page, then releases the file.
func (c *Collab) RemoveDocument(ctx context.Context, client *Client) error {
	var filename string
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		doc, err := requireDocument(r)
		if err != nil {
			return err
		}
		if doc.OwnerID != userID {
			return denied("Only the document owner can remove it.")
		}
		filename = doc.Filename
		r.Document = nil
		r.Whiteboard = []store.WhiteboardPage{}
		return nil
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventDocumentRemoved}, "")
	})
	if err != nil {
		return err
	}
	c.release(ctx, filename)
	return nil
}

// ValidateStroke rejects strokes whose points are not flat x,y pairs in [0,1].
func ValidateStroke(s store.Stroke) error {
	n := len(s.Points)
	if n < 2 || n%2 != 0 || n > maxStrokePoints {
		return invalid("stroke points must be x,y pairs")
	}
	for _, v := range s.Points {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return invalid("stroke points must be normalized to [0,1]")
		}
	}
	if math.IsNaN(s.Width) || s.Width <= 0 || s.Width > maxStrokeWidth {
		return invalid("stroke width out of range")
	}
	if len(s.Color) > maxColorLength {
		return invalid("stroke color too long")
	}
	return nil
}

// Draw appends a stroke to a page. In optimistic mode peers receive the stroke
// before it is persisted and a failed write is only logged.
func (c *Collab) Draw(ctx context.Context, client *Client, page int, stroke store.Stroke) error {
	if err := ValidateStroke(stroke); err != nil {
		return err
	}

	sent := false
	emit := func(r *store.Room, userID store.UserID) {
		broadcast(c.send, r, &Event{Kind: EventWhiteboardDraw, Data: DrawData{Page: page, Line: stroke, UserID: userID}}, client.ID)
		sent = true
	}

	var drawer store.UserID
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		if !Authorize(r, userID, ActionDraw) {
			return permissionError(ActionDraw)
		}
		// TotalPages may still be the upload placeholder, so only the hard cap applies.
		if page < 1 || page > maxTotalPages {
			return invalid("page out of range")
		}
		r.AppendStroke(page, stroke)
		drawer = userID
		if c.optimistic {
			emit(r, userID)
		}
		return nil
	}, func(r *store.Room) {
		if !sent {
			emit(r, drawer)
		}
	})
	if err != nil && sent {
		c.log.Warn().Err(err).Str("room", client.Room()).Int("page", page).Msg("stroke not persisted")
		return nil
	}
	return err
}

// ClearPage empties one page's strokes.
func (c *Collab) ClearPage(ctx context.Context, client *Client, page int) error {
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		if !Authorize(r, userID, ActionDraw) {
			return permissionError(ActionDraw)
		}
		r.ClearPage(page)
		return nil
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventWhiteboardClear, Data: ClearData{Page: page}}, "")
	})
	return err
}

// RequestScreenShare asks the room to let the client share its screen.
func (c *Collab) RequestScreenShare(ctx context.Context, client *Client) error {
	room, err := c.snapshot(ctx, client)
	if err != nil {
		return err
	}
	userID, name := client.Identity()
	broadcast(c.send, room, &Event{Kind: EventScreenShareRequested, Data: ScreenShareData{UserID: userID, UserName: name}}, "")
	return nil
}

// StartScreenShare records the client as the room's single sharer.
func (c *Collab) StartScreenShare(ctx context.Context, client *Client) error {
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		r.ScreenShare = store.ScreenShare{Active: true, UserID: userID, ConnectionID: client.ID}
		return nil
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventScreenShareActive, Data: ScreenShareData{
			UserID:   r.ScreenShare.UserID,
			SocketID: r.ScreenShare.ConnectionID,
		}}, "")
	})
	return err
}

// StopScreenShare ends the share if the client owns it.
func (c *Collab) StopScreenShare(ctx context.Context, client *Client) error {
	_, err := c.mutate(ctx, client, func(r *store.Room, _ store.UserID) error {
		if !r.ScreenShare.Active {
			return errNoChange
		}
		if r.ScreenShare.ConnectionID != client.ID {
			return denied("Only the sharer can stop the screen share.")
		}
		r.EndScreenShareOf(client.ID)
		return nil
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventScreenShareEnded}, "")
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

// Echo relays a transient media state to the other room members.
func (c *Collab) Echo(ctx context.Context, client *Client, kind EventKind, enabled bool) error {
	room, err := c.snapshot(ctx, client)
	if err != nil {
		return err
	}
	userID, name := client.Identity()

	var data any
	switch kind {
	case EventUserSpeaking:
		data = SpeakingData{UserID: userID, UserName: name, SocketID: client.ID}
	case EventUserStoppedSpeaking:
		data = SpeakingData{UserID: userID, SocketID: client.ID}
	case EventUserAudioToggled:
		data = AudioToggledData{UserID: userID, AudioEnabled: enabled, SocketID: client.ID}
	case EventUserVideoToggled:
		data = VideoToggledData{UserID: userID, VideoEnabled: enabled, SocketID: client.ID}
	default:
		return coreError(ErrCodeBadRequest, "unsupported echo")
	}
	broadcast(c.send, room, &Event{Kind: kind, Data: data}, client.ID)
	return nil
}
