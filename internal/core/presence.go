package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// FileReleaser deletes stored documents that are no longer referenced.
type FileReleaser interface {
	Release(ctx context.Context, filename string) error
}

// Presence tracks who is in which room.
type Presence struct {
	rooms *store.Rooms
	send  Sender
	files FileReleaser
	log   *zerolog.Logger
}

// NewPresence constructs the presence manager.
func NewPresence(rooms *store.Rooms, send Sender, files FileReleaser, logger *zerolog.Logger) *Presence {
	return &Presence{rooms: rooms, send: send, files: files, log: logger}
}

// Join puts the client on a room roster. A user already present under another
// connection is rebound to this one and peers are told to drop the stale link
// before the joiner receives its snapshot.
func (p *Presence) Join(ctx context.Context, client *Client, code string, userID store.UserID, name string) (*store.Room, error) {
	if code == "" {
		return nil, invalid("roomId is required")
	}
	if prev := client.Room(); prev != "" && prev != code {
		p.Leave(ctx, client)
	}
	if userID == "" {
		userID = store.UserID(client.ID)
	}
	if name == "" {
		name = "Guest"
	}

	var (
		stale      string
		shareEnded bool
		detached   bool
		groupsGone int
		unlinked   bool
	)
	room, err := p.rooms.Mutate(ctx, code, func(r *store.Room) error {
		// The same connection joining under another identity leaves as the old one first.
		if prev, ok := r.Detach(client.ID, userID); ok {
			detached = true
			shareEnded = r.EndScreenShareOf(client.ID)
			groupsGone, unlinked = r.RemoveGroupsCreatedBy(prev.UserID)
		}
		stale = r.Upsert(store.Participant{
			UserID:       userID,
			ConnectionID: client.ID,
			Name:         name,
			JoinedAt:     time.Now().UTC(),
		})
		if stale != "" && r.EndScreenShareOf(stale) {
			shareEnded = true
		}
		return nil
	}, func(r *store.Room) {
		client.bind(r.Code, userID, name)

		if detached {
			broadcast(p.send, r, &Event{Kind: EventUserLeft, Data: UserLeftData{
				SocketID:     client.ID,
				Participants: participantsOf(r),
			}}, client.ID)
		}
		if stale != "" {
			broadcast(p.send, r, &Event{Kind: EventUserLeft, Data: UserLeftData{
				SocketID:     stale,
				Participants: participantsOf(r),
			}}, client.ID)
		}
		if shareEnded {
			broadcast(p.send, r, &Event{Kind: EventScreenShareEnded}, "")
		}
		if groupsGone > 0 {
			broadcast(p.send, r, &Event{Kind: EventGroupsUpdate, Data: groupsOf(r)}, client.ID)
		}
		if unlinked {
			broadcast(p.send, r, &Event{Kind: EventDocumentState, Data: r.Document}, client.ID)
		}

		p.send.Send(client.ID, &Event{Kind: EventRoomParticipants, Room: r.Code, Data: participantsOf(r)})
		if r.Document != nil {
			p.send.Send(client.ID, &Event{Kind: EventDocumentState, Room: r.Code, Data: r.Document})
		}
		if r.ScreenShare.Active {
			p.send.Send(client.ID, &Event{Kind: EventScreenShareActive, Room: r.Code, Data: ScreenShareData{
				UserID:   r.ScreenShare.UserID,
				SocketID: r.ScreenShare.ConnectionID,
			}})
		}
		p.send.Send(client.ID, &Event{Kind: EventGroupsUpdate, Room: r.Code, Data: groupsOf(r)})

		broadcast(p.send, r, &Event{Kind: EventUserJoined, Data: UserJoinedData{
			UserID:       userID,
			UserName:     name,
			Participants: participantsOf(r),
		}}, client.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("room " + code + " not found")
		}
		return nil, err
	}

	p.log.Info().Str("room", code).Str("conn_id", client.ID).Str("user_id", userID.String()).
		Bool("replaced", stale != "").Msg("participant joined")
	return room, nil
}

// Leave removes the client's roster entry. A client that never joined is a no-op.
// When the roster empties the room is deleted in the same step and its
// document file is released.
func (p *Presence) Leave(ctx context.Context, client *Client) {
	code := client.Room()
	if code == "" {
		return
	}
	defer client.unbind()

	var (
		left       store.Participant
		shareEnded bool
		groupsGone int
		unlinked   bool
		filenames  []string
	)
	room, err := p.rooms.Mutate(ctx, code, func(r *store.Room) error {
		var ok bool
		left, ok = r.RemoveConnection(client.ID)
		if !ok {
			return errNoChange
		}
		shareEnded = r.EndScreenShareOf(client.ID)
		if r.Empty() {
			filenames = r.Files()
			return store.ErrRemoveRoom
		}
		groupsGone, unlinked = r.RemoveGroupsCreatedBy(left.UserID)
		return nil
	}, func(r *store.Room) {
		if r.Removed {
			return
		}
		broadcast(p.send, r, &Event{Kind: EventUserLeft, Data: UserLeftData{
			SocketID:     client.ID,
			Participants: participantsOf(r),
		}}, "")
		if shareEnded {
			broadcast(p.send, r, &Event{Kind: EventScreenShareEnded}, "")
		}
		if groupsGone > 0 {
			broadcast(p.send, r, &Event{Kind: EventGroupsUpdate, Data: groupsOf(r)}, "")
		}
		if unlinked {
			broadcast(p.send, r, &Event{Kind: EventDocumentState, Data: r.Document}, "")
		}
	})
	switch {
	case errors.Is(err, errNoChange), errors.Is(err, store.ErrNotFound):
		return
	case err != nil:
		p.log.Error().Err(err).Str("room", code).Str("conn_id", client.ID).Msg("leave failed")
		return
	}

	p.log.Info().Str("room", code).Str("conn_id", client.ID).Str("user_id", left.UserID.String()).
		Bool("room_removed", room.Removed).Msg("participant left")

	if room.Removed {
		p.release(ctx, filenames...)
	}
}

// Recover clears every roster left over from a previous process and deletes
// the rooms that end up empty. Returns how many rooms were removed.
func (p *Presence) Recover(ctx context.Context) (int, error) {
	rooms, err := p.rooms.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, stale := range rooms {
		var filenames []string
		room, err := p.rooms.Mutate(ctx, stale.Code, func(r *store.Room) error {
			r.Participants = []store.Participant{}
			r.ScreenShare = store.ScreenShare{}
			filenames = r.Files()
			return store.ErrRemoveRoom
		}, nil)
		if err != nil {
			p.log.Warn().Err(err).Str("room", stale.Code).Msg("recover room failed")
			continue
		}
		if room.Removed {
			removed++
			p.release(ctx, filenames...)
		}
	}
	return removed, nil
}

func (p *Presence) release(ctx context.Context, filenames ...string) {
	if p.files == nil {
		return
	}
	for _, name := range filenames {
		if name == "" {
			continue
		}
		if err := p.files.Release(ctx, name); err != nil {
			p.log.Warn().Err(err).Str("file", name).Msg("release document failed")
		}
	}
}
