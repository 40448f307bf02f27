package core

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// RoomLocator reports which room a live connection is bound to.
type RoomLocator interface {
	RoomOf(connID string) (string, bool)
}

// Relay forwards peer negotiation envelopes between connections of the same
// room. It keeps no state and never retries; an envelope for an unknown,
// foreign or slow peer is dropped.
type Relay struct {
	send  Sender
	peers RoomLocator
	log   *zerolog.Logger
}

// NewRelay constructs a relay over a sender.
func NewRelay(send Sender, peers RoomLocator, logger *zerolog.Logger) *Relay {
	return &Relay{send: send, peers: peers, log: logger}
}

// Forward delivers payload to connection to, tagged with the sender's connection id.
func (r *Relay) Forward(from *Client, kind EventKind, to string, payload json.RawMessage) error {
	room := from.Room()
	if room == "" {
		return errNotJoined
	}
	if to == "" {
		return invalid("to is required")
	}
	if target, ok := r.peers.RoomOf(to); !ok || target != room {
		r.log.Debug().Str("conn_id", from.ID).Str("to", to).Msg("signal target not in room")
		return nil
	}
	ev := &Event{Kind: kind, Room: room, Data: SignalData{From: from.ID, Payload: payload}}
	if !r.send.Send(to, ev) {
		r.log.Debug().Str("conn_id", from.ID).Str("to", to).Msg("signal dropped")
	}
	return nil
}
