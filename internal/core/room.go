package core

import (
	"github.com/vovakirdan/wireroom-server/internal/store"
)

// Sender delivers an event to one connection without blocking. It reports
// false when the connection is unknown or too slow to accept the event.
type Sender interface {
	Send(connID string, ev *Event) bool
}

// broadcast sends an event to every participant of the room except the
// connection named by except. Returns how many deliveries succeeded.
func broadcast(s Sender, room *store.Room, ev *Event, except string) int {
	ev.Room = room.Code
	delivered := 0
	for _, p := range room.Participants {
		if p.ConnectionID == except {
			continue
		}
		if s.Send(p.ConnectionID, ev) {
			delivered++
		}
	}
	return delivered
}

// groupsOf returns the room's groups, never nil, for the wire.
func groupsOf(room *store.Room) []store.Group {
	if room.Groups == nil {
		return []store.Group{}
	}
	return room.Groups
}

func participantsOf(room *store.Room) []store.Participant {
	if room.Participants == nil {
		return []store.Participant{}
	}
	return room.Participants
}

func presentersOf(doc *store.DocumentSession) []store.UserID {
	if doc.Presenters == nil {
		return []store.UserID{}
	}
	return doc.Presenters
}
