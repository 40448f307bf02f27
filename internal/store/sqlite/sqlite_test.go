package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewWithSetup(":memory:", ApplySchema)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRoomRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room := store.NewRoom("ABC123", "u1")
	if err := s.InsertRoom(ctx, room); err != nil {
		t.Fatalf("InsertRoom failed: %v", err)
	}
	if err := s.InsertRoom(ctx, room); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on duplicate insert, got %v", err)
	}

	room.Upsert(store.Participant{UserID: "u1", ConnectionID: "c1", Name: "alice"})
	room.Document = &store.DocumentSession{ID: "d1", Filename: "pdf-1.pdf", TotalPages: 5, CurrentPage: 1, Presenters: []store.UserID{"u1"}}
	room.AppendStroke(2, store.Stroke{Points: []float64{0, 0, 1, 1}, Color: "#000", Width: 2})
	if err := s.SaveRoom(ctx, room); err != nil {
		t.Fatalf("SaveRoom failed: %v", err)
	}

	got, err := s.LoadRoom(ctx, "ABC123")
	if err != nil {
		t.Fatalf("LoadRoom failed: %v", err)
	}
	if len(got.Participants) != 1 || got.Participants[0].ConnectionID != "c1" {
		t.Fatalf("unexpected participants: %+v", got.Participants)
	}
	if got.Document == nil || got.Document.TotalPages != 5 {
		t.Fatalf("unexpected document: %+v", got.Document)
	}
	if strokes := got.Strokes(2); len(strokes) != 1 || strokes[0].Color != "#000" {
		t.Fatalf("unexpected strokes: %+v", strokes)
	}

	if err := s.DeleteRoom(ctx, "ABC123"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, err := s.LoadRoom(ctx, "ABC123"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListMessagesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := range 5 {
		msg := &store.Message{
			ID:        fmt.Sprintf("m%d", i),
			RoomCode:  "ROOM",
			UserID:    "u1",
			UserName:  "alice",
			Text:      fmt.Sprintf("hello %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}
	if err := s.SaveMessage(ctx, &store.Message{ID: "other", RoomCode: "OTHER", Text: "x", CreatedAt: base}); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	msgs, err := s.ListMessages(ctx, "ROOM", 3)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"m4", "m3", "m2"} {
		if msgs[i].ID != want {
			t.Errorf("msgs[%d] = %s, want %s", i, msgs[i].ID, want)
		}
	}
}

func TestListRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, code := range []string{"AAAA", "BBBB"} {
		if err := s.InsertRoom(ctx, store.NewRoom(code, "")); err != nil {
			t.Fatalf("InsertRoom failed: %v", err)
		}
	}
	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
}
