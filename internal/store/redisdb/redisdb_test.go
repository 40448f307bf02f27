package redisdb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

func newTestStore(t *testing.T, historyCap int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), historyCap)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRoomRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, 10)
	ctx := context.Background()

	room := store.NewRoom("ABCD1234", "creator")
	room.Upsert(store.Participant{UserID: "u1", ConnectionID: "c1", Name: "alice"})
	room.StageUpload("pdf-1.pdf")
	if err := s.InsertRoom(ctx, room); err != nil {
		t.Fatalf("InsertRoom: %v", err)
	}
	if err := s.InsertRoom(ctx, room); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	loaded, err := s.LoadRoom(ctx, "ABCD1234")
	if err != nil {
		t.Fatalf("LoadRoom: %v", err)
	}
	if loaded.CreatorID != "creator" || len(loaded.Participants) != 1 || loaded.Participants[0].ConnectionID != "c1" {
		t.Fatalf("unexpected room: %+v", loaded)
	}
	if len(loaded.Uploads) != 1 || loaded.Uploads[0] != "pdf-1.pdf" {
		t.Fatalf("staged uploads lost: %+v", loaded.Uploads)
	}

	loaded.Document = &store.DocumentSession{Filename: "pdf-1.pdf", TotalPages: 4, CurrentPage: 2}
	if err := s.SaveRoom(ctx, loaded); err != nil {
		t.Fatalf("SaveRoom: %v", err)
	}
	again, err := s.LoadRoom(ctx, "ABCD1234")
	if err != nil {
		t.Fatalf("LoadRoom after save: %v", err)
	}
	if again.Document == nil || again.Document.CurrentPage != 2 {
		t.Fatalf("document not persisted: %+v", again.Document)
	}

	if err := s.DeleteRoom(ctx, "ABCD1234"); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if _, err := s.LoadRoom(ctx, "ABCD1234"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRoomsSkipsStaleIndex(t *testing.T) {
	s, mr := newTestStore(t, 10)
	ctx := context.Background()

	older := store.NewRoom("OLD", "")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := store.NewRoom("NEW", "")
	for _, r := range []*store.Room{newer, older} {
		if err := s.InsertRoom(ctx, r); err != nil {
			t.Fatalf("InsertRoom: %v", err)
		}
	}
	if _, err := mr.SAdd(roomIndexKey, "GHOST"); err != nil {
		t.Fatalf("seed index: %v", err)
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Code != "OLD" || rooms[1].Code != "NEW" {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
	if ok, _ := mr.SIsMember(roomIndexKey, "GHOST"); ok {
		t.Fatal("stale index entry not pruned")
	}
}

func TestMessagesCappedNewestFirst(t *testing.T) {
	s, mr := newTestStore(t, 3)
	ctx := context.Background()

	for i := range 5 {
		msg := &store.Message{
			ID:        fmt.Sprintf("m%d", i),
			RoomCode:  "R",
			UserID:    "u1",
			Text:      fmt.Sprintf("hello %d", i),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}

	msgs, err := s.ListMessages(ctx, "R", 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 3 || msgs[0].ID != "m4" || msgs[2].ID != "m2" {
		t.Fatalf("unexpected history: %+v", msgs)
	}

	msgs, err = s.ListMessages(ctx, "R", 1)
	if err != nil || len(msgs) != 1 || msgs[0].ID != "m4" {
		t.Fatalf("limit not applied: %+v %v", msgs, err)
	}

	if err := s.DeleteRoom(ctx, "R"); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if mr.Exists(messagesKey("R")) {
		t.Fatal("history survived room deletion")
	}
}
