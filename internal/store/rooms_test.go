package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vovakirdan/wireroom-server/internal/store"
	"github.com/vovakirdan/wireroom-server/internal/store/memory"
)

func TestCreateGeneratesShortCode(t *testing.T) {
	rooms := store.NewRooms(memory.New())
	room, err := rooms.Create(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(room.Code) != 8 {
		t.Fatalf("expected 8 char code, got %q", room.Code)
	}
	if _, err := rooms.Get(context.Background(), room.Code); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

func TestMutateSerializesConcurrentJoins(t *testing.T) {
	ctx := context.Background()
	rooms := store.NewRooms(memory.New())
	room, err := rooms.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rooms.Mutate(ctx, room.Code, func(r *store.Room) error {
				r.Upsert(store.Participant{
					UserID:       store.UserID(fmt.Sprintf("u%d", i)),
					ConnectionID: fmt.Sprintf("c%d", i),
				})
				return nil
			}, nil)
			if err != nil {
				t.Errorf("Mutate failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := rooms.Get(ctx, room.Code)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Participants) != n {
		t.Fatalf("expected %d participants, got %d", n, len(got.Participants))
	}
}

func TestMutateRemoveRoom(t *testing.T) {
	ctx := context.Background()
	rooms := store.NewRooms(memory.New())
	room, _ := rooms.Create(ctx, "")

	var committed *store.Room
	got, err := rooms.Mutate(ctx, room.Code, func(*store.Room) error {
		return store.ErrRemoveRoom
	}, func(r *store.Room) { committed = r })
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if !got.Removed || committed == nil || !committed.Removed {
		t.Fatalf("expected removed room to be committed, got %+v", got)
	}
	if _, err := rooms.Get(ctx, room.Code); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMutateAbortSkipsWriteAndCommit(t *testing.T) {
	ctx := context.Background()
	rooms := store.NewRooms(memory.New())
	room, _ := rooms.Create(ctx, "")

	boom := errors.New("boom")
	called := false
	_, err := rooms.Mutate(ctx, room.Code, func(r *store.Room) error {
		r.Upsert(store.Participant{UserID: "u1", ConnectionID: "c1"})
		return boom
	}, func(*store.Room) { called = true })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if called {
		t.Fatal("commit must not run on abort")
	}
	got, _ := rooms.Get(ctx, room.Code)
	if len(got.Participants) != 0 {
		t.Fatalf("aborted mutation was persisted: %+v", got.Participants)
	}
}

func TestMutateMissingRoom(t *testing.T) {
	rooms := store.NewRooms(memory.New())
	_, err := rooms.Mutate(context.Background(), "NOPE", func(*store.Room) error { return nil }, nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
