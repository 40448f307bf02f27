package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const codeAttempts = 8

// Rooms serializes every read-modify-write of a room through a per-room lock.
// Different rooms never contend with each other.
type Rooms struct {
	backend RoomStore

	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// NewRooms wraps a backend.
func NewRooms(backend RoomStore) *Rooms {
	return &Rooms{
		backend: backend,
		locks:   make(map[string]*roomLock),
	}
}

// NewCode returns a short shareable room code.
func NewCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

func (r *Rooms) lock(code string) func() {
	r.mu.Lock()
	l, ok := r.locks[code]
	if !ok {
		l = &roomLock{}
		r.locks[code] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, code)
		}
		r.mu.Unlock()
	}
}

// Get returns a room by code or ErrNotFound.
func (r *Rooms) Get(ctx context.Context, code string) (*Room, error) {
	return r.backend.LoadRoom(ctx, code)
}

// Create stores a new empty room under a fresh code.
func (r *Rooms) Create(ctx context.Context, creatorID UserID) (*Room, error) {
	for range codeAttempts {
		room := NewRoom(NewCode(), creatorID)
		err := r.backend.InsertRoom(ctx, room)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("insert room: %w", err)
		}
	}
	return nil, fmt.Errorf("allocate room code: %w", ErrConflict)
}

// Mutate applies fn to the room under its lock and persists the result.
//
// If fn returns ErrRemoveRoom the room is deleted instead and the returned
// room has Removed set. Any other fn error aborts without writing. commit, if
// given, runs after a successful write while the lock is still held, so events
// it emits are ordered the same way the mutations were applied.
func (r *Rooms) Mutate(ctx context.Context, code string, fn func(*Room) error, commit func(*Room)) (*Room, error) {
	unlock := r.lock(code)
	defer unlock()

	room, err := r.backend.LoadRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	switch err := fn(room); {
	case errors.Is(err, ErrRemoveRoom):
		if err := r.backend.DeleteRoom(ctx, code); err != nil {
			return nil, fmt.Errorf("delete room: %w", err)
		}
		room.Removed = true
	case err != nil:
		return nil, err
	default:
		if err := r.backend.SaveRoom(ctx, room); err != nil {
			return nil, fmt.Errorf("save room: %w", err)
		}
	}

	if commit != nil {
		commit(room)
	}
	return room, nil
}

// Delete removes a room regardless of its roster.
func (r *Rooms) Delete(ctx context.Context, code string) error {
	unlock := r.lock(code)
	defer unlock()
	return r.backend.DeleteRoom(ctx, code)
}

// List returns every stored room.
func (r *Rooms) List(ctx context.Context) ([]*Room, error) {
	return r.backend.ListRooms(ctx)
}
