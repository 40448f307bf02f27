package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// MemoryStore keeps rooms and messages in process memory.
// Rooms are stored encoded so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string][]byte
	messages map[string][]*store.Message
}

// New creates an empty in-memory store.
func New() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string][]byte),
		messages: make(map[string][]*store.Message),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// ==== RoomStore implementation ====

// LoadRoom retrieves a room by code.
func (s *MemoryStore) LoadRoom(_ context.Context, code string) (*store.Room, error) {
	s.mu.RLock()
	data, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("room %s: %w", code, store.ErrNotFound)
	}
	var room store.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &room, nil
}

// InsertRoom stores a new room.
func (s *MemoryStore) InsertRoom(_ context.Context, room *store.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.Code]; exists {
		return fmt.Errorf("room %s: %w", room.Code, store.ErrConflict)
	}
	s.rooms[room.Code] = data
	return nil
}

// SaveRoom overwrites a room.
func (s *MemoryStore) SaveRoom(_ context.Context, room *store.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	s.mu.Lock()
	s.rooms[room.Code] = data
	s.mu.Unlock()
	return nil
}

// DeleteRoom removes a room and its chat history.
func (s *MemoryStore) DeleteRoom(_ context.Context, code string) error {
	s.mu.Lock()
	delete(s.rooms, code)
	delete(s.messages, code)
	s.mu.Unlock()
	return nil
}

// ListRooms returns all rooms ordered by creation time.
func (s *MemoryStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	s.mu.RLock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	s.mu.RUnlock()

	rooms := make([]*store.Room, 0, len(codes))
	for _, code := range codes {
		room, err := s.LoadRoom(ctx, code)
		if err != nil {
			continue
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}

// ==== MessageStore implementation ====

// SaveMessage appends a message to its room history.
func (s *MemoryStore) SaveMessage(_ context.Context, msg *store.Message) error {
	cp := *msg
	s.mu.Lock()
	s.messages[msg.RoomCode] = append(s.messages[msg.RoomCode], &cp)
	s.mu.Unlock()
	return nil
}

// ListMessages returns up to limit messages of a room, newest first.
func (s *MemoryStore) ListMessages(_ context.Context, roomCode string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		return []*store.Message{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[roomCode]
	out := make([]*store.Message, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *history[i]
		out = append(out, &cp)
	}
	return out, nil
}
