package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

const roomIndexKey = "rooms"

// RedisStore implements store.Store on Redis. A room is a JSON string under
// room:<code>; its chat history is a capped list under room:<code>:messages.
type RedisStore struct {
	client     *redis.Client
	historyCap int64
}

// Options configures the Redis connection.
type Options struct {
	Addr       string
	Password   string
	DB         int
	HistoryCap int
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, opts Options) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, opts.HistoryCap), nil
}

// New wraps an existing client. historyCap bounds each room's message list.
func New(client *redis.Client, historyCap int) *RedisStore {
	if historyCap <= 0 {
		historyCap = 500
	}
	return &RedisStore{client: client, historyCap: int64(historyCap)}
}

func roomKey(code string) string     { return "room:" + code }
func messagesKey(code string) string { return "room:" + code + ":messages" }

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// ==== RoomStore implementation ====

// LoadRoom retrieves a room by code.
func (s *RedisStore) LoadRoom(ctx context.Context, code string) (*store.Room, error) {
	data, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("room %s: %w", code, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	var room store.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &room, nil
}

// InsertRoom stores a new room.
func (s *RedisStore) InsertRoom(ctx context.Context, room *store.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	ok, err := s.client.SetNX(ctx, roomKey(room.Code), data, 0).Result()
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	if !ok {
		return fmt.Errorf("room %s: %w", room.Code, store.ErrConflict)
	}
	if err := s.client.SAdd(ctx, roomIndexKey, room.Code).Err(); err != nil {
		return fmt.Errorf("index room: %w", err)
	}
	return nil
}

// SaveRoom overwrites a room.
func (s *RedisStore) SaveRoom(ctx context.Context, room *store.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(room.Code), data, 0)
		pipe.SAdd(ctx, roomIndexKey, room.Code)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	return nil
}

// DeleteRoom removes a room and its chat history.
func (s *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, roomKey(code), messagesKey(code))
		pipe.SRem(ctx, roomIndexKey, code)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// ListRooms returns all indexed rooms ordered by creation time.
func (s *RedisStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	codes, err := s.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	rooms := make([]*store.Room, 0, len(codes))
	for _, code := range codes {
		room, err := s.LoadRoom(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			s.client.SRem(ctx, roomIndexKey, code)
			continue
		}
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}

// ==== MessageStore implementation ====

// SaveMessage pushes a message to the head of the room history and trims it.
func (s *RedisStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	key := messagesKey(msg.RoomCode)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, s.historyCap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages of a room, newest first.
func (s *RedisStore) ListMessages(ctx context.Context, roomCode string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		return []*store.Message{}, nil
	}
	raw, err := s.client.LRange(ctx, messagesKey(roomCode), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]*store.Message, 0, len(raw))
	for _, item := range raw {
		var msg store.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}
