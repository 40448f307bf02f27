package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

// MongoStore implements store.Store on MongoDB.
// Each room is one document keyed by its code.
type MongoStore struct {
	client   *mongo.Client
	rooms    *mongo.Collection
	messages *mongo.Collection
}

// Connect dials MongoDB and opens the store on the given database.
func Connect(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return New(client, client.Database(database)), nil
}

// New creates a store over an existing database handle and ensures indexes exist.
func New(client *mongo.Client, db *mongo.Database) *MongoStore {
	s := &MongoStore{
		client:   client,
		rooms:    db.Collection("rooms"),
		messages: db.Collection("messages"),
	}
	s.ensureIndexes()
	return s
}

func (s *MongoStore) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// History is read per room, newest first.
	s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ==== RoomStore implementation ====

// LoadRoom retrieves a room by code.
func (s *MongoStore) LoadRoom(ctx context.Context, code string) (*store.Room, error) {
	var room store.Room
	err := s.rooms.FindOne(ctx, bson.M{"_id": code}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("room %s: %w", code, store.ErrNotFound)
		}
		return nil, fmt.Errorf("find room: %w", err)
	}
	return &room, nil
}

// InsertRoom stores a new room.
func (s *MongoStore) InsertRoom(ctx context.Context, room *store.Room) error {
	if _, err := s.rooms.InsertOne(ctx, room); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("room %s: %w", room.Code, store.ErrConflict)
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// SaveRoom replaces a room document.
func (s *MongoStore) SaveRoom(ctx context.Context, room *store.Room) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.rooms.ReplaceOne(ctx, bson.M{"_id": room.Code}, room, opts); err != nil {
		return fmt.Errorf("replace room: %w", err)
	}
	return nil
}

// DeleteRoom removes a room and its chat history.
func (s *MongoStore) DeleteRoom(ctx context.Context, code string) error {
	if _, err := s.rooms.DeleteOne(ctx, bson.M{"_id": code}); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if _, err := s.messages.DeleteMany(ctx, bson.M{"room_id": code}); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

// ListRooms returns all rooms ordered by creation time.
func (s *MongoStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.rooms.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []*store.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	if rooms == nil {
		rooms = []*store.Room{}
	}
	return rooms, nil
}

// ==== MessageStore implementation ====

// SaveMessage inserts a chat message.
func (s *MongoStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages of a room, newest first.
func (s *MongoStore) ListMessages(ctx context.Context, roomCode string, limit int) ([]*store.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.messages.Find(ctx, bson.M{"room_id": roomCode}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*store.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if messages == nil {
		messages = []*store.Message{}
	}
	return messages, nil
}
