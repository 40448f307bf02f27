package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wireroom-server/internal/store"
)

// Schema creates the tables used by the store. It is safe to apply repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS rooms (
	code       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	room_code  TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	user_name  TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages (room_code, created_at);
`

// SQLiteStore implements store.Store for SQLite.
// Rooms are kept as JSON documents keyed by code.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without touching disk.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ApplySchema creates the store tables.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RoomStore implementation ====

// LoadRoom retrieves a room by code.
func (s *SQLiteStore) LoadRoom(ctx context.Context, code string) (*store.Room, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM rooms WHERE code = ?`, code).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", code, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	var room store.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &room, nil
}

// InsertRoom stores a new room.
func (s *SQLiteStore) InsertRoom(ctx context.Context, room *store.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (code, data, created_at) VALUES (?, ?, ?)`,
		room.Code, string(data), room.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("room %s: %w", room.Code, store.ErrConflict)
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// SaveRoom overwrites a room document.
func (s *SQLiteStore) SaveRoom(ctx context.Context, room *store.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rooms (code, data, created_at) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET data = excluded.data
	`, room.Code, string(data), room.CreatedAt)
	if err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	return nil
}

// DeleteRoom removes a room and its chat history.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE room_code = ?`, code); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return tx.Commit()
}

// ListRooms returns all rooms ordered by creation time.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM rooms ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*store.Room{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		var room store.Room
		if err := json.Unmarshal([]byte(data), &room); err != nil {
			return nil, fmt.Errorf("decode room: %w", err)
		}
		rooms = append(rooms, &room)
	}
	return rooms, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a chat message.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, room_code, user_id, user_name, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.RoomCode, string(msg.UserID), msg.UserName, msg.Text, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages of a room, newest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomCode string, limit int) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_code, user_id, user_name, text, created_at
		FROM messages
		WHERE room_code = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []*store.Message{}
	for rows.Next() {
		var (
			msg    store.Message
			userID string
		)
		if err := rows.Scan(&msg.ID, &msg.RoomCode, &userID, &msg.UserName, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.UserID = store.UserID(userID)
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
