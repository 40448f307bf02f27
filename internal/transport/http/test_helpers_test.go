package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wireroom-server/internal/config"
	"github.com/vovakirdan/wireroom-server/internal/core"
	"github.com/vovakirdan/wireroom-server/internal/files"
	"github.com/vovakirdan/wireroom-server/internal/log"
	"github.com/vovakirdan/wireroom-server/internal/proto"
	"github.com/vovakirdan/wireroom-server/internal/store"
	"github.com/vovakirdan/wireroom-server/internal/store/sqlite"
)

type testEnv struct {
	ts    *httptest.Server
	ctrl  *core.Controller
	rooms *store.Rooms
	docs  *files.Storage
	dir   string
}

// startTestServer runs the full router over an in-memory SQLite store.
func startTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.Documents.Dir = t.TempDir()
	cfg.Documents.MaxUploadBytes = 1 << 10
	if mutate != nil {
		mutate(&cfg)
	}

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := log.Nop()
	docs, err := files.New(cfg.Documents.Dir, cfg.Documents.MaxUploadBytes, logger)
	if err != nil {
		t.Fatalf("files.New: %v", err)
	}

	rooms := store.NewRooms(st)
	ctrl := core.NewController(rooms, st, docs, core.Options{
		OptimisticStrokes: cfg.Whiteboard.OptimisticBroadcast,
		MaxMessageLength:  cfg.Chat.MaxTextLength,
		HistoryLimit:      cfg.Chat.HistoryLimit,
	}, logger)

	server := NewServer(ctrl, docs, &cfg, logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, ctrl: ctrl, rooms: rooms, docs: docs, dir: cfg.Documents.Dir}
}

func (e *testEnv) createRoom(t *testing.T) string {
	t.Helper()
	room, err := e.rooms.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room.Code
}

func (e *testEnv) wsURL(query string) string {
	u := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

func dial(ctx context.Context, t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// readUntil skips frames until one matches the event name ("error" matches error frames).
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, event string) wireOutbound {
	t.Helper()
	for {
		var out wireOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if out.Event == event || (event == proto.OutboundTypeError && out.Type == proto.OutboundTypeError) {
			return out
		}
	}
}
