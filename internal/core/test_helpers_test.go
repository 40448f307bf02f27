package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/wireroom-server/internal/log"
	"github.com/vovakirdan/wireroom-server/internal/store"
	"github.com/vovakirdan/wireroom-server/internal/store/memory"
)

func mustEvent(t testing.TB, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// noEvent drains whatever is buffered and fails if kind is among it.
func noEvent(t testing.TB, ch <-chan *Event, kind EventKind) {
	t.Helper()
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

type releasedFiles struct {
	mu    sync.Mutex
	names []string
}

func (f *releasedFiles) Release(_ context.Context, name string) error {
	f.mu.Lock()
	f.names = append(f.names, name)
	f.mu.Unlock()
	return nil
}

func (f *releasedFiles) has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.names {
		if n == name {
			return true
		}
	}
	return false
}

// flakyStore fails room saves on demand.
type flakyStore struct {
	*memory.MemoryStore
	failSave atomic.Bool
}

func (s *flakyStore) SaveRoom(ctx context.Context, room *store.Room) error {
	if s.failSave.Load() {
		return errors.New("disk on fire")
	}
	return s.MemoryStore.SaveRoom(ctx, room)
}

type harness struct {
	t       testing.TB
	ctrl    *Controller
	backend *flakyStore
	files   *releasedFiles
}

func newHarness(t testing.TB, opts Options) *harness {
	t.Helper()
	backend := &flakyStore{MemoryStore: memory.New()}
	files := &releasedFiles{}
	ctrl := NewController(store.NewRooms(backend), backend, files, opts, log.Nop())
	return &harness{t: t, ctrl: ctrl, backend: backend, files: files}
}

func (h *harness) room(code string) {
	h.t.Helper()
	if err := h.backend.InsertRoom(context.Background(), store.NewRoom(code, "")); err != nil {
		h.t.Fatalf("insert room: %v", err)
	}
}

func (h *harness) load(code string) *store.Room {
	h.t.Helper()
	r, err := h.backend.LoadRoom(context.Background(), code)
	if err != nil {
		h.t.Fatalf("load room: %v", err)
	}
	return r
}

func (h *harness) connect(id string) *Client {
	c := NewClient(id, "", "", 64)
	h.ctrl.Connect(c)
	return c
}

func (h *harness) do(c *Client, cmd *Command) {
	h.ctrl.Handle(context.Background(), c, cmd)
}

// join binds c to the room and consumes the joiner's snapshot, which always
// ends with groups-update.
func (h *harness) join(c *Client, code string, user store.UserID) {
	h.t.Helper()
	h.do(c, &Command{Kind: CommandJoinRoom, RoomCode: code, UserID: user, UserName: string(user)})
	mustEvent(h.t, c.Events, EventRoomParticipants)
	mustEvent(h.t, c.Events, EventGroupsUpdate)
}

// upload stages a stored file on c's room and installs it as the document.
func (h *harness) upload(c *Client, filename string, pages int) {
	h.t.Helper()
	if err := h.ctrl.StageDocument(context.Background(), c.Room(), filename); err != nil {
		h.t.Fatalf("stage document: %v", err)
	}
	h.do(c, &Command{Kind: CommandDocumentUploaded, Document: DocumentInfo{Filename: filename, TotalPages: pages}})
}

func intPtr(v int) *int { return &v }
