package core

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

func TestScreenShareLifecycle(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("SHARE1")

	c1 := h.connect("c1")
	c2 := h.connect("c2")
	h.join(c1, "SHARE1", "u1")
	h.join(c2, "SHARE1", "u2")

	h.do(c1, &Command{Kind: CommandRequestScreenShare})
	req := mustEvent(t, c2.Events, EventScreenShareRequested).Data.(ScreenShareData)
	if req.UserID != "u1" {
		t.Fatalf("unexpected request: %+v", req)
	}

	h.do(c1, &Command{Kind: CommandScreenShareStarted})
	active := mustEvent(t, c2.Events, EventScreenShareActive).Data.(ScreenShareData)
	if active.UserID != "u1" || active.SocketID != "c1" {
		t.Fatalf("unexpected share: %+v", active)
	}

	// A late joiner learns about the running share.
	c3 := h.connect("c3")
	h.do(c3, &Command{Kind: CommandJoinRoom, RoomCode: "SHARE1", UserID: "u3"})
	late := mustEvent(t, c3.Events, EventScreenShareActive).Data.(ScreenShareData)
	if late.SocketID != "c1" {
		t.Fatalf("late joiner saw wrong share: %+v", late)
	}

	h.do(c2, &Command{Kind: CommandScreenShareStopped})
	mustEvent(t, c2.Events, EventPermissionError)
	if !h.load("SHARE1").ScreenShare.Active {
		t.Fatalf("non-owner stopped the share")
	}

	drain(c2.Events)
	h.do(c1, &Command{Kind: CommandScreenShareStopped})
	mustEvent(t, c2.Events, EventScreenShareEnded)
	if h.load("SHARE1").ScreenShare.Active {
		t.Fatalf("share still active after stop")
	}

	// Stopping again is a silent no-op.
	drain(c1.Events)
	h.do(c1, &Command{Kind: CommandScreenShareStopped})
	noEvent(t, c1.Events, EventError)
}

func TestDisconnectEndsOwnedScreenShare(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("SHARE2")

	c1 := h.connect("c1")
	c2 := h.connect("c2")
	h.join(c1, "SHARE2", "u1")
	h.join(c2, "SHARE2", "u2")

	h.do(c1, &Command{Kind: CommandScreenShareStarted})
	mustEvent(t, c2.Events, EventScreenShareActive)

	h.ctrl.Disconnect(c1)
	mustEvent(t, c2.Events, EventUserLeft)
	mustEvent(t, c2.Events, EventScreenShareEnded)
}

func TestEchoEventsSkipSender(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("ECHO1")

	c1 := h.connect("c1")
	c2 := h.connect("c2")
	h.join(c1, "ECHO1", "u1")
	h.join(c2, "ECHO1", "u2")
	drain(c1.Events)

	h.do(c1, &Command{Kind: CommandUserSpeaking})
	speaking := mustEvent(t, c2.Events, EventUserSpeaking).Data.(SpeakingData)
	if speaking.UserID != "u1" || speaking.SocketID != "c1" {
		t.Fatalf("unexpected speaking echo: %+v", speaking)
	}

	h.do(c1, &Command{Kind: CommandToggleAudio, Enabled: false})
	audio := mustEvent(t, c2.Events, EventUserAudioToggled).Data.(AudioToggledData)
	if audio.AudioEnabled || audio.SocketID != "c1" {
		t.Fatalf("unexpected audio echo: %+v", audio)
	}

	noEvent(t, c1.Events, EventUserSpeaking)
	noEvent(t, c1.Events, EventUserAudioToggled)
}

func TestDocumentOwnerControls(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("DOC1")

	c1 := h.connect("c1")
	c2 := h.connect("c2")
	h.join(c1, "DOC1", "u1")
	h.join(c2, "DOC1", "u2")

	h.upload(c1, "pdf-a.pdf", 2)
	mustEvent(t, c2.Events, EventDocumentState)

	h.do(c1, &Command{Kind: CommandUpdateMetadata, TotalPages: intPtr(8)})
	doc := mustEvent(t, c2.Events, EventDocumentState).Data.(*store.DocumentSession)
	if doc.TotalPages != 8 {
		t.Fatalf("expected 8 pages, got %d", doc.TotalPages)
	}

	h.do(c2, &Command{Kind: CommandTogglePresentation})
	mustEvent(t, c2.Events, EventPermissionError)

	h.do(c1, &Command{Kind: CommandTogglePresentation})
	doc = mustEvent(t, c2.Events, EventDocumentState).Data.(*store.DocumentSession)
	if !doc.IsPresenting {
		t.Fatalf("expected presentation mode on")
	}

	h.do(c1, &Command{Kind: CommandRevokePresenter, TargetUserID: "u1"})
	ev := mustEvent(t, c1.Events, EventError)
	if ev.Error.Code != ErrCodeValidation {
		t.Fatalf("expected validation error, got %+v", ev.Error)
	}

	h.do(c2, &Command{Kind: CommandRemoveDocument})
	mustEvent(t, c2.Events, EventPermissionError)

	h.upload(c1, "pdf-b.pdf", 1)
	mustEvent(t, c2.Events, EventDocumentState)
	if !h.files.has("pdf-a.pdf") {
		t.Fatalf("replaced document file was not released")
	}

	h.do(c1, &Command{Kind: CommandRemoveDocument})
	mustEvent(t, c2.Events, EventDocumentRemoved)
	if h.load("DOC1").Document != nil || !h.files.has("pdf-b.pdf") {
		t.Fatalf("document not removed and released")
	}
}

func TestClearPage(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("WB")

	c1 := h.connect("c1")
	c2 := h.connect("c2")
	h.join(c1, "WB", "u1")
	h.join(c2, "WB", "u2")
	h.upload(c1, "pdf-wb.pdf", 3)

	stroke := store.Stroke{Points: []float64{0.1, 0.1, 0.2, 0.2}, Color: "#00f", Width: 2}
	h.do(c1, &Command{Kind: CommandDraw, Page: 1, Stroke: stroke})
	h.do(c1, &Command{Kind: CommandDraw, Page: 2, Stroke: stroke})
	drain(c1.Events)
	drain(c2.Events)

	h.do(c2, &Command{Kind: CommandClearPage, Page: 1})
	mustEvent(t, c2.Events, EventPermissionError)
	noEvent(t, c1.Events, EventWhiteboardClear)
	if strokes := h.load("WB").Strokes(1); len(strokes) != 1 {
		t.Fatalf("denied clear changed page 1: %+v", strokes)
	}

	h.do(c1, &Command{Kind: CommandClearPage, Page: 1})
	cleared := mustEvent(t, c2.Events, EventWhiteboardClear).Data.(ClearData)
	if cleared.Page != 1 {
		t.Fatalf("unexpected clear event: %+v", cleared)
	}
	mustEvent(t, c1.Events, EventWhiteboardClear)

	room := h.load("WB")
	if len(room.Strokes(1)) != 0 {
		t.Fatalf("page 1 not cleared: %+v", room.Strokes(1))
	}
	if len(room.Strokes(2)) != 1 {
		t.Fatalf("clear touched page 2: %+v", room.Strokes(2))
	}
}

func TestDrawBeyondPlaceholderPageCount(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("WB2")

	c1 := h.connect("c1")
	c2 := h.connect("c2")
	h.join(c1, "WB2", "u1")
	h.join(c2, "WB2", "u2")
	h.upload(c1, "pdf-early.pdf", 1)

	stroke := store.Stroke{Points: []float64{0.3, 0.3, 0.4, 0.4}, Width: 1}
	h.do(c1, &Command{Kind: CommandDraw, Page: 4, Stroke: stroke})
	if got := mustEvent(t, c2.Events, EventWhiteboardDraw).Data.(DrawData).Page; got != 4 {
		t.Fatalf("expected stroke on page 4, got %d", got)
	}

	h.do(c1, &Command{Kind: CommandDraw, Page: 0, Stroke: stroke})
	if ev := mustEvent(t, c1.Events, EventError); ev.Error.Code != ErrCodeValidation {
		t.Fatalf("expected validation error for page 0, got %+v", ev.Error)
	}
}

func TestDocumentMustBeStagedForRoom(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("A")
	h.room("B")

	a := h.connect("a")
	b := h.connect("b")
	h.join(a, "A", "u1")
	h.join(b, "B", "u2")

	h.upload(a, "pdf-a.pdf", 2)
	mustEvent(t, a.Events, EventDocumentState)

	// Room B cannot adopt room A's file.
	h.do(b, &Command{Kind: CommandDocumentUploaded, Document: DocumentInfo{Filename: "pdf-a.pdf", TotalPages: 1}})
	if ev := mustEvent(t, b.Events, EventError); ev.Error.Code != ErrCodeValidation {
		t.Fatalf("expected validation error, got %+v", ev.Error)
	}
	h.do(b, &Command{Kind: CommandRemoveDocument})
	if ev := mustEvent(t, b.Events, EventError); ev.Error.Code != ErrCodeNotFound {
		t.Fatalf("expected not_found, got %+v", ev.Error)
	}
	if h.files.has("pdf-a.pdf") {
		t.Fatal("room A's file was released by room B")
	}
	if h.load("B").Document != nil {
		t.Fatal("room B installed a foreign file")
	}

	// Installing consumes the staged file, so it cannot be announced twice.
	h.do(a, &Command{Kind: CommandDocumentUploaded, Document: DocumentInfo{Filename: "pdf-a.pdf", TotalPages: 1}})
	if ev := mustEvent(t, a.Events, EventError); ev.Error.Code != ErrCodeValidation {
		t.Fatalf("expected validation error on re-announce, got %+v", ev.Error)
	}

	// Files stored but never installed go away with the room.
	if err := h.ctrl.StageDocument(context.Background(), "B", "pdf-pending.pdf"); err != nil {
		t.Fatalf("stage document: %v", err)
	}
	h.ctrl.Disconnect(b)
	if !h.files.has("pdf-pending.pdf") {
		t.Fatal("pending upload not released with the room")
	}

	if err := h.ctrl.StageDocument(context.Background(), "B", "pdf-late.pdf"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound staging into a removed room, got %v", err)
	}
}
