package core

import (
	"testing"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

func TestGroupRequestFlow(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("R")
	owner := h.connect("owner")
	guest := h.connect("guest")
	h.join(owner, "R", "u1")
	h.join(guest, "R", "u2")

	h.do(owner, &Command{Kind: CommandCreateGroup, GroupName: " editors ", Permissions: store.Permissions{CanNavigate: true}})
	groups := mustEvent(t, guest.Events, EventGroupsUpdate).Data.([]store.Group)
	g := groups[0]
	if g.Name != "editors" || g.CreatorID != "u1" || !g.IsMember("u1") {
		t.Fatalf("unexpected group: %+v", g)
	}

	drain(owner.Events)
	h.do(guest, &Command{Kind: CommandRequestJoinGroup, GroupID: g.ID})
	groups = mustEvent(t, owner.Events, EventGroupsUpdate).Data.([]store.Group)
	if !groups[0].HasRequest("u2") {
		t.Fatalf("request not recorded: %+v", groups[0])
	}

	// Only the creator decides.
	h.do(guest, &Command{Kind: CommandApproveJoinRequest, GroupID: g.ID, TargetUserID: "u2"})
	mustEvent(t, guest.Events, EventPermissionError)

	h.do(owner, &Command{Kind: CommandApproveJoinRequest, GroupID: g.ID, TargetUserID: "u2"})
	groups = mustEvent(t, guest.Events, EventGroupsUpdate).Data.([]store.Group)
	if !groups[0].IsMember("u2") || groups[0].HasRequest("u2") {
		t.Fatalf("approve did not add member: %+v", groups[0])
	}

	// Members may leave on their own.
	drain(owner.Events)
	h.do(guest, &Command{Kind: CommandRemoveGroupMember, GroupID: g.ID})
	groups = mustEvent(t, owner.Events, EventGroupsUpdate).Data.([]store.Group)
	if groups[0].IsMember("u2") {
		t.Fatalf("self removal failed: %+v", groups[0])
	}

	h.do(owner, &Command{Kind: CommandRejectJoinRequest, GroupID: g.ID, TargetUserID: "u2"})
	if ev := mustEvent(t, owner.Events, EventError); ev.Error.Code != ErrCodeNotFound {
		t.Fatalf("expected not_found for missing request, got %+v", ev.Error)
	}
}

func TestDeleteLinkedGroupClearsLink(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("R")
	owner := h.connect("owner")
	peer := h.connect("peer")
	h.join(owner, "R", "u1")
	h.join(peer, "R", "u2")

	h.upload(owner, "pdf-g.pdf", 2)
	h.do(owner, &Command{Kind: CommandCreateGroup, GroupName: "G"})
	g := mustEvent(t, peer.Events, EventGroupsUpdate).Data.([]store.Group)[0]

	h.do(peer, &Command{Kind: CommandLinkDocumentGroup, GroupID: g.ID})
	mustEvent(t, peer.Events, EventPermissionError)

	h.do(owner, &Command{Kind: CommandLinkDocumentGroup, GroupID: g.ID})
	if doc := mustEvent(t, peer.Events, EventDocumentState).Data.(*store.DocumentSession); doc.LinkedGroupID != g.ID {
		t.Fatalf("link not set: %+v", doc)
	}

	h.do(owner, &Command{Kind: CommandDeleteGroup, GroupID: g.ID})
	mustEvent(t, peer.Events, EventGroupsUpdate)
	if doc := mustEvent(t, peer.Events, EventDocumentState).Data.(*store.DocumentSession); doc.LinkedGroupID != "" {
		t.Fatalf("link survived group deletion: %+v", doc)
	}

	room := h.load("R")
	if len(room.Groups) != 0 || room.Document.LinkedGroupID != "" {
		t.Fatalf("unexpected room: %+v", room)
	}
}

func TestLinkedGroupControlsNavigation(t *testing.T) {
	h := newHarness(t, defaultOpts)
	h.room("R")
	owner := h.connect("owner")
	member := h.connect("member")
	h.join(owner, "R", "u1")
	h.join(member, "R", "u2")

	h.upload(owner, "pdf-n.pdf", 4)
	h.do(owner, &Command{Kind: CommandCreateGroup, GroupName: "nav", Permissions: store.Permissions{CanNavigate: true}})
	g := mustEvent(t, member.Events, EventGroupsUpdate).Data.([]store.Group)[0]
	h.do(owner, &Command{Kind: CommandAddGroupMember, GroupID: g.ID, TargetUserID: "u2"})
	h.do(owner, &Command{Kind: CommandLinkDocumentGroup, GroupID: g.ID})
	drain(member.Events)

	h.do(member, &Command{Kind: CommandSetPage, TargetPage: intPtr(3)})
	if got := mustEvent(t, owner.Events, EventDocumentPageUpdate).Data.(PageUpdateData).CurrentPage; got != 3 {
		t.Fatalf("expected page 3, got %d", got)
	}

	h.do(member, &Command{Kind: CommandDraw, Page: 1, Stroke: store.Stroke{Points: []float64{0, 0}, Width: 1}})
	mustEvent(t, member.Events, EventPermissionError)
}
