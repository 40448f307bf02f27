package store

import (
	"slices"
	"time"
)

// NewRoom constructs an empty room.
func NewRoom(code string, creatorID UserID) *Room {
	return &Room{
		Code:         code,
		CreatorID:    creatorID,
		Participants: []Participant{},
		Whiteboard:   []WhiteboardPage{},
		Groups:       []Group{},
		CreatedAt:    time.Now().UTC(),
	}
}

// Empty returns true if nobody is on the roster.
func (r *Room) Empty() bool {
	return len(r.Participants) == 0
}

// ParticipantByUser returns the roster entry of a user, or nil.
func (r *Room) ParticipantByUser(id UserID) *Participant {
	for i := range r.Participants {
		if r.Participants[i].UserID == id {
			return &r.Participants[i]
		}
	}
	return nil
}

// ParticipantByConnection returns the roster entry bound to a connection, or nil.
func (r *Room) ParticipantByConnection(connID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].ConnectionID == connID {
			return &r.Participants[i]
		}
	}
	return nil
}

// Upsert puts a user on the roster. If the user already has an entry bound to
// another connection, that entry is rebound and the stale connection id is returned.
func (r *Room) Upsert(p Participant) (staleConnID string) {
	if existing := r.ParticipantByUser(p.UserID); existing != nil {
		if existing.ConnectionID != p.ConnectionID {
			staleConnID = existing.ConnectionID
		}
		existing.ConnectionID = p.ConnectionID
		existing.Name = p.Name
		return staleConnID
	}
	r.Participants = append(r.Participants, p)
	return ""
}

// Detach drops the entry bound to connID when it belongs to a user other than
// keep, so one connection never holds two roster entries.
func (r *Room) Detach(connID string, keep UserID) (Participant, bool) {
	cur := r.ParticipantByConnection(connID)
	if cur == nil || cur.UserID == keep {
		return Participant{}, false
	}
	return r.RemoveConnection(connID)
}

// RemoveConnection drops the roster entry bound to connID. Returns the removed entry.
func (r *Room) RemoveConnection(connID string) (Participant, bool) {
	for i, p := range r.Participants {
		if p.ConnectionID == connID {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return p, true
		}
	}
	return Participant{}, false
}

// EndScreenShareOf clears the screen share if connID owns it.
func (r *Room) EndScreenShareOf(connID string) bool {
	if !r.ScreenShare.Active || r.ScreenShare.ConnectionID != connID {
		return false
	}
	r.ScreenShare = ScreenShare{}
	return true
}

// Group returns the group with the given id, or nil.
func (r *Room) Group(id string) *Group {
	for i := range r.Groups {
		if r.Groups[i].ID == id {
			return &r.Groups[i]
		}
	}
	return nil
}

// RemoveGroup deletes a group and unlinks it from the document in the same step.
// Returns whether the group existed and whether the document link was cleared.
func (r *Room) RemoveGroup(id string) (removed, unlinked bool) {
	for i := range r.Groups {
		if r.Groups[i].ID == id {
			r.Groups = append(r.Groups[:i], r.Groups[i+1:]...)
			removed = true
			break
		}
	}
	if removed && r.Document != nil && r.Document.LinkedGroupID == id {
		r.Document.LinkedGroupID = ""
		unlinked = true
	}
	return removed, unlinked
}

// RemoveGroupsCreatedBy deletes every group created by a user.
func (r *Room) RemoveGroupsCreatedBy(id UserID) (removed int, unlinked bool) {
	var ids []string
	for _, g := range r.Groups {
		if g.CreatorID == id {
			ids = append(ids, g.ID)
		}
	}
	for _, gid := range ids {
		ok, un := r.RemoveGroup(gid)
		if ok {
			removed++
		}
		unlinked = unlinked || un
	}
	return removed, unlinked
}

// StageUpload records a stored file the room may later install as its document.
func (r *Room) StageUpload(name string) {
	if !slices.Contains(r.Uploads, name) {
		r.Uploads = append(r.Uploads, name)
	}
}

// TakeUpload removes name from the staged uploads. It reports false when the
// file was never stored for this room.
func (r *Room) TakeUpload(name string) bool {
	i := slices.Index(r.Uploads, name)
	if i < 0 {
		return false
	}
	r.Uploads = slices.Delete(r.Uploads, i, i+1)
	return true
}

// Files lists every stored file the room holds: its document and staged uploads.
func (r *Room) Files() []string {
	names := slices.Clone(r.Uploads)
	if r.Document != nil && r.Document.Filename != "" {
		names = append(names, r.Document.Filename)
	}
	return names
}

// AppendStroke adds a stroke to a page, creating the page bucket on first use.
func (r *Room) AppendStroke(page int, s Stroke) {
	for i := range r.Whiteboard {
		if r.Whiteboard[i].Page == page {
			r.Whiteboard[i].Strokes = append(r.Whiteboard[i].Strokes, s)
			return
		}
	}
	r.Whiteboard = append(r.Whiteboard, WhiteboardPage{Page: page, Strokes: []Stroke{s}})
}

// ClearPage empties a page's strokes. Returns false if the page had none.
func (r *Room) ClearPage(page int) bool {
	for i := range r.Whiteboard {
		if r.Whiteboard[i].Page == page {
			r.Whiteboard = append(r.Whiteboard[:i], r.Whiteboard[i+1:]...)
			return true
		}
	}
	return false
}

// Strokes returns the strokes stored for a page.
func (r *Room) Strokes(page int) []Stroke {
	for _, p := range r.Whiteboard {
		if p.Page == page {
			return p.Strokes
		}
	}
	return nil
}

// ClampPage bounds p to [1, TotalPages].
func (d *DocumentSession) ClampPage(p int) int {
	total := d.TotalPages
	if total < 1 {
		total = 1
	}
	if p < 1 {
		return 1
	}
	if p > total {
		return total
	}
	return p
}

// IsPresenter reports whether a user is in the presenter set.
func (d *DocumentSession) IsPresenter(id UserID) bool {
	return containsUser(d.Presenters, id)
}

// AddPresenter adds a presenter. Returns false if already present.
func (d *DocumentSession) AddPresenter(id UserID) bool {
	if d.IsPresenter(id) {
		return false
	}
	d.Presenters = append(d.Presenters, id)
	return true
}

// RemovePresenter removes a presenter. Returns false if absent.
func (d *DocumentSession) RemovePresenter(id UserID) bool {
	if !d.IsPresenter(id) {
		return false
	}
	d.Presenters = removeUser(d.Presenters, id)
	return true
}

// IsMember reports whether a user belongs to the group.
func (g *Group) IsMember(id UserID) bool {
	return containsUser(g.Members, id)
}

// AddMember adds a user and drops any pending request of theirs.
func (g *Group) AddMember(id UserID) bool {
	g.dropRequest(id)
	if g.IsMember(id) {
		return false
	}
	g.Members = append(g.Members, id)
	return true
}

// RemoveMember removes a user from the group.
func (g *Group) RemoveMember(id UserID) bool {
	if !g.IsMember(id) {
		return false
	}
	g.Members = removeUser(g.Members, id)
	return true
}

// AddRequest records a pending join request. Members and duplicates are ignored.
func (g *Group) AddRequest(req JoinRequest) bool {
	if g.IsMember(req.UserID) || g.HasRequest(req.UserID) {
		return false
	}
	g.Requests = append(g.Requests, req)
	return true
}

// HasRequest reports whether a user has a pending request.
func (g *Group) HasRequest(id UserID) bool {
	for _, r := range g.Requests {
		if r.UserID == id {
			return true
		}
	}
	return false
}

func (g *Group) dropRequest(id UserID) bool {
	for i, r := range g.Requests {
		if r.UserID == id {
			g.Requests = append(g.Requests[:i], g.Requests[i+1:]...)
			return true
		}
	}
	return false
}

// RejectRequest drops a pending request.
func (g *Group) RejectRequest(id UserID) bool {
	return g.dropRequest(id)
}

// Clone returns a deep copy of the room so callers can read it outside the lock.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Participants = append([]Participant{}, r.Participants...)
	c.Uploads = slices.Clone(r.Uploads)
	c.Whiteboard = make([]WhiteboardPage, len(r.Whiteboard))
	for i, p := range r.Whiteboard {
		c.Whiteboard[i] = WhiteboardPage{Page: p.Page, Strokes: append([]Stroke{}, p.Strokes...)}
	}
	c.Groups = make([]Group, len(r.Groups))
	for i, g := range r.Groups {
		g.Members = append([]UserID{}, g.Members...)
		g.Requests = append([]JoinRequest{}, g.Requests...)
		c.Groups[i] = g
	}
	if r.Document != nil {
		d := *r.Document
		d.Presenters = append([]UserID{}, r.Document.Presenters...)
		c.Document = &d
	}
	return &c
}
