package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

const maxGroupName = 64

// Group administration is creator-only: the creator deletes the group,
// decides on join requests and manages members. Anyone may ask to join and
// any member may remove themselves.

// groupChange runs change on the client's room and broadcasts the group list.
// When the document link was affected the document state is broadcast too.
func (c *Collab) groupChange(ctx context.Context, client *Client, change func(r *store.Room, userID store.UserID) (linkChanged bool, err error)) error {
	linkChanged := false
	_, err := c.mutate(ctx, client, func(r *store.Room, userID store.UserID) error {
		var err error
		linkChanged, err = change(r, userID)
		return err
	}, func(r *store.Room) {
		broadcast(c.send, r, &Event{Kind: EventGroupsUpdate, Data: groupsOf(r)}, "")
		if linkChanged {
			broadcast(c.send, r, &Event{Kind: EventDocumentState, Data: r.Document}, "")
		}
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

func findGroup(r *store.Room, id string) (*store.Group, error) {
	g := r.Group(id)
	if g == nil {
		return nil, notFound("group not found")
	}
	return g, nil
}

func ownGroup(r *store.Room, id string, userID store.UserID) (*store.Group, error) {
	g, err := findGroup(r, id)
	if err != nil {
		return nil, err
	}
	if g.CreatorID != userID {
		return nil, denied("Only the group creator can do that.")
	}
	return g, nil
}

// CreateGroup adds a group with the client as creator and first member.
func (c *Collab) CreateGroup(ctx context.Context, client *Client, name string, perms store.Permissions) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxGroupName {
		return invalid("group name must be 1-64 characters")
	}
	return c.groupChange(ctx, client, func(r *store.Room, userID store.UserID) (bool, error) {
		r.Groups = append(r.Groups, store.Group{
			ID:          uuid.NewString(),
			Name:        name,
			CreatorID:   userID,
			Members:     []store.UserID{userID},
			Requests:    []store.JoinRequest{},
			Permissions: perms,
			CreatedAt:   time.Now().UTC(),
		})
		return false, nil
	})
}

// DeleteGroup removes a group and, in the same step, any document link to it.
func (c *Collab) DeleteGroup(ctx context.Context, client *Client, groupID string) error {
	return c.groupChange(ctx, client, func(r *store.Room, userID store.UserID) (bool, error) {
		if _, err := ownGroup(r, groupID, userID); err != nil {
			return false, err
		}
		_, unlinked := r.RemoveGroup(groupID)
		return unlinked, nil
	})
}

// RequestJoinGroup records a pending request from the client.
func (c *Collab) RequestJoinGroup(ctx context.Context, client *Client, groupID string) error {
	_, name := client.Identity()
	return c.groupChange(ctx, client, func(r *store.Room, userID store.UserID) (bool, error) {
		g, err := findGroup(r, groupID)
		if err != nil {
			return false, err
		}
		if !g.AddRequest(store.JoinRequest{UserID: userID, UserName: name}) {
			return false, errNoChange
		}
		return false, nil
	})
}

// ApproveJoinRequest turns a pending request into membership.
func (c *Collab) ApproveJoinRequest(ctx context.Context, client *Client, groupID string, target store.UserID) error {
	return c.groupChange(ctx, client, func(r *store.Room, userID store.UserID) (bool, error) {
		g, err := ownGroup(r, groupID, userID)
		if err != nil {
			return false, err
		}
		if !g.HasRequest(target) {
			return false, notFound("join request not found")
		}
		g.AddMember(target)
		return false, nil
	})
}

// RejectJoinRequest drops a pending request.
func (c *Collab) RejectJoinRequest(ctx context.Context, client *Client, groupID string, target store.UserID) error {
	return c.groupChange(ctx, client, func(r *store.Room, userID store.UserID) (bool, error) {
		g, err := ownGroup(r, groupID, userID)
		if err != nil {
			return false, err
		}
		if !g.RejectRequest(target) {
			return false, notFound("join request not found")
		}
		return false, nil
	})
}

// AddGroupMember adds a user directly, bypassing the request flow.
func (c *Collab) AddGroupMember(ctx context.Context, client *Client, groupID string, target store.UserID) error {
	if target == "" {
		return invalid("userId is required")
	}
	return c.groupChange(ctx, client, func(r *store.Room, userID store.UserID) (bool, error) {
		g, err := ownGroup(r, groupID, userID)
		if err != nil {
			return false, err
		}
		if !g.AddMember(target) {
			return false, errNoChange
		}
		return false, nil
	})
}

// RemoveGroupMember removes a member. The creator may remove anyone; members
// may remove themselves.
func (c *Collab) RemoveGroupMember(ctx context.Context, client *Client, groupID string, target store.UserID) error {
	return c.groupChange(ctx, client, func(r *store.Room, userID store.UserID) (bool, error) {
		g, err := findGroup(r, groupID)
		if err != nil {
			return false, err
		}
		if target == "" {
			target = userID
		}
		if g.CreatorID != userID && target != userID {
			return false, denied("Only the group creator can remove other members.")
		}
		if !g.RemoveMember(target) {
			return false, errNoChange
		}
		return false, nil
	})
}

// LinkDocumentGroup hands document control to a group, or back to the
// presenters when groupID is empty. Only the document owner may do this.
func (c *Collab) LinkDocumentGroup(ctx context.Context, client *Client, groupID string) error {
	return c.groupChange(ctx, client, func(r *store.Room, userID store.UserID) (bool, error) {
		doc, err := requireDocument(r)
		if err != nil {
			return false, err
		}
		if doc.OwnerID != userID {
			return false, denied("Only the document owner can link it to a group.")
		}
		if groupID != "" {
			if _, err := findGroup(r, groupID); err != nil {
				return false, err
			}
		}
		if doc.LinkedGroupID == groupID {
			return false, errNoChange
		}
		doc.LinkedGroupID = groupID
		return true, nil
	})
}
