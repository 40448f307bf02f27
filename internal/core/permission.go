package core

import "github.com/vovakirdan/wireroom-server/internal/store"

// Action is a controlled operation on the shared document.
type Action int

const (
	ActionNavigate Action = iota
	ActionDraw
)

func (a Action) String() string {
	if a == ActionDraw {
		return "draw"
	}
	return "navigate"
}

// Decision is the outcome of Authorize.
type Decision bool

const (
	Denied  Decision = false
	Allowed Decision = true
)

// Authorize decides whether userID may perform action on the room's document.
//
// Without a document everything is denied. Without a linked group the user
// must be a presenter. With a linked group the user must be a member of it and
// the group must grant the action; presenter status is then irrelevant.
func Authorize(room *store.Room, userID store.UserID, action Action) Decision {
	doc := room.Document
	if doc == nil {
		return Denied
	}
	if doc.LinkedGroupID == "" {
		return Decision(doc.IsPresenter(userID))
	}

	group := room.Group(doc.LinkedGroupID)
	if group == nil || !group.IsMember(userID) {
		return Denied
	}
	switch action {
	case ActionDraw:
		return Decision(group.Permissions.CanDraw)
	default:
		return Decision(group.Permissions.CanNavigate)
	}
}

func permissionError(action Action) *CoreError {
	return denied("You don't have permission to " + action.String() + ".")
}
