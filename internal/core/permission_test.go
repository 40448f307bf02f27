package core

import (
	"testing"

	"github.com/vovakirdan/wireroom-server/internal/store"
)

func TestAuthorize(t *testing.T) {
	withDoc := func(linked string, groups ...store.Group) *store.Room {
		r := store.NewRoom("R", "")
		r.Document = &store.DocumentSession{TotalPages: 3, CurrentPage: 1, OwnerID: "owner", Presenters: []store.UserID{"owner", "p"}, LinkedGroupID: linked}
		r.Groups = groups
		return r
	}
	drawers := store.Group{ID: "g", Members: []store.UserID{"m", "owner"}, Permissions: store.Permissions{CanDraw: true}}

	tests := []struct {
		name   string
		room   *store.Room
		user   store.UserID
		action Action
		want   Decision
	}{
		{"no document", store.NewRoom("R", ""), "owner", ActionNavigate, Denied},
		{"presenter navigates", withDoc(""), "p", ActionNavigate, Allowed},
		{"presenter draws", withDoc(""), "p", ActionDraw, Allowed},
		{"non presenter", withDoc(""), "x", ActionDraw, Denied},
		{"member with flag", withDoc("g", drawers), "m", ActionDraw, Allowed},
		{"member without flag", withDoc("g", drawers), "m", ActionNavigate, Denied},
		{"presenter outside linked group", withDoc("g", drawers), "p", ActionDraw, Denied},
		{"owner member follows flags", withDoc("g", drawers), "owner", ActionNavigate, Denied},
		{"dangling link", withDoc("missing"), "p", ActionDraw, Denied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.room, tt.user, tt.action); got != tt.want {
				t.Fatalf("Authorize = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateStroke(t *testing.T) {
	ok := store.Stroke{Points: []float64{0, 0, 1, 1}, Color: "#000", Width: 2}
	if err := ValidateStroke(ok); err != nil {
		t.Fatalf("valid stroke rejected: %v", err)
	}
	bad := []store.Stroke{
		{Points: []float64{0.5}, Width: 1},
		{Points: []float64{0, 1.5}, Width: 1},
		{Points: []float64{-0.1, 0}, Width: 1},
		{Points: []float64{0, 0}, Width: 0},
	}
	for i, s := range bad {
		if err := ValidateStroke(s); err == nil {
			t.Errorf("stroke %d accepted", i)
		}
	}
}
