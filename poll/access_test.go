package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		caller  string
		action  Action
		allowed bool
	}{
		{"anyone creates", "", "bob", ActionCreate, true},
		{"anonymous cannot create", "", "", ActionCreate, false},
		{"owner opens", StatusDraft, "alice", ActionOpen, true},
		{"stranger cannot open", StatusDraft, "bob", ActionOpen, false},
		{"owner closes", StatusOpen, "alice", ActionClose, true},
		{"stranger cannot close", StatusOpen, "bob", ActionClose, false},
		{"anyone votes", StatusOpen, "bob", ActionVote, true},
		{"anonymous cannot vote", StatusOpen, "", ActionVote, false},
		{"owner sees draft results", StatusDraft, "alice", ActionViewResults, true},
		{"owner sees open results", StatusOpen, "alice", ActionViewResults, true},
		{"stranger cannot see draft results", StatusDraft, "bob", ActionViewResults, false},
		{"stranger cannot see open results", StatusOpen, "bob", ActionViewResults, false},
		{"stranger sees closed results", StatusClosed, "bob", ActionViewResults, true},
		{"anonymous sees closed results", StatusClosed, "", ActionViewResults, true},
		{"unknown action", StatusOpen, "alice", Action("delete"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Poll{OwnerID: "alice", Status: tt.status}
			err := Authorize(p, tt.caller, tt.action)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestIsOwner(t *testing.T) {
	p := &Poll{OwnerID: "alice"}
	assert.True(t, IsOwner(p, "alice"))
	assert.False(t, IsOwner(p, "bob"))
	assert.False(t, IsOwner(&Poll{}, ""))
}
