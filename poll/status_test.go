package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionApply(t *testing.T) {
	now := time.Now()
	p := &Poll{Status: StatusDraft}

	require.NoError(t, Opening.Apply(p, now))
	assert.Equal(t, StatusOpen, p.Status)
	assert.Nil(t, p.ClosesAt)

	require.NoError(t, Closing.Apply(p, now))
	assert.Equal(t, StatusClosed, p.Status)
	require.NotNil(t, p.ClosesAt)
	assert.Equal(t, now, *p.ClosesAt)
}

func TestTransitionRejectsOutOfOrder(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		tr     Transition
	}{
		{"open an open poll", StatusOpen, Opening},
		{"open a closed poll", StatusClosed, Opening},
		{"close a draft poll", StatusDraft, Closing},
		{"close a closed poll", StatusClosed, Closing},
		{"zero transition", StatusDraft, Transition{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Poll{Status: tt.status}
			err := tt.tr.Apply(p, time.Now())
			assert.ErrorIs(t, err, ErrInvalidStateTransition)
			assert.Equal(t, tt.status, p.Status)
			assert.Nil(t, p.ClosesAt)
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusDraft.Valid())
	assert.True(t, StatusOpen.Valid())
	assert.True(t, StatusClosed.Valid())
	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
}
