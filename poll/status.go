package poll

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusClosed:
		return true
	}
	return false
}

// Transition is one forward step of the poll lifecycle. Only Opening and
// Closing exist; there is no way to move a poll to an arbitrary status.
type Transition struct {
	name string
	from Status
	to   Status
}

var (
	Opening = Transition{name: "open", from: StatusDraft, to: StatusOpen}
	Closing = Transition{name: "close", from: StatusOpen, to: StatusClosed}
)

func (t Transition) Name() string { return t.name }
func (t Transition) From() Status { return t.from }
func (t Transition) To() Status   { return t.to }

// Valid reports whether t is one of the declared transitions.
func (t Transition) Valid() bool {
	return t == Opening || t == Closing
}

// Check returns ErrInvalidStateTransition unless a poll in status s may take t.
func (t Transition) Check(s Status) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown transition", ErrInvalidStateTransition)
	}
	if s != t.from {
		return fmt.Errorf("%w: cannot %s a %s poll", ErrInvalidStateTransition, t.name, s)
	}
	return nil
}

// Apply moves p forward in place. Closing stamps ClosesAt.
func (t Transition) Apply(p *Poll, at time.Time) error {
	if err := t.Check(p.Status); err != nil {
		return err
	}
	p.Status = t.to
	if t.to == StatusClosed {
		closedAt := at
		p.ClosesAt = &closedAt
	}
	return nil
}
