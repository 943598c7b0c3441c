package service

import (
	"context"
	"time"

	"github.com/computersciencehouse/borda/poll"
)

// Store persists polls and ballots. Implementations must make Transition a
// compare-and-swap on status and CastBallot a single atomic unit that
// inserts the ballot, enforces one ballot per (poll, voter), requires the
// poll to still be open and bumps its vote count.
type Store interface {
	CreatePoll(ctx context.Context, p *poll.Poll) error
	GetPoll(ctx context.Context, id string) (*poll.Poll, error)
	ListPolls(ctx context.Context, filter poll.Filter) ([]*poll.Poll, error)
	Transition(ctx context.Context, id string, t poll.Transition, at time.Time) (*poll.Poll, error)

	CastBallot(ctx context.Context, b *poll.Ballot) error
	HasVoted(ctx context.Context, pollID, voterID string) (bool, error)
	ListBallots(ctx context.Context, pollID string) ([]*poll.Ballot, error)
}
