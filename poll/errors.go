package poll

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPollNotOpen            = errors.New("poll is not open")
	ErrInvalidBallot          = errors.New("invalid ballot")
	ErrAlreadyVoted           = errors.New("already voted")
	ErrInvalidPoll            = errors.New("invalid poll")
)
