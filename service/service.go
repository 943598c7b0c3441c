package service

import (
	"context"
	"fmt"
	"time"

	"github.com/computersciencehouse/borda/logging"
	"github.com/computersciencehouse/borda/poll"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

type OptionInput struct {
	ID    string `json:"id"`
	Label string `json:"label" validate:"required"`
}

type CreatePollInput struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description"`
	Options     []OptionInput `json:"options" validate:"required,min=2,dive"`
}

type PollService struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
}

func NewPollService(store Store) *PollService {
	return &PollService{
		store:    store,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *PollService) CreatePoll(ctx context.Context, ownerID string, in CreatePollInput) (*poll.Poll, error) {
	if err := poll.Authorize(nil, ownerID, poll.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", poll.ErrInvalidPoll, err.Error())
	}

	options := lo.Map(in.Options, func(o OptionInput, _ int) poll.Option {
		return poll.Option{ID: o.ID, Label: o.Label}
	})
	p, err := poll.New(ownerID, in.Title, in.Description, options, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreatePoll(ctx, p); err != nil {
		return nil, err
	}

	logging.Logger.WithFields(logrus.Fields{"module": "service", "method": "CreatePoll", "poll_id": p.ID, "owner_id": ownerID}).Info("poll created")
	return p, nil
}

func (s *PollService) GetPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	return s.store.GetPoll(ctx, pollID)
}

func (s *PollService) ListPolls(ctx context.Context, filter poll.Filter) ([]*poll.Poll, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", poll.ErrInvalidPoll, filter.Status)
	}
	return s.store.ListPolls(ctx, filter)
}

func (s *PollService) OpenPoll(ctx context.Context, pollID, callerID string) (*poll.Poll, error) {
	return s.transition(ctx, pollID, callerID, poll.ActionOpen, poll.Opening)
}

func (s *PollService) ClosePoll(ctx context.Context, pollID, callerID string) (*poll.Poll, error) {
	return s.transition(ctx, pollID, callerID, poll.ActionClose, poll.Closing)
}

func (s *PollService) transition(ctx context.Context, pollID, callerID string, action poll.Action, t poll.Transition) (*poll.Poll, error) {
	fields := logrus.Fields{"module": "service", "method": "transition", "transition": t.Name(), "poll_id": pollID, "caller_id": callerID}

	p, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := poll.Authorize(p, callerID, action); err != nil {
		logging.Logger.WithFields(fields).Warn("transition refused")
		return nil, err
	}
	if err := t.Check(p.Status); err != nil {
		return nil, err
	}

	updated, err := s.store.Transition(ctx, pollID, t, s.now())
	if err != nil {
		return nil, err
	}

	logging.Logger.WithFields(fields).Infof("poll is now %s", updated.Status)
	return updated, nil
}

func (s *PollService) SubmitVote(ctx context.Context, pollID, voterID string, rankings []poll.Ranking) (*poll.Ballot, error) {
	fields := logrus.Fields{"module": "service", "method": "SubmitVote", "poll_id": pollID, "voter_id": voterID}

	p, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := poll.Authorize(p, voterID, poll.ActionVote); err != nil {
		return nil, err
	}
	if p.Status != poll.StatusOpen {
		return nil, fmt.Errorf("%w: poll is %s", poll.ErrPollNotOpen, p.Status)
	}

	normalized, err := p.ValidateRankings(rankings)
	if err != nil {
		return nil, err
	}

	ballot := &poll.Ballot{
		PollID:      p.ID,
		VoterID:     voterID,
		Rankings:    normalized,
		SubmittedAt: s.now(),
	}
	if err := s.store.CastBallot(ctx, ballot); err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Info("ballot rejected")
		return nil, err
	}

	logging.Logger.WithFields(fields).Info("ballot cast")
	return ballot, nil
}

func (s *PollService) HasVoted(ctx context.Context, pollID, voterID string) (bool, error) {
	return s.store.HasVoted(ctx, pollID, voterID)
}

// GetResults recomputes the Borda tally from the current ballot set. It may
// miss ballots cast while it reads.
func (s *PollService) GetResults(ctx context.Context, pollID, callerID string) (*poll.TallyResult, error) {
	p, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := poll.Authorize(p, callerID, poll.ActionViewResults); err != nil {
		return nil, err
	}

	ballots, err := s.store.ListBallots(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return poll.Tally(p, ballots), nil
}
