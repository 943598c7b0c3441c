package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/computersciencehouse/borda/poll"
	"github.com/google/uuid"
)

type ballotKey struct {
	pollID  string
	voterID string
}

// MemoryStore keeps everything in process. State is lost on restart; it
// backs tests and the "memory" driver for local development.
type MemoryStore struct {
	mu      sync.RWMutex
	polls   map[string]*poll.Poll
	ballots map[string][]*poll.Ballot
	voters  map[ballotKey]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		polls:   make(map[string]*poll.Poll),
		ballots: make(map[string][]*poll.Ballot),
		voters:  make(map[ballotKey]struct{}),
	}
}

func (m *MemoryStore) CreatePoll(_ context.Context, p *poll.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = uuid.NewString()
	m.polls[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) GetPoll(_ context.Context, id string) (*poll.Poll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.polls[id]
	if !ok {
		return nil, fmt.Errorf("%w: poll %q", poll.ErrNotFound, id)
	}
	return p.Clone(), nil
}

func (m *MemoryStore) ListPolls(_ context.Context, filter poll.Filter) ([]*poll.Poll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	polls := make([]*poll.Poll, 0, len(m.polls))
	for _, p := range m.polls {
		if filter.Match(p) {
			polls = append(polls, p.Clone())
		}
	}
	sort.Slice(polls, func(i, j int) bool {
		if !polls[i].CreatedAt.Equal(polls[j].CreatedAt) {
			return polls[i].CreatedAt.After(polls[j].CreatedAt)
		}
		return polls[i].ID > polls[j].ID
	})
	return polls, nil
}

func (m *MemoryStore) Transition(_ context.Context, id string, t poll.Transition, at time.Time) (*poll.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.polls[id]
	if !ok {
		return nil, fmt.Errorf("%w: poll %q", poll.ErrNotFound, id)
	}
	if err := t.Apply(p, at); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func (m *MemoryStore) CastBallot(_ context.Context, b *poll.Ballot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.polls[b.PollID]
	if !ok {
		return fmt.Errorf("%w: poll %q", poll.ErrNotFound, b.PollID)
	}
	if p.Status != poll.StatusOpen {
		return poll.ErrPollNotOpen
	}
	key := ballotKey{pollID: b.PollID, voterID: b.VoterID}
	if _, voted := m.voters[key]; voted {
		return poll.ErrAlreadyVoted
	}

	b.ID = uuid.NewString()
	m.voters[key] = struct{}{}
	m.ballots[b.PollID] = append(m.ballots[b.PollID], b.Clone())
	p.VoteCount++
	return nil
}

func (m *MemoryStore) HasVoted(_ context.Context, pollID, voterID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, voted := m.voters[ballotKey{pollID: pollID, voterID: voterID}]
	return voted, nil
}

func (m *MemoryStore) ListBallots(_ context.Context, pollID string) ([]*poll.Ballot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.polls[pollID]; !ok {
		return nil, fmt.Errorf("%w: poll %q", poll.ErrNotFound, pollID)
	}
	ballots := make([]*poll.Ballot, len(m.ballots[pollID]))
	for i, b := range m.ballots[pollID] {
		ballots[i] = b.Clone()
	}
	return ballots, nil
}

func (m *MemoryStore) Close() error { return nil }
