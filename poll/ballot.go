package poll

import (
	"fmt"
	"sort"
	"time"
)

type Ranking struct {
	OptionID string `json:"option_id"`
	Rank     int    `json:"rank"`
}

// Ballot is one voter's complete ranking for a poll. It is written once and
// never changed.
type Ballot struct {
	ID          string    `json:"id"`
	PollID      string    `json:"poll_id"`
	VoterID     string    `json:"voter_id"`
	Rankings    []Ranking `json:"rankings"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ValidateRankings checks that rankings is a permutation over exactly the
// poll's options with ranks 1..N, and returns a copy sorted by rank.
func (p *Poll) ValidateRankings(rankings []Ranking) ([]Ranking, error) {
	n := len(p.Options)
	if len(rankings) != n {
		return nil, fmt.Errorf("%w: expected %d rankings, got %d", ErrInvalidBallot, n, len(rankings))
	}

	index := p.OptionIndex()
	seenOption := make(map[string]bool, n)
	seenRank := make([]bool, n+1)
	for _, r := range rankings {
		if _, ok := index[r.OptionID]; !ok {
			return nil, fmt.Errorf("%w: unknown option %q", ErrInvalidBallot, r.OptionID)
		}
		if seenOption[r.OptionID] {
			return nil, fmt.Errorf("%w: option %q ranked twice", ErrInvalidBallot, r.OptionID)
		}
		if r.Rank < 1 || r.Rank > n {
			return nil, fmt.Errorf("%w: rank %d out of range 1..%d", ErrInvalidBallot, r.Rank, n)
		}
		if seenRank[r.Rank] {
			return nil, fmt.Errorf("%w: rank %d used twice", ErrInvalidBallot, r.Rank)
		}
		seenOption[r.OptionID] = true
		seenRank[r.Rank] = true
	}

	sorted := append([]Ranking(nil), rankings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	return sorted, nil
}

func (b *Ballot) Clone() *Ballot {
	c := *b
	c.Rankings = append([]Ranking(nil), b.Rankings...)
	return &c
}
