package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ballot(order ...string) *Ballot {
	rs := make([]Ranking, len(order))
	for i, id := range order {
		rs[i] = Ranking{OptionID: id, Rank: i + 1}
	}
	return &Ballot{Rankings: rs}
}

func TestTallyTieBrokenByDefinitionOrder(t *testing.T) {
	p := abc()
	p.ID = "p1"
	p.Title = "Letters"

	got := Tally(p, []*Ballot{ballot("a", "b", "c"), ballot("b", "a", "c")})

	assert.Equal(t, "p1", got.PollID)
	assert.Equal(t, "Letters", got.Title)
	assert.Equal(t, 2, got.TotalVotes)
	assert.Equal(t, []OptionResult{
		{OptionID: "a", Label: "A", Score: 5, Rank: 1},
		{OptionID: "b", Label: "B", Score: 5, Rank: 2},
		{OptionID: "c", Label: "C", Score: 2, Rank: 3},
	}, got.Results)
}

func TestTallySingleBallot(t *testing.T) {
	p := &Poll{Options: []Option{{ID: "r", Label: "Red"}, {ID: "g", Label: "Green"}, {ID: "b", Label: "Blue"}}}

	got := Tally(p, []*Ballot{ballot("b", "r", "g")})

	assert.Equal(t, 1, got.TotalVotes)
	assert.Equal(t, []OptionResult{
		{OptionID: "b", Label: "Blue", Score: 3, Rank: 1},
		{OptionID: "r", Label: "Red", Score: 2, Rank: 2},
		{OptionID: "g", Label: "Green", Score: 1, Rank: 3},
	}, got.Results)
}

func TestTallyNoBallots(t *testing.T) {
	got := Tally(abc(), nil)

	assert.Equal(t, 0, got.TotalVotes)
	assert.Len(t, got.Results, 3)
	for i, r := range got.Results {
		assert.Equal(t, 0, r.Score)
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, abc().Options[i].ID, r.OptionID)
	}
}

func TestTallyIsReproducible(t *testing.T) {
	p := abc()
	ballots := []*Ballot{ballot("c", "b", "a"), ballot("a", "c", "b"), ballot("b", "a", "c")}

	assert.Equal(t, Tally(p, ballots), Tally(p, ballots))
}

func TestTallyIgnoresForeignRankings(t *testing.T) {
	b := &Ballot{Rankings: []Ranking{{"a", 1}, {"zz", 2}, {"c", 9}}}

	got := Tally(abc(), []*Ballot{b})

	assert.Equal(t, 3, got.Results[0].Score)
	assert.Equal(t, "a", got.Results[0].OptionID)
}
