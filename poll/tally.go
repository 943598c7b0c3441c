package poll

import "sort"

type OptionResult struct {
	OptionID string `json:"option_id"`
	Label    string `json:"label"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

type TallyResult struct {
	PollID     string         `json:"poll_id"`
	Title      string         `json:"title"`
	Status     Status         `json:"status"`
	TotalVotes int            `json:"total_votes"`
	Results    []OptionResult `json:"results"`
}

// Tally scores ballots with the Borda count: among N options, rank r earns
// N-r+1 points. Results are ordered by score descending; equal scores keep
// the poll's option definition order.
func Tally(p *Poll, ballots []*Ballot) *TallyResult {
	n := len(p.Options)
	index := p.OptionIndex()
	scores := make([]int, n)

	for _, b := range ballots {
		for _, r := range b.Rankings {
			i, ok := index[r.OptionID]
			if !ok || r.Rank < 1 || r.Rank > n {
				continue
			}
			scores[i] += n - r.Rank + 1
		}
	}

	results := make([]OptionResult, n)
	for i, o := range p.Options {
		results[i] = OptionResult{OptionID: o.ID, Label: o.Label, Score: scores[i]}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	for i := range results {
		results[i].Rank = i + 1
	}

	return &TallyResult{
		PollID:     p.ID,
		Title:      p.Title,
		Status:     p.Status,
		TotalVotes: len(ballots),
		Results:    results,
	}
}
