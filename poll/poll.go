package poll

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const MinOptions = 2

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Poll is a named decision with a fixed, ordered option set. The order of
// Options is the canonical definition order used to break tally ties.
type Poll struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Options     []Option   `json:"options"`
	Status      Status     `json:"status"`
	OwnerID     string     `json:"owner_id"`
	VoteCount   int        `json:"vote_count"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
}

// Filter narrows ListPolls. Zero fields match everything.
type Filter struct {
	OwnerID string
	Status  Status
}

func (f Filter) Match(p *Poll) bool {
	if f.OwnerID != "" && p.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	return true
}

// New builds a draft poll owned by ownerID. Options without an ID get a
// generated one; labels are trimmed.
func New(ownerID, title, description string, options []Option, now time.Time) (*Poll, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPoll)
	}
	if len(options) < MinOptions {
		return nil, fmt.Errorf("%w: at least %d options are required, got %d", ErrInvalidPoll, MinOptions, len(options))
	}

	opts := make([]Option, len(options))
	for i, o := range options {
		label := strings.TrimSpace(o.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: option %d has an empty label", ErrInvalidPoll, i+1)
		}
		id := strings.TrimSpace(o.ID)
		if id == "" {
			id = uuid.NewString()
		}
		opts[i] = Option{ID: id, Label: label}
	}

	ids := lo.Map(opts, func(o Option, _ int) string { return o.ID })
	if dups := lo.FindDuplicates(ids); len(dups) > 0 {
		return nil, fmt.Errorf("%w: duplicate option id %q", ErrInvalidPoll, dups[0])
	}

	return &Poll{
		Title:       title,
		Description: strings.TrimSpace(description),
		Options:     opts,
		Status:      StatusDraft,
		OwnerID:     ownerID,
		CreatedAt:   now,
	}, nil
}

// OptionIndex returns the definition position of every option id.
func (p *Poll) OptionIndex() map[string]int {
	index := make(map[string]int, len(p.Options))
	for i, o := range p.Options {
		index[o.ID] = i
	}
	return index
}

func (p *Poll) Clone() *Poll {
	c := *p
	c.Options = append([]Option(nil), p.Options...)
	if p.ClosesAt != nil {
		t := *p.ClosesAt
		c.ClosesAt = &t
	}
	return &c
}
