package poll

import "fmt"

type Action string

const (
	ActionCreate      Action = "create"
	ActionOpen        Action = "open"
	ActionClose       Action = "close"
	ActionVote        Action = "vote"
	ActionViewResults Action = "view_results"
)

func IsOwner(p *Poll, callerID string) bool {
	return callerID != "" && p.OwnerID == callerID
}

// Authorize applies the per-action policy for callerID against p. p may be
// nil for ActionCreate. Closed results are readable by anyone. Once-per-poll
// voting is enforced by the ballot store, not here.
func Authorize(p *Poll, callerID string, action Action) error {
	if action == ActionViewResults && p.Status == StatusClosed {
		return nil
	}
	if callerID == "" {
		return fmt.Errorf("%w: %s requires an authenticated caller", ErrForbidden, action)
	}

	switch action {
	case ActionCreate, ActionVote:
		return nil
	case ActionOpen, ActionClose:
		if IsOwner(p, callerID) {
			return nil
		}
		return fmt.Errorf("%w: only the owner may %s this poll", ErrForbidden, action)
	case ActionViewResults:
		if IsOwner(p, callerID) {
			return nil
		}
		return fmt.Errorf("%w: results are hidden until the poll is closed", ErrForbidden)
	}
	return fmt.Errorf("%w: unknown action %q", ErrForbidden, action)
}
