package discovery

import (
	"fmt"
	"strings"

	"github.com/jeanpaul/cookbook/internal/oracle"
)

// Action is what a scan does after an oracle failure.
type Action int

const (
	Abort Action = iota
	Skip
)

func (a Action) String() string {
	if a == Skip {
		return "skip"
	}
	return "abort"
}

// ParseAction accepts "abort" or "skip", case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	}
	return Abort, fmt.Errorf("unknown failure action %q (must be abort or skip)", s)
}

// Policy maps each failure kind to an action. Kinds missing from the map
// abort.
type Policy map[oracle.FailureKind]Action

// DefaultPolicy aborts on anything that means the oracle is refusing us or
// has changed its contract, and skips transient network errors.
func DefaultPolicy() Policy {
	return Policy{
		oracle.Forbidden:         Abort,
		oracle.RateLimited:       Abort,
		oracle.MalformedResponse: Abort,
		oracle.Network:           Skip,
	}
}

func (p Policy) For(kind oracle.FailureKind) Action {
	if a, ok := p[kind]; ok {
		return a
	}
	return Abort
}
