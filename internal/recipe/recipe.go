// Package recipe turns recorded provenance into a crafting route from the
// base items to a target.
package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeanpaul/cookbook/internal/item"
	"github.com/jeanpaul/cookbook/internal/store"
)

var (
	ErrUnknownItem = errors.New("unknown item")

	// ErrUnreachable means no recorded provenance leads from the base items
	// to the target.
	ErrUnreachable = errors.New("no known route from the base items")
)

// Step is one combination on the route.
type Step struct {
	First  string
	Second string
	Result string
}

func (s Step) String() string {
	return fmt.Sprintf("%s + %s = %s", s.First, s.Second, s.Result)
}

// Plan returns the combinations that craft target, each step using only base
// items or results of earlier steps. Every item is reached through the first
// recorded pair whose members were already reachable, so repeated calls on
// the same store give the same route. A base target needs no steps.
func Plan(st *store.Store, target string) ([]Step, error) {
	goal, ok := st.Get(target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, target)
	}
	if goal.IsBase() {
		return nil, nil
	}

	items := st.Items()
	reachable := make(map[string]bool, len(items))
	via := make(map[string]item.Pair, len(items))
	for _, it := range items {
		if it.IsBase() {
			reachable[it.Name] = true
		}
	}

	// Grow the reachable set until it stops changing. Each pass only uses
	// items reached in earlier passes, so cycles in provenance never loop.
	for changed := true; changed && !reachable[target]; {
		changed = false
		var reached []string
		for _, it := range items {
			if reachable[it.Name] {
				continue
			}
			for _, p := range it.Parents {
				if reachable[p.First] && reachable[p.Second] {
					via[it.Name] = p
					reached = append(reached, it.Name)
					break
				}
			}
		}
		for _, name := range reached {
			reachable[name] = true
			changed = true
		}
	}
	if !reachable[target] {
		return nil, fmt.Errorf("%w: %q", ErrUnreachable, target)
	}

	var steps []Step
	done := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		p, crafted := via[name]
		if !crafted || done[name] {
			return
		}
		done[name] = true
		visit(p.First)
		visit(p.Second)
		steps = append(steps, Step{First: p.First, Second: p.Second, Result: name})
	}
	visit(target)
	return steps, nil
}

// Render prints one "A + B = C" line per step.
func Render(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
