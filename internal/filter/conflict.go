package filter

import (
	"fmt"

	"github.com/verte-zerg/gazetag/internal/model"
)

// Resolution decides which code wins on events coded by two passes.
type Resolution string

const (
	KeepNew      Resolution = "new"
	KeepExisting Resolution = "existing"
)

// ParseResolution parses "new" or "existing".
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case KeepNew, KeepExisting:
		return Resolution(s), nil
	}
	return "", fmt.Errorf("unknown conflict resolution %q (use new or existing)", s)
}

// Choose implements Resolver with a fixed policy.
func (r Resolution) Choose(ConflictSummary) Resolution {
	return r
}

// ConflictSummary is what a caller sees when asked to settle conflicts.
type ConflictSummary struct {
	PassNumber int
	Count      int
	Matches    int
	Percent    float64
	Conflicts  []model.Conflict
}

// Resolver obtains the conflict decision from the caller.
type Resolver interface {
	Choose(ConflictSummary) Resolution
}

// Summary describes the conflicts of the pass.
func (r Result) Summary() ConflictSummary {
	return ConflictSummary{
		PassNumber: r.PassNumber,
		Count:      len(r.Conflicts),
		Matches:    r.Matches,
		Percent:    r.ConflictRate(),
		Conflicts:  r.Conflicts,
	}
}

// Resolve applies choice to the conflicts of res. KeepExisting restores the
// earlier code of every conflicting event and removes it from the match
// count. The conflicts stay on res for auditing.
func Resolve(events []model.Event, res *Result, choice Resolution) error {
	switch choice {
	case KeepNew:
		res.Resolution = KeepNew
		return nil
	case KeepExisting:
	default:
		return fmt.Errorf("unknown conflict resolution %q", choice)
	}
	for _, c := range res.Conflicts {
		if c.Index < 0 || c.Index >= len(events) {
			return fmt.Errorf("conflict index %d out of range", c.Index)
		}
	}
	for _, c := range res.Conflicts {
		restore(&events[c.Index], c)
		res.Matches--
	}
	res.Resolution = KeepExisting
	return nil
}

// restore puts back the code and sub-fields the event carried before the
// pass.
func restore(ev *model.Event, c model.Conflict) {
	ev.Category = c.Existing
	ev.CondCode = c.ExistingCond
	ev.RegionCode = c.ExistingRegion
	ev.PassCode = c.ExistingPass
}
