// Package predicate evaluates filter criteria against one event of an
// ordered gaze event sequence.
//
// Every criterion follows the same rule: options are ORed, the "any" option
// (or an empty option set) always matches, and a concrete option whose
// required data is missing does not match.
package predicate

import (
	"errors"
	"math"

	"github.com/verte-zerg/gazetag/internal/model"
)

// DefaultNoiseThreshold is the minimum horizontal saccade amplitude that
// counts as a directional movement.
const DefaultNoiseThreshold = 10.0

// ErrMissingField reports that an event lacks data a criterion needs. It is
// never returned from the exported predicates.
var ErrMissingField = errors.New("missing field")

// Direction selects which saccade a direction criterion inspects.
type Direction int

const (
	Incoming Direction = iota
	Outgoing
)

// TimeLockedRegion reports whether the event lies in one of the target
// regions. An empty target set is unconstrained.
func TimeLockedRegion(ev *model.Event, targets model.Set[string]) bool {
	if targets.Len() == 0 {
		return true
	}
	return ev.Region != "" && targets.Has(ev.Region)
}

// PassIndex reports whether the event's region pass satisfies any option.
func PassIndex(ev *model.Event, opts model.Set[model.PassOption]) bool {
	if unconstrained(opts, model.PassAny) {
		return true
	}
	for opt := range opts {
		ok, err := passMatches(ev, opt)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func passMatches(ev *model.Event, opt model.PassOption) (bool, error) {
	if ev.RegionPass != nil {
		n := *ev.RegionPass
		switch opt {
		case model.PassFirst:
			return n == 1, nil
		case model.PassSecond:
			return n == 2, nil
		case model.PassThird:
			return n >= 3, nil
		}
		return false, nil
	}
	if ev.FirstPass == nil {
		return false, ErrMissingField
	}
	if opt == model.PassFirst {
		return *ev.FirstPass, nil
	}
	return !*ev.FirstPass, nil
}

// PreviousRegion reports whether the last region visited before the event
// is one of regions. An empty set is unconstrained.
func PreviousRegion(ev *model.Event, regions model.Set[string]) bool {
	if regions.Len() == 0 {
		return true
	}
	return ev.PreviousRegion != "" && regions.Has(ev.PreviousRegion)
}

// NextRegion reports whether the next distinct region fixated after
// events[i] is one of regions. Later fixations in the same region as
// events[i] are skipped. An empty set is unconstrained.
func NextRegion(events []model.Event, i int, regions model.Set[string], cls model.Classifier) bool {
	if regions.Len() == 0 {
		return true
	}
	j := nextDistinctRegion(events, i, cls)
	if j < 0 {
		return false
	}
	return regions.Has(events[j].Region)
}

// FixationType reports whether the event's position within its region
// visit satisfies any option.
func FixationType(ev *model.Event, opts model.Set[model.FixTypeOption]) bool {
	if unconstrained(opts, model.FixAny) {
		return true
	}
	for opt := range opts {
		ok, err := fixTypeMatches(ev, opt)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func fixTypeMatches(ev *model.Event, opt model.FixTypeOption) (bool, error) {
	if ev.FixCountRegion == nil {
		return false, ErrMissingField
	}
	n := *ev.FixCountRegion
	switch opt {
	case model.FixFirst:
		return n == 1, nil
	case model.FixSecond:
		return n == 2, nil
	case model.FixSubsequent:
		return n > 1, nil
	case model.FixSingle, model.FixLast:
		// Last-in-region needs a visit length upstream does not provide yet,
		// so it shares the single-fixation test.
		return n == 1 && (ev.FixCountWord == nil || *ev.FixCountWord == 1), nil
	}
	return false, nil
}

// SaccadeDirection reports whether the nearest saccade before (Incoming) or
// after (Outgoing) events[i] moves in one of the selected directions.
func SaccadeDirection(events []model.Event, i int, opts model.Set[model.DirectionOption], dir Direction, cls model.Classifier, threshold float64) bool {
	if unconstrained(opts, model.DirAny) {
		return true
	}
	var j int
	if dir == Incoming {
		j = previousSaccade(events, i, cls)
	} else {
		j = nextSaccade(events, i, cls)
	}
	if j < 0 {
		return false
	}
	got, err := saccadeDirection(&events[j], threshold)
	if err != nil {
		return false
	}
	return opts.Has(got)
}

// saccadeDirection returns DirAny for movements within the noise threshold.
func saccadeDirection(ev *model.Event, threshold float64) (model.DirectionOption, error) {
	if ev.SaccStartX == nil || ev.SaccEndX == nil {
		return "", ErrMissingField
	}
	dx := *ev.SaccEndX - *ev.SaccStartX
	if math.IsNaN(dx) || math.Abs(dx) <= threshold {
		return model.DirAny, nil
	}
	if dx > 0 {
		return model.DirForward, nil
	}
	return model.DirBackward, nil
}

func unconstrained[T ~string](opts model.Set[T], wildcard T) bool {
	return opts.Len() == 0 || opts.Has(wildcard)
}
