// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Kind classifies an event by its raw type label.
type Kind int

const (
	KindOther Kind = iota
	KindFixation
	KindSaccade
)

func (k Kind) String() string {
	switch k {
	case KindFixation:
		return "fixation"
	case KindSaccade:
		return "saccade"
	default:
		return "other"
	}
}

// Classifier derives an event Kind from its label by prefix match.
type Classifier struct {
	FixationPrefix string
	SaccadePrefix  string
}

// DefaultClassifier matches the EyeLink style labels FIX* and SACC*.
func DefaultClassifier() Classifier {
	return Classifier{FixationPrefix: "fix", SaccadePrefix: "sacc"}
}

// Kind returns the kind of the given event.
func (c Classifier) Kind(ev *Event) Kind {
	label := strings.ToLower(strings.TrimSpace(ev.Label))
	if c.FixationPrefix != "" && strings.HasPrefix(label, strings.ToLower(c.FixationPrefix)) {
		return KindFixation
	}
	if c.SaccadePrefix != "" && strings.HasPrefix(label, strings.ToLower(c.SaccadePrefix)) {
		return KindSaccade
	}
	return KindOther
}

// Event is one record of the ordered gaze event sequence.
// Empty strings and nil pointers mean the value is absent.
type Event struct {
	Label          string
	Region         string
	PreviousRegion string
	FirstPass      *bool
	RegionPass     *int
	FixCountRegion *int
	FixCountWord   *int
	Condition      *int
	Item           *int
	SaccStartX     *float64
	SaccEndX       *float64

	Category      string
	CondCode      string
	RegionCode    string
	PassCode      string
	OriginalLabel string

	// Raw holds the source cells of the event, aligned with the dataset
	// header, so unknown columns survive a load/save round trip.
	Raw []string
}

// Coded reports whether the event carries a category code.
func (e *Event) Coded() bool {
	return e.Category != ""
}

// Gate restricts filtering to selected conditions and items. A nil set is
// unconstrained.
type Gate struct {
	Conditions Set[int]
	Items      Set[int]
}

// Admits reports whether ev passes the condition and item constraints.
func (g Gate) Admits(ev *Event) bool {
	if g.Conditions != nil && (ev.Condition == nil || !g.Conditions.Has(*ev.Condition)) {
		return false
	}
	if g.Items != nil && (ev.Item == nil || !g.Items.Has(*ev.Item)) {
		return false
	}
	return true
}

// Spec is one filter request.
type Spec struct {
	TimeLocked Set[string]          `json:"time_locked"`
	Pass       Set[PassOption]      `json:"pass"`
	Previous   Set[string]          `json:"previous"`
	Next       Set[string]          `json:"next"`
	FixType    Set[FixTypeOption]   `json:"fix_type"`
	Incoming   Set[DirectionOption] `json:"incoming"`
	Outgoing   Set[DirectionOption] `json:"outgoing"`
}

// PassRecord is the audit entry of one completed filter pass.
type PassRecord struct {
	ID         string
	Number     int
	Code       string
	Spec       Spec
	Matches    int
	Conflicts  int
	Resolution string
	CreatedAt  time.Time
}

// Conflict describes an event that was already coded by an earlier pass.
type Conflict struct {
	Index     int
	Existing  string
	New       string
	Condition *int
	Region    string

	// Code sub-fields the event carried before the pass.
	ExistingCond   string
	ExistingRegion string
	ExistingPass   string
}
