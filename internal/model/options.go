package model

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Set is an unordered collection of filter option values.
type Set[T cmp.Ordered] map[T]struct{}

// NewSet builds a set from values.
func NewSet[T cmp.Ordered](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is a member. A nil set has no members.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s Set[T]) Len() int {
	return len(s)
}

// Values returns the members in ascending order.
func (s Set[T]) Values() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes a set from an array.
func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var values []T
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewSet(values...)
	return nil
}

// PassOption selects events by how many times their region was entered.
type PassOption string

const (
	PassAny    PassOption = "any"
	PassFirst  PassOption = "first"
	PassSecond PassOption = "second"
	PassThird  PassOption = "third"
)

// FixTypeOption selects fixations by their position within a region visit.
type FixTypeOption string

const (
	FixAny        FixTypeOption = "any"
	FixFirst      FixTypeOption = "first"
	FixSingle     FixTypeOption = "single"
	FixSecond     FixTypeOption = "second"
	FixSubsequent FixTypeOption = "subsequent"
	FixLast       FixTypeOption = "last"
)

// DirectionOption selects saccades by horizontal direction.
type DirectionOption string

const (
	DirAny      DirectionOption = "any"
	DirForward  DirectionOption = "forward"
	DirBackward DirectionOption = "backward"
)

var (
	passOptions = []PassOption{PassAny, PassFirst, PassSecond, PassThird}
	fixOptions  = []FixTypeOption{FixAny, FixFirst, FixSingle, FixSecond, FixSubsequent, FixLast}
	dirOptions  = []DirectionOption{DirAny, DirForward, DirBackward}
)

// ParsePassOptions parses a list of pass option names.
func ParsePassOptions(values []string) (Set[PassOption], error) {
	return parseOptions(values, passOptions, "pass")
}

// ParseFixTypeOptions parses a list of fixation type option names.
func ParseFixTypeOptions(values []string) (Set[FixTypeOption], error) {
	return parseOptions(values, fixOptions, "fixation type")
}

// ParseDirectionOptions parses a list of saccade direction option names.
func ParseDirectionOptions(values []string) (Set[DirectionOption], error) {
	return parseOptions(values, dirOptions, "saccade direction")
}

func parseOptions[T ~string](values []string, known []T, what string) (Set[T], error) {
	set := Set[T]{}
	for _, raw := range values {
		name := strings.TrimSpace(strings.ToLower(raw))
		if name == "" {
			continue
		}
		idx := slices.Index(known, T(name))
		if idx < 0 {
			names := make([]string, len(known))
			for i, k := range known {
				names[i] = string(k)
			}
			return nil, fmt.Errorf("unknown %s option %q (available: %s)", what, raw, strings.Join(names, ", "))
		}
		set[known[idx]] = struct{}{}
	}
	return set, nil
}
