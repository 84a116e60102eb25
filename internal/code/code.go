// Package code builds the six-character category code CCRRFF stamped on
// matching events: two digits each for condition, region and filter pass.
package code

import (
	"fmt"
	"strconv"

	"github.com/verte-zerg/gazetag/internal/model"
	"github.com/verte-zerg/gazetag/internal/regions"
)

// Length is the number of characters in a category code.
const Length = 6

// Formula describes how to read a category code.
const Formula = "CCRRFF = condition (CC), region (RR), filter pass (FF)"

const absent = "00"

// Parts holds the three two-digit components of a code.
type Parts struct {
	Condition string
	Region    string
	Pass      string
}

// String joins the parts into a code.
func (p Parts) String() string {
	return p.Condition + p.Region + p.Pass
}

// PassCode formats a filter pass number. Numbers below 1 are clamped to 1
// and numbers above 99 wrap around to stay two digits.
func PassCode(n int) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%02d", (n-1)%99+1)
}

// Generate computes the code of ev for the given region table and pass code.
func Generate(ev *model.Event, table regions.Table, passCode string) string {
	return Build(ev, table, passCode).String()
}

// Build computes the parts of the code of ev.
func Build(ev *model.Event, table regions.Table, passCode string) Parts {
	p := Parts{Condition: absent, Region: absent, Pass: normalizePass(passCode)}
	if ev.Condition != nil && *ev.Condition >= 0 {
		p.Condition = fmt.Sprintf("%02d", *ev.Condition%100)
	}
	if ev.Region != "" {
		if rc, ok := table.Code(ev.Region); ok {
			p.Region = rc
		}
	}
	return p
}

func normalizePass(passCode string) string {
	n, err := strconv.Atoi(passCode)
	if err != nil {
		return PassCode(1)
	}
	return PassCode(n)
}

// Parse splits a code into its parts.
func Parse(s string) (Parts, error) {
	if len(s) != Length {
		return Parts{}, fmt.Errorf("category code %q must have %d characters", s, Length)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Parts{}, fmt.Errorf("category code %q must be numeric", s)
		}
	}
	return Parts{Condition: s[0:2], Region: s[2:4], Pass: s[4:6]}, nil
}
