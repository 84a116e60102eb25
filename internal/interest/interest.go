// Package interest labels fixations with word-level interest areas computed
// from the sentence layout on screen.
//
// A sentence is split into numbered regions and every word gets the key
// "<region>.<word>", both 1-based. Words are laid out left to right in a
// fixed-pitch font starting at Layout.Offset; the space before a word
// belongs to that word's interest area.
package interest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	Left    = "left"
	Right   = "right"
	Missing = "."
)

// Layout describes the horizontal geometry of the sentence in pixels.
type Layout struct {
	Offset        float64
	PixelsPerChar float64
}

// DefaultLayout matches the original experiment display.
func DefaultLayout() Layout {
	return Layout{Offset: 281, PixelsPerChar: 14}
}

// Span is the horizontal extent of one word, exclusive of Start.
type Span struct {
	Key   string
	Start float64
	End   float64
}

// Positions are the word spans of one sentence in reading order.
type Positions []Span

// WordPositions lays out the words of each region text in order.
func WordPositions(layout Layout, regionTexts ...string) Positions {
	var out Positions
	pos := layout.Offset
	spacing := 0
	for r, text := range regionTexts {
		for w, word := range strings.Fields(text) {
			end := pos + layout.PixelsPerChar*float64(utf8.RuneCountInString(word)+spacing)
			out = append(out, Span{Key: fmt.Sprintf("%d.%d", r+1, w+1), Start: pos, End: end})
			pos = end
			spacing = 1
		}
	}
	return out
}

// Lookup returns the key of the word whose span contains x. A fixation
// exactly on the sentence start belongs to the first word; fixations outside
// the sentence are Left or Right. It returns "" when no word matches.
func (p Positions) Lookup(x float64) string {
	if len(p) == 0 {
		return ""
	}
	for _, s := range p {
		if s.Start < x && x <= s.End {
			return s.Key
		}
	}
	lo, hi := p.bounds()
	switch {
	case x == lo:
		return p[0].Key
	case x < lo:
		return Left
	case x > hi:
		return Right
	}
	return ""
}

func (p Positions) bounds() (float64, float64) {
	lo, hi := p[0].Start, p[0].End
	for _, s := range p {
		lo = min(lo, s.Start, s.End)
		hi = max(hi, s.Start, s.End)
	}
	return lo, hi
}

// LookupCell labels a raw fixation x cell. The missing marker passes
// through unchanged.
func (p Positions) LookupCell(cell string) (string, error) {
	cell = strings.TrimSpace(cell)
	if cell == Missing {
		return Missing, nil
	}
	x, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return "", fmt.Errorf("invalid fixation x %q", cell)
	}
	return p.Lookup(x), nil
}

// MarshalJSON encodes positions as an object of [start, end] pairs in
// reading order.
func (p Positions) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, s := range p {
		if i > 0 {
			b.WriteString(", ")
		}
		key, err := json.Marshal(s.Key)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteString(": [")
		b.WriteString(strconv.FormatFloat(s.Start, 'f', -1, 64))
		b.WriteString(", ")
		b.WriteString(strconv.FormatFloat(s.End, 'f', -1, 64))
		b.WriteByte(']')
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
