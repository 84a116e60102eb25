// Package filter applies a filter request to an event sequence and stamps
// category codes on the matching events.
package filter

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/gazetag/internal/code"
	"github.com/verte-zerg/gazetag/internal/model"
	"github.com/verte-zerg/gazetag/internal/predicate"
	"github.com/verte-zerg/gazetag/internal/regions"
)

// ErrNoTargetRegion is returned when a request names no time-locked region.
var ErrNoTargetRegion = errors.New("no time-locked region selected")

// Engine runs filter passes. It keeps no state between passes.
type Engine struct {
	eval predicate.Evaluator
	log  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithNoiseThreshold sets the minimum saccade amplitude treated as
// directional.
func WithNoiseThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold >= 0 {
			e.eval.NoiseThreshold = threshold
		}
	}
}

// New returns an Engine that classifies events with cls.
func New(cls model.Classifier, opts ...Option) *Engine {
	e := &Engine{
		eval: predicate.NewEvaluator(cls),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result summarizes one filter pass.
type Result struct {
	PassNumber int
	PassCode   string
	Matches    int
	Conflicts  []model.Conflict
	Resolution Resolution
	Table      regions.Table
}

// ConflictRate returns conflicts as a percentage of matches.
func (r Result) ConflictRate() float64 {
	if r.Matches == 0 {
		return 0
	}
	return float64(len(r.Conflicts)) / float64(r.Matches) * 100
}

// Apply runs one filter pass over events and stamps every match with its
// category code. Events are never reordered, added or removed. Invalid
// input is rejected before any event is modified. A match on an event
// already coded by another pass is recorded as a conflict, even when the
// codes are equal after the pass code wraps, and the new code is kept; see
// Resolve.
func (e *Engine) Apply(events []model.Event, regionOrder []string, spec model.Spec, passNumber int, gate model.Gate) (Result, error) {
	table, err := regions.Build(regionOrder)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build region codes: %w", err)
	}
	if spec.TimeLocked.Len() == 0 {
		return Result{}, ErrNoTargetRegion
	}
	if passNumber < 1 {
		passNumber = 1
	}

	res := Result{
		PassNumber: passNumber,
		PassCode:   code.PassCode(passNumber),
		Resolution: KeepNew,
		Table:      table,
	}
	for i := range events {
		ev := &events[i]
		if !e.eligible(ev) || !gate.Admits(ev) {
			continue
		}
		if !e.eval.Match(events, i, spec) {
			continue
		}
		res.Matches++
		parts := code.Build(ev, table, res.PassCode)
		if ev.Coded() {
			res.Conflicts = append(res.Conflicts, model.Conflict{
				Index:          i,
				Existing:       ev.Category,
				New:            parts.String(),
				Condition:      ev.Condition,
				Region:         ev.Region,
				ExistingCond:   ev.CondCode,
				ExistingRegion: ev.RegionCode,
				ExistingPass:   ev.PassCode,
			})
		}
		stamp(ev, parts)
	}

	e.log.Debug("filter pass applied",
		zap.Int("pass", res.PassNumber),
		zap.Int("events", len(events)),
		zap.Any("kinds", e.countKinds(events)),
		zap.Strings("regions", table.Names()),
		zap.Int("matches", res.Matches),
		zap.Int("conflicts", len(res.Conflicts)),
	)
	return res, nil
}

// Run applies a filter pass and settles conflicts with the choice made by
// resolver. A nil resolver keeps the new codes.
func (e *Engine) Run(events []model.Event, regionOrder []string, spec model.Spec, passNumber int, gate model.Gate, resolver Resolver) (Result, error) {
	res, err := e.Apply(events, regionOrder, spec, passNumber, gate)
	if err != nil {
		return res, err
	}
	if len(res.Conflicts) == 0 {
		return res, nil
	}
	choice := KeepNew
	if resolver != nil {
		choice = resolver.Choose(res.Summary())
	}
	if err := Resolve(events, &res, choice); err != nil {
		return res, err
	}
	e.log.Debug("conflicts resolved",
		zap.Int("pass", res.PassNumber),
		zap.String("resolution", string(res.Resolution)),
		zap.Int("matches", res.Matches),
	)
	return res, nil
}

// countKinds tallies events by kind name for the debug log.
func (e *Engine) countKinds(events []model.Event) map[string]int {
	counts := map[string]int{}
	for i := range events {
		counts[e.eval.Classifier.Kind(&events[i]).String()]++
	}
	return counts
}

func (e *Engine) eligible(ev *model.Event) bool {
	return ev.Coded() || e.eval.Classifier.Kind(ev) == model.KindFixation
}

func stamp(ev *model.Event, parts code.Parts) {
	if ev.OriginalLabel == "" {
		ev.OriginalLabel = ev.Label
	}
	ev.Category = parts.String()
	ev.CondCode = parts.Condition
	ev.RegionCode = parts.Region
	ev.PassCode = parts.Pass
}
