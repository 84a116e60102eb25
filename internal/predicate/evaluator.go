package predicate

import "github.com/verte-zerg/gazetag/internal/model"

// Evaluator combines all criteria of a filter request.
type Evaluator struct {
	Classifier     model.Classifier
	NoiseThreshold float64
}

// NewEvaluator returns an Evaluator with the default noise threshold.
func NewEvaluator(cls model.Classifier) Evaluator {
	return Evaluator{Classifier: cls, NoiseThreshold: DefaultNoiseThreshold}
}

// Match reports whether events[i] satisfies every criterion family of spec.
func (e Evaluator) Match(events []model.Event, i int, spec model.Spec) bool {
	ev := &events[i]
	return TimeLockedRegion(ev, spec.TimeLocked) &&
		PassIndex(ev, spec.Pass) &&
		PreviousRegion(ev, spec.Previous) &&
		FixationType(ev, spec.FixType) &&
		NextRegion(events, i, spec.Next, e.Classifier) &&
		SaccadeDirection(events, i, spec.Incoming, Incoming, e.Classifier, e.NoiseThreshold) &&
		SaccadeDirection(events, i, spec.Outgoing, Outgoing, e.Classifier, e.NoiseThreshold)
}
