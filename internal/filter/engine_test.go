package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/gazetag/internal/model"
	"github.com/verte-zerg/gazetag/internal/regions"
)

func intp(v int) *int           { return &v }
func boolp(v bool) *bool        { return &v }
func floatp(v float64) *float64 { return &v }

func fixation(region string, cond int) model.Event {
	return model.Event{
		Label:          "FIXATION",
		Region:         region,
		Condition:      intp(cond),
		Item:           intp(1),
		FirstPass:      boolp(true),
		FixCountRegion: intp(1),
	}
}

func saccade(start, end float64) model.Event {
	return model.Event{Label: "SACCADE", SaccStartX: floatp(start), SaccEndX: floatp(end)}
}

func newEngine() *Engine {
	return New(model.DefaultClassifier())
}

func TestApplyStampsMatches(t *testing.T) {
	events := []model.Event{
		fixation("beginning", 2),
		saccade(100, 300),
		fixation("target", 2),
		saccade(300, 150),
		fixation("pretarget", 2),
	}
	res, err := newEngine().Apply(events, []string{"beginning", "pretarget", "target"}, model.Spec{
		TimeLocked: model.NewSet("target"),
	}, 3, model.Gate{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Matches)
	require.Empty(t, res.Conflicts)
	require.Equal(t, "03", res.PassCode)

	ev := events[2]
	require.Equal(t, "020303", ev.Category)
	require.Equal(t, "02", ev.CondCode)
	require.Equal(t, "03", ev.RegionCode)
	require.Equal(t, "03", ev.PassCode)
	require.Equal(t, "FIXATION", ev.OriginalLabel)
	require.Equal(t, "FIXATION", ev.Label)
	require.Empty(t, events[0].Category)
	require.Empty(t, events[1].Category)
}

func TestApplyCombinesCriteria(t *testing.T) {
	events := []model.Event{
		fixation("A", 1),
		saccade(100, 300),
		fixation("B", 1),
		saccade(300, 100),
		fixation("A", 1),
		saccade(100, 400),
		fixation("B", 1),
	}
	events[4].FirstPass = boolp(false)
	events[4].PreviousRegion = "B"
	events[6].FixCountRegion = intp(2)

	spec := model.Spec{
		TimeLocked: model.NewSet("A", "B"),
		Incoming:   model.NewSet(model.DirForward, model.DirBackward),
		FixType:    model.NewSet(model.FixFirst),
	}
	res, err := newEngine().Apply(events, nil, spec, 1, model.Gate{})
	require.Error(t, err)
	require.True(t, errors.Is(err, regions.ErrInvalidRegionList))
	require.Zero(t, res.Matches)

	res, err = newEngine().Apply(events, regions.FirstAppearance(events), spec, 1, model.Gate{})
	require.NoError(t, err)
	// Event 0 has no incoming saccade, event 6 is a second fixation.
	require.Equal(t, 2, res.Matches)
	require.NotEmpty(t, events[2].Category)
	require.NotEmpty(t, events[4].Category)
	require.Empty(t, events[0].Category)
	require.Empty(t, events[6].Category)
}

func TestApplyFirstPassButNotSingleDoesNotMatch(t *testing.T) {
	ev := fixation("A", 1)
	ev.FixCountRegion = intp(1)
	ev.FixCountWord = intp(2)
	events := []model.Event{ev}
	res, err := newEngine().Apply(events, []string{"A"}, model.Spec{
		TimeLocked: model.NewSet("A"),
		Pass:       model.NewSet(model.PassFirst),
		FixType:    model.NewSet(model.FixSingle),
	}, 1, model.Gate{})
	require.NoError(t, err)
	require.Zero(t, res.Matches)
	require.Empty(t, events[0].Category)
}

func TestApplyNextDistinctRegion(t *testing.T) {
	events := []model.Event{fixation("A", 1), fixation("A", 1), fixation("B", 1), fixation("C", 1)}
	res, err := newEngine().Apply(events, []string{"A", "B", "C"}, model.Spec{
		TimeLocked: model.NewSet("A"),
		Next:       model.NewSet("C"),
	}, 1, model.Gate{})
	require.NoError(t, err)
	require.Zero(t, res.Matches)

	res, err = newEngine().Apply(events, []string{"A", "B", "C"}, model.Spec{
		TimeLocked: model.NewSet("A"),
		Next:       model.NewSet("B"),
	}, 1, model.Gate{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Matches)
}

func TestApplyGate(t *testing.T) {
	events := []model.Event{fixation("A", 1), fixation("A", 2), fixation("A", 3)}
	events[2].Item = intp(9)
	res, err := newEngine().Apply(events, []string{"A"}, model.Spec{TimeLocked: model.NewSet("A")}, 1, model.Gate{
		Conditions: model.NewSet(2, 3),
		Items:      model.NewSet(1),
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Matches)
	require.Equal(t, "020101", events[1].Category)
}

func TestApplySkipsNonFixations(t *testing.T) {
	events := []model.Event{
		{Label: "BLINK", Region: "A"},
		{Label: "SACCADE", Region: "A"},
		{Label: "FIXATION", Region: "A"},
	}
	res, err := newEngine().Apply(events, []string{"A"}, model.Spec{TimeLocked: model.NewSet("A")}, 1, model.Gate{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Matches)
	require.Equal(t, "000101", events[2].Category)
}

func TestApplyConfiguredPrefixes(t *testing.T) {
	events := []model.Event{{Label: "EFIX", Region: "A"}, {Label: "FIXATION", Region: "A"}}
	engine := New(model.Classifier{FixationPrefix: "efix", SaccadePrefix: "esacc"})
	res, err := engine.Apply(events, []string{"A"}, model.Spec{TimeLocked: model.NewSet("A")}, 1, model.Gate{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Matches)
	require.NotEmpty(t, events[0].Category)
	require.Empty(t, events[1].Category)
}

func TestApplyFatalPreconditionsLeaveEventsUntouched(t *testing.T) {
	events := []model.Event{fixation("A", 1), saccade(0, 50), fixation("B", 1)}
	before := cloneEvents(events)

	_, err := newEngine().Apply(events, []string{"A", "B"}, model.Spec{}, 1, model.Gate{})
	require.ErrorIs(t, err, ErrNoTargetRegion)
	require.True(t, reflect.DeepEqual(before, events))

	_, err = newEngine().Apply(events, nil, model.Spec{TimeLocked: model.NewSet("A")}, 1, model.Gate{})
	require.ErrorIs(t, err, regions.ErrInvalidRegionList)
	require.True(t, reflect.DeepEqual(before, events))
}

func TestApplyZeroMatches(t *testing.T) {
	events := []model.Event{fixation("A", 1), fixation("B", 1)}
	before := cloneEvents(events)
	res, err := newEngine().Apply(events, []string{"A", "B"}, model.Spec{TimeLocked: model.NewSet("C")}, 1, model.Gate{})
	require.NoError(t, err)
	require.Zero(t, res.Matches)
	require.True(t, reflect.DeepEqual(before, events))
}

func TestConflictKeepExisting(t *testing.T) {
	events := []model.Event{fixation("A", 1), fixation("C", 1)}
	engine := newEngine()
	spec := model.Spec{TimeLocked: model.NewSet("A")}

	first, err := engine.Run(events, []string{"B"}, spec, 1, model.Gate{}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, first.Matches)
	require.Equal(t, "010001", events[0].Category)

	second, err := engine.Apply(events, []string{"A", "B"}, spec, 2, model.Gate{})
	require.NoError(t, err)
	require.Len(t, second.Conflicts, 1)
	c := second.Conflicts[0]
	require.Equal(t, 0, c.Index)
	require.Equal(t, "010001", c.Existing)
	require.Equal(t, "010102", c.New)
	require.Equal(t, "A", c.Region)
	require.Equal(t, "010102", events[0].Category)

	require.NoError(t, Resolve(events, &second, KeepExisting))
	require.Equal(t, "010001", events[0].Category)
	require.Equal(t, "00", events[0].RegionCode)
	require.Equal(t, "01", events[0].PassCode)
	require.Equal(t, 0, second.Matches)
	require.Equal(t, KeepExisting, second.Resolution)
	require.Len(t, second.Conflicts, 1)
}

func TestConflictKeepNew(t *testing.T) {
	events := []model.Event{fixation("A", 1)}
	engine := newEngine()
	spec := model.Spec{TimeLocked: model.NewSet("A")}

	_, err := engine.Run(events, []string{"A"}, spec, 1, model.Gate{}, KeepExisting)
	require.NoError(t, err)
	res, err := engine.Run(events, []string{"A"}, spec, 2, model.Gate{}, KeepNew)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	require.Equal(t, 1, res.Matches)
	require.Equal(t, "010102", events[0].Category)
	require.Equal(t, "FIXATION", events[0].OriginalLabel)
}

func TestConflictWhenPassCodeWraps(t *testing.T) {
	events := []model.Event{fixation("A", 1)}
	engine := newEngine()
	spec := model.Spec{TimeLocked: model.NewSet("A")}

	_, err := engine.Apply(events, []string{"A"}, spec, 1, model.Gate{})
	require.NoError(t, err)
	res, err := engine.Apply(events, []string{"A"}, spec, 100, model.Gate{})
	require.NoError(t, err)
	require.Equal(t, "01", res.PassCode)
	require.Len(t, res.Conflicts, 1)
	require.Equal(t, "010101", res.Conflicts[0].Existing)
	require.Equal(t, "010101", res.Conflicts[0].New)
}

func TestKeepExistingRestoresPreviousSubfields(t *testing.T) {
	ev := fixation("A", 1)
	ev.Category = "LEGACY"
	ev.CondCode = "07"
	events := []model.Event{ev}

	res, err := newEngine().Run(events, []string{"A"}, model.Spec{TimeLocked: model.NewSet("A")}, 3, model.Gate{}, KeepExisting)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	require.Zero(t, res.Matches)
	require.Equal(t, "LEGACY", events[0].Category)
	require.Equal(t, "07", events[0].CondCode)
	require.Empty(t, events[0].RegionCode)
	require.Empty(t, events[0].PassCode)
}

func TestApplyLogsKindsAndRegions(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	engine := New(model.DefaultClassifier(), WithLogger(zap.New(core)))
	events := []model.Event{fixation("A", 1), saccade(100, 200), fixation("B", 1), {Label: "BLINK"}}

	_, err := engine.Apply(events, []string{"A", "B"}, model.Spec{TimeLocked: model.NewSet("B")}, 1, model.Gate{})
	require.NoError(t, err)

	entries := logs.FilterMessage("filter pass applied").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, map[string]int{"fixation": 2, "saccade": 1, "other": 1}, fields["kinds"])
	require.Equal(t, []interface{}{"A", "B"}, fields["regions"])
	require.EqualValues(t, 1, fields["matches"])
}

type recordingResolver struct {
	seen   ConflictSummary
	choice Resolution
}

func (r *recordingResolver) Choose(s ConflictSummary) Resolution {
	r.seen = s
	return r.choice
}

func TestRunAsksResolverWithSummary(t *testing.T) {
	events := []model.Event{fixation("A", 1), fixation("A", 1), fixation("B", 1)}
	engine := newEngine()
	order := []string{"A", "B"}

	_, err := engine.Run(events, order, model.Spec{TimeLocked: model.NewSet("A")}, 1, model.Gate{}, nil)
	require.NoError(t, err)

	resolver := &recordingResolver{choice: KeepExisting}
	res, err := engine.Run(events, order, model.Spec{TimeLocked: model.NewSet("A", "B")}, 2, model.Gate{}, resolver)
	require.NoError(t, err)
	require.Equal(t, 2, resolver.seen.Count)
	require.Equal(t, 3, resolver.seen.Matches)
	require.InDelta(t, 66.67, resolver.seen.Percent, 0.01)
	require.Equal(t, 1, res.Matches)
	require.Equal(t, "010101", events[0].Category)
	require.Equal(t, "010202", events[2].Category)
}

func TestRunWithoutConflictsSkipsResolver(t *testing.T) {
	events := []model.Event{fixation("A", 1)}
	resolver := &recordingResolver{choice: KeepExisting}
	res, err := newEngine().Run(events, []string{"A"}, model.Spec{TimeLocked: model.NewSet("A")}, 1, model.Gate{}, resolver)
	require.NoError(t, err)
	require.Equal(t, 1, res.Matches)
	require.Zero(t, resolver.seen.Count)
}

func TestResolveRejectsUnknownChoice(t *testing.T) {
	res := Result{Matches: 1, Conflicts: []model.Conflict{{Index: 0, Existing: "010101"}}}
	require.Error(t, Resolve([]model.Event{{}}, &res, Resolution("maybe")))
	require.Equal(t, 1, res.Matches)
}

func TestParseResolution(t *testing.T) {
	r, err := ParseResolution("existing")
	require.NoError(t, err)
	require.Equal(t, KeepExisting, r)
	_, err = ParseResolution("ask")
	require.Error(t, err)
}

func TestProperty_SequenceLengthAndOrderAreUnchanged(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	regionNames := []string{"A", "B", "C", ""}
	labels := []string{"FIXATION", "SACCADE", "BLINK"}

	properties.Property("filtering never adds, drops or reorders events", prop.ForAll(
		func(kinds []int, target int, pass int) bool {
			events := make([]model.Event, len(kinds))
			for i, k := range kinds {
				events[i] = model.Event{
					Label:          labels[k%len(labels)],
					Region:         regionNames[(k/3)%len(regionNames)],
					FixCountRegion: intp(k%3 + 1),
					FirstPass:      boolp(k%2 == 0),
					SaccStartX:     floatp(float64(k * 7)),
					SaccEndX:       floatp(float64(k * 13 % 50)),
				}
			}
			labelsBefore := make([]string, len(events))
			for i := range events {
				labelsBefore[i] = events[i].Label + "/" + events[i].Region
			}
			spec := model.Spec{
				TimeLocked: model.NewSet(regionNames[target%3]),
				Incoming:   model.NewSet(model.DirForward),
				Next:       model.NewSet("B", "C"),
			}
			_, err := newEngine().Apply(events, []string{"A", "B", "C"}, spec, pass, model.Gate{})
			if err != nil || len(events) != len(kinds) {
				return false
			}
			for i := range events {
				if events[i].Label+"/"+events[i].Region != labelsBefore[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 11)),
		gen.IntRange(0, 2),
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}

func cloneEvents(events []model.Event) []model.Event {
	return append([]model.Event(nil), events...)
}
