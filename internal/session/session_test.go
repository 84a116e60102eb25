package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/gazetag/internal/filter"
	"github.com/verte-zerg/gazetag/internal/model"
)

func intp(v int) *int { return &v }

func events() []model.Event {
	return []model.Event{
		{Label: "FIXATION", Region: "B", Condition: intp(4)},
		{Label: "FIXATION", Region: "A", Condition: intp(4)},
		{Label: "FIXATION", Region: "C", Condition: intp(4)},
	}
}

func TestApplyAdvancesPassAndHistory(t *testing.T) {
	s := New(filter.New(model.DefaultClassifier()), events(), 0, nil)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	rec, res, err := s.Apply(model.Spec{TimeLocked: model.NewSet("A")}, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Matches != 1 || rec.Matches != 1 {
		t.Fatalf("expected 1 match, got result=%d record=%d", res.Matches, rec.Matches)
	}
	if rec.Number != 1 || rec.Code != "01" || s.NextPass != 2 {
		t.Fatalf("unexpected pass bookkeeping: record=%+v next=%d", rec, s.NextPass)
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Fatalf("expected uuid record id, got %q", rec.ID)
	}
	if !rec.CreatedAt.Equal(fixed) {
		t.Fatalf("expected timestamp %v, got %v", fixed, rec.CreatedAt)
	}
	// No declared regions: codes follow first appearance, so A is 02.
	if got := s.Events[1].Category; got != "040201" {
		t.Fatalf("expected 040201, got %s", got)
	}

	rec, _, err = s.Apply(model.Spec{TimeLocked: model.NewSet("A", "C")}, filter.KeepExisting)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if rec.Number != 2 || rec.Conflicts != 1 || rec.Matches != 1 || rec.Resolution != "existing" {
		t.Fatalf("unexpected second record: %+v", rec)
	}
	if len(s.History) != 2 || s.NextPass != 3 {
		t.Fatalf("expected 2 history entries and next pass 3, got %d and %d", len(s.History), s.NextPass)
	}
	if got := s.Events[2].Category; got != "040302" {
		t.Fatalf("expected 040302, got %s", got)
	}
}

func TestApplyUsesDeclaredRegions(t *testing.T) {
	s := New(filter.New(model.DefaultClassifier()), events(), 5, nil)
	s.DeclaredRegions = []string{"A", "B", "C"}
	if _, _, err := s.Apply(model.Spec{TimeLocked: model.NewSet("A")}, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := s.Events[1].Category; got != "040105" {
		t.Fatalf("expected 040105, got %s", got)
	}
}

func TestApplyFailureKeepsState(t *testing.T) {
	s := New(filter.New(model.DefaultClassifier()), events(), 3, nil)
	_, _, err := s.Apply(model.Spec{}, nil)
	if !errors.Is(err, filter.ErrNoTargetRegion) {
		t.Fatalf("expected ErrNoTargetRegion, got %v", err)
	}
	if s.NextPass != 3 || len(s.History) != 0 {
		t.Fatalf("expected untouched state, got next=%d history=%d", s.NextPass, len(s.History))
	}
}
