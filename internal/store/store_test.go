package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/gazetag/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "gazetag.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestLoadSessionUnknownDataset(t *testing.T) {
	st := openStore(t)
	next, history, err := st.LoadSession(context.Background(), "/data/s01.tsv")
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if next != 1 || len(history) != 0 {
		t.Fatalf("expected fresh session, got next=%d history=%d", next, len(history))
	}
}

func TestRecordPassRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	path := "/data/s01.tsv"
	created := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	spec := model.Spec{
		TimeLocked: model.NewSet("target"),
		Pass:       model.NewSet(model.PassFirst),
		Incoming:   model.NewSet(model.DirBackward, model.DirForward),
	}
	for i, id := range []string{"a1", "b2"} {
		rec := model.PassRecord{
			ID:         id,
			Number:     i + 1,
			Code:       []string{"01", "02"}[i],
			Spec:       spec,
			Matches:    10 + i,
			Conflicts:  i,
			Resolution: "new",
			CreatedAt:  created.Add(time.Duration(i) * time.Minute),
		}
		if err := st.RecordPass(ctx, path, rec); err != nil {
			t.Fatalf("record pass: %v", err)
		}
	}
	if err := st.RecordPass(ctx, "/data/other.tsv", model.PassRecord{ID: "c3", Number: 1, Code: "01", CreatedAt: created}); err != nil {
		t.Fatalf("record pass: %v", err)
	}

	next, history, err := st.LoadSession(ctx, path)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if next != 3 {
		t.Fatalf("expected next pass 3, got %d", next)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	second := history[1]
	if second.ID != "b2" || second.Number != 2 || second.Code != "02" || second.Matches != 11 || second.Conflicts != 1 {
		t.Fatalf("unexpected record: %+v", second)
	}
	if !second.CreatedAt.Equal(created.Add(time.Minute)) {
		t.Fatalf("unexpected timestamp: %v", second.CreatedAt)
	}
	if !second.Spec.TimeLocked.Has("target") || !second.Spec.Incoming.Has(model.DirForward) || second.Spec.Incoming.Len() != 2 {
		t.Fatalf("unexpected spec: %+v", second.Spec)
	}
	if second.Spec.Next.Len() != 0 {
		t.Fatalf("expected unconstrained next regions")
	}
}

func TestRecordPassNeverRewindsCounter(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	path := "/data/s02.tsv"
	for _, rec := range []model.PassRecord{
		{ID: "x", Number: 4, Code: "04", CreatedAt: time.Unix(0, 0)},
		{ID: "y", Number: 2, Code: "02", CreatedAt: time.Unix(60, 0)},
	} {
		if err := st.RecordPass(ctx, path, rec); err != nil {
			t.Fatalf("record pass: %v", err)
		}
	}
	next, history, err := st.LoadSession(ctx, path)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if next != 5 {
		t.Fatalf("expected next pass 5, got %d", next)
	}
	if history[0].Number != 2 || history[1].Number != 4 {
		t.Fatalf("expected history ordered by pass number, got %+v", history)
	}
}

func TestDeletePassKeepsCounter(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	path := "/data/s03.tsv"
	if err := st.RecordPass(ctx, path, model.PassRecord{ID: "z", Number: 1, Code: "01", CreatedAt: time.Unix(0, 0)}); err != nil {
		t.Fatalf("record pass: %v", err)
	}
	if err := st.DeletePass(ctx, "z"); err != nil {
		t.Fatalf("delete pass: %v", err)
	}
	next, history, err := st.LoadSession(ctx, path)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if next != 2 || len(history) != 0 {
		t.Fatalf("expected next=2 and no history, got next=%d history=%d", next, len(history))
	}
}
