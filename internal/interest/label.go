package interest

import (
	"fmt"

	"github.com/verte-zerg/gazetag/internal/dataset"
)

// Columns names the table columns used for labelling.
type Columns struct {
	Regions      []string
	Positions    string
	CurrentFixX  string
	NextFixX     string
	CurrentFixIA string
	NextFixIA    string
}

// DefaultColumns follows the EyeLink Data Viewer fixation report.
func DefaultColumns() Columns {
	return Columns{
		Regions:      []string{"beginning", "pretarget", "target_word", "ending"},
		Positions:    "WordPositions",
		CurrentFixX:  "CURRENT_FIX_X",
		NextFixX:     "NEXT_FIX_X",
		CurrentFixIA: "CURRENT_FIX_INTEREST_AREA_ID",
		NextFixIA:    "NEXT_FIX_INTEREST_AREA_ID",
	}
}

// LabelTable computes word positions for every row and rewrites the current
// and next fixation interest-area columns. Output columns are created when
// missing. It returns the number of labelled rows.
func LabelTable(t *dataset.Table, cols Columns, layout Layout) (int, error) {
	regionIdx := make([]int, len(cols.Regions))
	for i, name := range cols.Regions {
		regionIdx[i] = t.Index(name)
		if regionIdx[i] < 0 {
			return 0, fmt.Errorf("missing region column %q", name)
		}
	}
	curX := t.Index(cols.CurrentFixX)
	if curX < 0 {
		return 0, fmt.Errorf("missing column %q", cols.CurrentFixX)
	}
	nextX := t.Index(cols.NextFixX)
	if nextX < 0 {
		return 0, fmt.Errorf("missing column %q", cols.NextFixX)
	}
	posCol := t.EnsureColumn(cols.Positions)
	curIA := t.EnsureColumn(cols.CurrentFixIA)
	nextIA := t.EnsureColumn(cols.NextFixIA)

	texts := make([]string, len(regionIdx))
	for r, row := range t.Rows {
		for i, idx := range regionIdx {
			texts[i] = row[idx]
		}
		positions := WordPositions(layout, texts...)
		encoded, err := positions.MarshalJSON()
		if err != nil {
			return r, fmt.Errorf("row %d: %w", r+2, err)
		}
		cur, err := positions.LookupCell(row[curX])
		if err != nil {
			return r, fmt.Errorf("row %d: %w", r+2, err)
		}
		next, err := positions.LookupCell(row[nextX])
		if err != nil {
			return r, fmt.Errorf("row %d: %w", r+2, err)
		}
		row[posCol] = string(encoded)
		row[curIA] = cur
		row[nextIA] = next
	}
	return len(t.Rows), nil
}
