package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/verte-zerg/gazetag/internal/model"
)

// Columns maps event fields to table header names.
type Columns struct {
	Label          string
	Region         string
	PreviousRegion string
	FirstPass      string
	RegionPass     string
	FixCountRegion string
	FixCountWord   string
	Condition      string
	Item           string
	SaccStartX     string
	SaccEndX       string
	Category       string
	CondCode       string
	RegionCode     string
	PassCode       string
	OriginalLabel  string
}

// DefaultColumns returns the default header names.
func DefaultColumns() Columns {
	return Columns{
		Label:          "type",
		Region:         "region",
		PreviousRegion: "previous_region",
		FirstPass:      "first_pass",
		RegionPass:     "region_pass",
		FixCountRegion: "fix_count_region",
		FixCountWord:   "fix_count_word",
		Condition:      "condition",
		Item:           "item",
		SaccStartX:     "sacc_start_x",
		SaccEndX:       "sacc_end_x",
		Category:       "category",
		CondCode:       "code_condition",
		RegionCode:     "code_region",
		PassCode:       "code_pass",
		OriginalLabel:  "original_type",
	}
}

// Dataset is an event sequence together with the layout of its source table.
type Dataset struct {
	Header  []string
	Columns Columns
	Events  []model.Event
}

type field struct {
	column func(Columns) string
	get    func(*model.Event) string
	set    func(*model.Event, string) error
	output bool
}

var fields = []field{
	{
		column: func(c Columns) string { return c.Label },
		get:    func(ev *model.Event) string { return ev.Label },
		set:    func(ev *model.Event, v string) error { ev.Label = v; return nil },
	},
	stringField(func(c Columns) string { return c.Region }, func(ev *model.Event) *string { return &ev.Region }, false),
	stringField(func(c Columns) string { return c.PreviousRegion }, func(ev *model.Event) *string { return &ev.PreviousRegion }, false),
	{
		column: func(c Columns) string { return c.FirstPass },
		get:    func(ev *model.Event) string { return formatBool(ev.FirstPass) },
		set: func(ev *model.Event, v string) (err error) {
			ev.FirstPass, err = parseBool(v)
			return err
		},
	},
	intField(func(c Columns) string { return c.RegionPass }, func(ev *model.Event) **int { return &ev.RegionPass }),
	intField(func(c Columns) string { return c.FixCountRegion }, func(ev *model.Event) **int { return &ev.FixCountRegion }),
	intField(func(c Columns) string { return c.FixCountWord }, func(ev *model.Event) **int { return &ev.FixCountWord }),
	intField(func(c Columns) string { return c.Condition }, func(ev *model.Event) **int { return &ev.Condition }),
	intField(func(c Columns) string { return c.Item }, func(ev *model.Event) **int { return &ev.Item }),
	floatField(func(c Columns) string { return c.SaccStartX }, func(ev *model.Event) **float64 { return &ev.SaccStartX }),
	floatField(func(c Columns) string { return c.SaccEndX }, func(ev *model.Event) **float64 { return &ev.SaccEndX }),
	stringField(func(c Columns) string { return c.Category }, func(ev *model.Event) *string { return &ev.Category }, true),
	stringField(func(c Columns) string { return c.CondCode }, func(ev *model.Event) *string { return &ev.CondCode }, true),
	stringField(func(c Columns) string { return c.RegionCode }, func(ev *model.Event) *string { return &ev.RegionCode }, true),
	stringField(func(c Columns) string { return c.PassCode }, func(ev *model.Event) *string { return &ev.PassCode }, true),
	stringField(func(c Columns) string { return c.OriginalLabel }, func(ev *model.Event) *string { return &ev.OriginalLabel }, true),
}

func stringField(column func(Columns) string, ref func(*model.Event) *string, output bool) field {
	return field{
		column: column,
		get:    func(ev *model.Event) string { return *ref(ev) },
		set: func(ev *model.Event, v string) error {
			if isMissing(v) {
				v = ""
			}
			*ref(ev) = v
			return nil
		},
		output: output,
	}
}

func intField(column func(Columns) string, ref func(*model.Event) **int) field {
	return field{
		column: column,
		get: func(ev *model.Event) string {
			if p := *ref(ev); p != nil {
				return strconv.Itoa(*p)
			}
			return ""
		},
		set: func(ev *model.Event, v string) (err error) {
			*ref(ev), err = parseInt(v)
			return err
		},
	}
}

func floatField(column func(Columns) string, ref func(*model.Event) **float64) field {
	return field{
		column: column,
		get: func(ev *model.Event) string {
			if p := *ref(ev); p != nil {
				return strconv.FormatFloat(*p, 'f', -1, 64)
			}
			return ""
		},
		set: func(ev *model.Event, v string) (err error) {
			*ref(ev), err = parseFloat(v)
			return err
		},
	}
}

// Decode converts a table into a dataset. Only the label column is
// required; absent columns leave the field unset.
func Decode(t *Table, cols Columns) (*Dataset, error) {
	if t.Index(cols.Label) < 0 {
		return nil, fmt.Errorf("missing event type column %q", cols.Label)
	}
	known := make([]int, len(fields))
	for i, f := range fields {
		known[i] = t.Index(f.column(cols))
	}

	ds := &Dataset{
		Header:  append([]string(nil), t.Header...),
		Columns: cols,
		Events:  make([]model.Event, len(t.Rows)),
	}
	for r, row := range t.Rows {
		ev := &ds.Events[r]
		for i, f := range fields {
			if known[i] < 0 {
				continue
			}
			if err := f.set(ev, strings.TrimSpace(row[known[i]])); err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", r+2, t.Header[known[i]], err)
			}
		}
		ev.Raw = append([]string(nil), row...)
	}
	return ds, nil
}

// Encode converts a dataset back into a table. Source cells are written back
// unchanged except for the code columns, which are appended when missing.
func Encode(ds *Dataset) *Table {
	header := append([]string(nil), ds.Header...)
	for _, f := range fields {
		if !f.output {
			continue
		}
		name := f.column(ds.Columns)
		if !slices.Contains(header, name) {
			header = append(header, name)
		}
	}

	byColumn := make(map[string]field, len(fields))
	for _, f := range fields {
		byColumn[f.column(ds.Columns)] = f
	}

	t := &Table{Header: header, Rows: make([][]string, len(ds.Events))}
	for r := range ds.Events {
		ev := &ds.Events[r]
		row := make([]string, len(header))
		for c, name := range header {
			f, ok := byColumn[name]
			switch {
			case ok && (f.output || c >= len(ev.Raw)):
				row[c] = f.get(ev)
			case c < len(ev.Raw):
				row[c] = ev.Raw[c]
			}
		}
		t.Rows[r] = row
	}
	return t
}

// Load reads and decodes an event file.
func Load(path string, cols Columns) (*Dataset, error) {
	t, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return Decode(t, cols)
}

// Save encodes and writes an event file.
func Save(path string, ds *Dataset) error {
	return SaveTable(path, Encode(ds))
}

func isMissing(v string) bool {
	switch strings.ToLower(v) {
	case "", ".", "na", "nan", "null", "undefined":
		return true
	}
	return false
}

func parseInt(v string) (*int, error) {
	if isMissing(v) {
		return nil, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) {
		return nil, fmt.Errorf("invalid integer %q", v)
	}
	n := int(f)
	return &n, nil
}

func parseFloat(v string) (*float64, error) {
	if isMissing(v) {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", v)
	}
	return &f, nil
}

func parseBool(v string) (*bool, error) {
	if isMissing(v) {
		return nil, nil
	}
	var b bool
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "t":
		b = true
	case "0", "false", "no", "n", "f":
		b = false
	default:
		return nil, fmt.Errorf("invalid boolean %q", v)
	}
	return &b, nil
}

func formatBool(p *bool) string {
	if p == nil {
		return ""
	}
	if *p {
		return "1"
	}
	return "0"
}
