// Package report renders filter results and pass history as text.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/gazetag/internal/code"
	"github.com/verte-zerg/gazetag/internal/filter"
	"github.com/verte-zerg/gazetag/internal/model"
)

// ZeroMatchAdvisory is printed when a pass matched nothing.
const ZeroMatchAdvisory = "No events matched the filter. Check the time-locked region and the selected criteria."

var headingStyle = lipgloss.NewStyle().Bold(true)

// RegionCount is the number of events of one region coded by a pass.
type RegionCount struct {
	Region string
	Code   string
	Count  int
}

// RegionBreakdown counts the events carrying passCode per region, most
// frequent first.
func RegionBreakdown(events []model.Event, passCode string) []RegionCount {
	counts := map[string]*RegionCount{}
	for i := range events {
		ev := &events[i]
		if ev.Category == "" || ev.PassCode != passCode {
			continue
		}
		name := ev.Region
		if name == "" {
			name = "-"
		}
		entry, ok := counts[name]
		if !ok {
			entry = &RegionCount{Region: name, Code: ev.RegionCode}
			counts[name] = entry
		}
		entry.Count++
	}
	items := make([]RegionCount, 0, len(counts))
	for _, c := range counts {
		items = append(items, *c)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Region < items[j].Region
		}
		return items[i].Count > items[j].Count
	})
	return items
}

// Summary writes the result of one pass: match count or the zero-match
// advisory, conflicts, the code formula and the per-region breakdown.
func Summary(w io.Writer, res filter.Result, events []model.Event) error {
	lines := []string{headingStyle.Render(fmt.Sprintf("Filter pass %d (code %s)", res.PassNumber, res.PassCode))}
	if res.Matches == 0 {
		lines = append(lines, ZeroMatchAdvisory)
	} else {
		lines = append(lines, fmt.Sprintf("Matched events: %d of %d", res.Matches, len(events)))
	}
	if n := len(res.Conflicts); n > 0 {
		kept := "new codes kept"
		if res.Resolution == filter.KeepExisting {
			kept = "existing codes kept"
		}
		lines = append(lines, fmt.Sprintf("Conflicts: %d (%.1f%% of matches), %s", n, conflictPercent(n, res), kept))
	}
	lines = append(lines, "Code format: "+code.Formula)

	if breakdown := RegionBreakdown(events, res.PassCode); len(breakdown) > 0 && res.Matches > 0 {
		rows := make([][]string, 0, len(breakdown))
		for _, rc := range breakdown {
			rows = append(rows, []string{rc.Region, rc.Code, strconv.Itoa(rc.Count)})
		}
		lines = append(lines, "")
		lines = append(lines, formatTable([]string{"Region", "RR", "Matches"}, rows, map[int]bool{2: true})...)
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// conflictPercent is relative to the matches found before resolution.
func conflictPercent(n int, res filter.Result) float64 {
	total := res.Matches
	if res.Resolution == filter.KeepExisting {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// History writes the pass history of a dataset as a table.
func History(w io.Writer, records []model.PassRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No filter passes recorded.")
		return err
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.Itoa(rec.Number),
			rec.Code,
			strconv.Itoa(rec.Matches),
			strconv.Itoa(rec.Conflicts),
			rec.Resolution,
			rec.CreatedAt.Local().Format(time.DateTime),
			describeSpec(rec.Spec),
		})
	}
	lines := formatTable([]string{"Pass", "FF", "Matches", "Conflicts", "Kept", "Created", "Filter"}, rows, map[int]bool{0: true, 2: true, 3: true})
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// Conflicts writes up to limit conflicts as a table. A limit of 0 or less
// writes all of them.
func Conflicts(w io.Writer, conflicts []model.Conflict, limit int) error {
	if len(conflicts) == 0 {
		return nil
	}
	shown := conflicts
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([][]string, 0, len(shown))
	for _, c := range shown {
		cond := "-"
		if c.Condition != nil {
			cond = strconv.Itoa(*c.Condition)
		}
		region := c.Region
		if region == "" {
			region = "-"
		}
		rows = append(rows, []string{strconv.Itoa(c.Index + 1), cond, region, c.Existing, c.New})
	}
	lines := formatTable([]string{"Event", "Condition", "Region", "Existing", "New"}, rows, map[int]bool{0: true, 1: true})
	if len(shown) < len(conflicts) {
		lines = append(lines, fmt.Sprintf("... and %d more", len(conflicts)-len(shown)))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func describeSpec(spec model.Spec) string {
	parts := []string{"region=" + strings.Join(spec.TimeLocked.Values(), ",")}
	add := func(name string, values []string) {
		if len(values) > 0 {
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}
	add("pass", stringValues(spec.Pass))
	add("prev", spec.Previous.Values())
	add("next", spec.Next.Values())
	add("fix", stringValues(spec.FixType))
	add("in", stringValues(spec.Incoming))
	add("out", stringValues(spec.Outgoing))
	return strings.Join(parts, " ")
}

func stringValues[T ~string](s model.Set[T]) []string {
	values := s.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
