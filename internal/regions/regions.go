// Package regions builds the stable region name to region code table.
package regions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/gazetag/internal/model"
)

// MaxRegions is the largest number of regions a two-digit code can address.
const MaxRegions = 99

// ErrInvalidRegionList is returned when no usable region ordering exists.
var ErrInvalidRegionList = errors.New("invalid region list")

// Table maps region names to two-digit codes in a fixed order.
type Table struct {
	names []string
	codes map[string]string
}

// Build assigns codes 01, 02, ... to regions in list order. Blank names are
// ignored and duplicates keep their first code.
func Build(order []string) (Table, error) {
	t := Table{codes: make(map[string]string, len(order))}
	for _, raw := range order {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := t.codes[name]; ok {
			continue
		}
		t.names = append(t.names, name)
		t.codes[name] = fmt.Sprintf("%02d", len(t.names))
	}
	if len(t.names) == 0 {
		return Table{}, fmt.Errorf("%w: no regions", ErrInvalidRegionList)
	}
	if len(t.names) > MaxRegions {
		return Table{}, fmt.Errorf("%w: %d regions exceed the limit of %d", ErrInvalidRegionList, len(t.names), MaxRegions)
	}
	return t, nil
}

// Code returns the code for a region.
func (t Table) Code(name string) (string, bool) {
	code, ok := t.codes[name]
	return code, ok
}

// Names returns region names in code order.
func (t Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of regions in the table.
func (t Table) Len() int {
	return len(t.names)
}

// FirstAppearance lists regions in the order they first occur in events.
func FirstAppearance(events []model.Event) []string {
	seen := map[string]struct{}{}
	var order []string
	for i := range events {
		name := strings.TrimSpace(events[i].Region)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}
	return order
}

// Resolve returns the declared order when present, otherwise the order of
// first appearance in events.
func Resolve(declared []string, events []model.Event) []string {
	for _, name := range declared {
		if strings.TrimSpace(name) != "" {
			return declared
		}
	}
	return FirstAppearance(events)
}
