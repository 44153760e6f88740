// Package sorter parses sorting expressions (e.g. "original_name:asc,created_at:desc")
// into structured options that listing queries can apply.
package sorter

import (
	"slices"
	"strings"
)

type (
	SortOpts []Opt

	SortDirection string
)

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"

	// expectedPartsCount is the expected number of parts in a sort option (field:direction).
	expectedPartsCount = 2
)

// Opt represents a single sorting option, consisting of a field and a direction.
type Opt struct {
	F string        // F is the field to sort by.
	D SortDirection // D is the sorting direction (asc or desc).
}

// MakeFromStr parses a sorting string into a slice of Opt. Pairs referencing
// fields outside allowedFields, or with an unknown direction, are dropped.
func MakeFromStr(sortString string, allowedFields ...string) SortOpts {
	if sortString == "" {
		return nil
	}

	var options []Opt
	for pair := range strings.SplitSeq(sortString, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != expectedPartsCount {
			continue
		}

		key := strings.TrimSpace(parts[0])
		if !slices.Contains(allowedFields, key) {
			continue
		}

		direction := strings.ToLower(strings.TrimSpace(parts[1]))
		if direction != string(Asc) && direction != string(Desc) {
			continue
		}

		options = append(options, Opt{F: key, D: SortDirection(direction)})
	}

	return options
}

// Make creates a slice of Opt from a variadic list of Opt.
func Make(sortOptions ...Opt) SortOpts {
	return sortOptions
}

// OrDefault returns the options unchanged when non-empty, otherwise the
// provided fallback. Listing operations use it to apply their default order.
func (s SortOpts) OrDefault(fallback ...Opt) SortOpts {
	if len(s) > 0 {
		return s
	}
	return fallback
}

// ToSQL converts an Opt into an SQL-compatible clause (e.g. "created_at desc").
func (o Opt) ToSQL() string {
	return o.F + " " + string(o.D)
}
