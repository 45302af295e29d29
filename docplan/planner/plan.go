package planner

import (
	"github.com/nonibytes/docplan/docplan/query"
	"github.com/nonibytes/docplan/docplan/value"
)

// IndexDescriptor names an index and its key pattern. The zero descriptor is
// the full collection scan.
type IndexDescriptor struct {
	Name       string
	KeyPattern query.KeyPattern
}

func (d IndexDescriptor) FullScan() bool { return d.KeyPattern.Empty() }

// Counters is the coverage accounting of an index against a bound set.
type Counters struct {
	// Nontrivial bounds in the predicate
	Nontrivial int
	// Index key fields that carry a nontrivial bound
	Indexed int
	// Leading run of index key fields with equality bounds
	OrderEqIndexed int
	// Equality bounded key fields whose value matches exactly
	Exact int
	// Sort fields the key pattern does not contain
	UncoveredSort int
}

// IsOptimal is the early exit rule of plan selection: a plan that needs no
// extra sort and whose leading equality prefix covers all but at most one
// nontrivial bound is good enough to stop looking. Any plan that needs no
// sort qualifies when the predicate has at most one nontrivial bound.
func IsOptimal(requiresExtraSort bool, c Counters) bool {
	if requiresExtraSort {
		return false
	}
	return c.Nontrivial == 0 || c.OrderEqIndexed+1 >= c.Nontrivial
}

// QueryPlan holds the verdicts for scanning one index. It is immutable.
type QueryPlan struct {
	index             IndexDescriptor
	requiresExtraSort bool
	optimal           bool
	keyMatch          bool
	exactKeyMatch     bool
	direction         query.Direction
	counters          Counters
}

// NewQueryPlan evaluates idx for the bounds and sort. A zero idx is the full
// collection scan.
func NewQueryPlan(bs *BoundSet, sort query.KeyPattern, idx IndexDescriptor) QueryPlan {
	p := QueryPlan{
		index:     idx,
		direction: query.Ascending,
		counters:  Counters{Nontrivial: bs.Nontrivial()},
	}
	if idx.FullScan() {
		p.requiresExtraSort = !sort.Empty()
		p.optimal = sort.Empty()
		return p
	}

	p.requiresExtraSort, p.direction = sortOrder(bs, sort, idx.KeyPattern)
	p.counters = coverage(bs, sort, idx.KeyPattern)
	p.optimal = IsOptimal(p.requiresExtraSort, p.counters)
	p.keyMatch = p.counters.Indexed == p.counters.Nontrivial && p.counters.UncoveredSort == 0
	p.exactKeyMatch = p.keyMatch && p.counters.Exact == p.counters.Nontrivial
	return p
}

// sortOrder walks the sort and the key pattern in step. Key fields pinned by
// an equality bound may be skipped since they contribute no ordering. It
// reports whether a sort after the scan is still needed, and the scan
// direction that serves the sort.
func sortOrder(bs *BoundSet, sort, key query.KeyPattern) (bool, query.Direction) {
	var (
		dir query.Direction
		k   int
	)
	for _, sf := range sort {
		for {
			if k >= len(key) {
				return true, orAscending(dir)
			}
			kf := key[k]
			k++
			if kf.Field == sf.Field {
				d := query.Ascending
				if kf.Direction != sf.Direction {
					d = query.Descending
				}
				if dir == 0 {
					dir = d
				} else if dir != d {
					return true, dir
				}
				break
			}
			if !bs.Bound(kf.Field).Equality() {
				return true, orAscending(dir)
			}
		}
	}
	return false, orAscending(dir)
}

func orAscending(d query.Direction) query.Direction {
	if d == 0 {
		return query.Ascending
	}
	return d
}

func coverage(bs *BoundSet, sort, key query.KeyPattern) Counters {
	c := Counters{Nontrivial: bs.Nontrivial()}
	uncovered := make(map[string]struct{}, len(sort))
	for _, sf := range sort {
		uncovered[sf.Field] = struct{}{}
	}
	leading := true
	for _, kf := range key {
		b := bs.Bound(kf.Field)
		if b.Nontrivial() {
			c.Indexed++
		}
		if leading {
			if b.Equality() {
				c.OrderEqIndexed++
			} else {
				leading = false
			}
		}
		if b.Equality() && exact(b.Upper()) {
			c.Exact++
		}
		delete(uncovered, kf.Field)
	}
	c.UncoveredSort = len(uncovered)
	return c
}

// exact reports whether an index match on v is a match on the literal itself.
// Numbers are excluded since distinct representations compare equal.
func exact(v value.Value) bool {
	return !v.IsNumber() && !v.MayEncapsulate() && v.Kind() != value.KindRegex
}

func (p QueryPlan) Index() IndexDescriptor { return p.index }

// FullScan reports whether the plan scans the whole collection.
func (p QueryPlan) FullScan() bool { return p.index.FullScan() }

// RequiresExtraSort reports whether results need sorting after the scan.
func (p QueryPlan) RequiresExtraSort() bool { return p.requiresExtraSort }

// Optimal reports whether the plan is good enough to stop evaluating others.
func (p QueryPlan) Optimal() bool { return p.optimal }

// KeyMatch reports whether the index accounts for every nontrivial bound and
// the whole sort.
func (p QueryPlan) KeyMatch() bool { return p.keyMatch }

// ExactKeyMatch is KeyMatch where every bound is an exact equality.
func (p QueryPlan) ExactKeyMatch() bool { return p.exactKeyMatch }

// ScanDirection is the direction to walk the index in to produce the sort.
func (p QueryPlan) ScanDirection() query.Direction { return p.direction }

func (p QueryPlan) Counters() Counters { return p.counters }
