package planner

import (
	"fmt"
	"strings"
)

func boundStep(field string, b FieldBound) string {
	return fmt.Sprintf("BOUND %s %s", field, b)
}

func planStep(p QueryPlan) string {
	name := "FULLSCAN"
	if !p.FullScan() {
		name = fmt.Sprintf("INDEX %s %s", p.index.Name, p.index.KeyPattern)
	}
	var flags []string
	if p.requiresExtraSort {
		flags = append(flags, "extra_sort")
	}
	if p.optimal {
		flags = append(flags, "optimal")
	}
	if p.keyMatch {
		flags = append(flags, "key_match")
	}
	if p.exactKeyMatch {
		flags = append(flags, "exact_key_match")
	}
	if len(flags) == 0 {
		flags = append(flags, "-")
	}
	c := p.counters
	return fmt.Sprintf("%s dir=%s [%s] indexed=%d/%d order_eq=%d exact=%d uncovered_sort=%d",
		name, p.direction, strings.Join(flags, ","), c.Indexed, c.Nontrivial, c.OrderEqIndexed, c.Exact, c.UncoveredSort)
}

// Explain returns the steps taken while building the plan set.
func (ps *PlanSet) Explain() []string {
	out := make([]string, len(ps.steps))
	copy(out, ps.steps)
	return out
}
