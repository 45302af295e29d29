package planner

import (
	"errors"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/nonibytes/docplan/docplan/query"
	"github.com/nonibytes/docplan/docplan/value"
)

// Option configures NewPlanSet.
type Option func(*options)

type options struct {
	logger log.Logger
}

// WithLogger sets the logger plan selection is reported to.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// PlanSet is the ordered list of candidate plans for one request. The full
// scan is always first.
type PlanSet struct {
	bounds         *BoundSet
	sort           query.KeyPattern
	plans          []QueryPlan
	evaluated      int
	shortCircuited bool
	unsatisfiable  error
	steps          []string
}

// NewPlanSet builds candidate plans for pred and sort over indexes, taken in
// catalog order. Indexes must be a stable snapshot for the duration of the
// call.
//
// A predicate whose bounds contradict each other is not an error: the plan
// set is returned with Unsatisfiable set and no candidates. Malformed
// predicates are returned as errors.
func NewPlanSet(pred value.Doc, sort query.KeyPattern, indexes []IndexDescriptor, opts ...Option) (*PlanSet, error) {
	o := options{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	ps := &PlanSet{sort: sort}
	bs, err := NewBoundSet(pred)
	if err != nil {
		if errors.Is(err, ErrContradictoryBounds) {
			level.Debug(o.logger).Log("msg", "predicate is unsatisfiable", "err", err)
			ps.unsatisfiable = err
			ps.steps = append(ps.steps, "UNSATISFIABLE "+err.Error())
			return ps, nil
		}
		return nil, err
	}
	ps.bounds = bs
	for _, f := range bs.Fields() {
		ps.steps = append(ps.steps, boundStep(f, bs.Bound(f)))
	}
	if !sort.Empty() {
		ps.steps = append(ps.steps, "SORT "+sort.String())
	}

	full := NewQueryPlan(bs, sort, IndexDescriptor{})
	ps.plans = append(ps.plans, full)
	ps.steps = append(ps.steps, planStep(full))
	if bs.Nontrivial() == 0 && sort.Empty() {
		level.Debug(o.logger).Log("msg", "unconstrained predicate, full scan only")
		ps.steps = append(ps.steps, "SKIP INDEXES unconstrained predicate and no sort")
		return ps, nil
	}

	evaluated := make([]QueryPlan, 0, len(indexes))
	for _, idx := range indexes {
		if idx.FullScan() {
			continue
		}
		p := NewQueryPlan(bs, sort, idx)
		ps.evaluated++
		ps.steps = append(ps.steps, planStep(p))
		if p.Optimal() {
			level.Debug(o.logger).Log("msg", "optimal plan found", "index", idx.Name, "evaluated", ps.evaluated)
			ps.plans = append(ps.plans, p)
			ps.shortCircuited = true
			ps.steps = append(ps.steps, fmt.Sprintf("STOP optimal plan %s, %d of %d indexes evaluated", idx.Name, ps.evaluated, len(indexes)))
			return ps, nil
		}
		evaluated = append(evaluated, p)
	}
	ps.plans = append(ps.plans, evaluated...)
	level.Debug(o.logger).Log("msg", "no optimal plan", "candidates", len(ps.plans))
	return ps, nil
}

// Plans returns the candidates, full scan first.
func (ps *PlanSet) Plans() []QueryPlan { return ps.plans }

// Unsatisfiable reports whether no document can match the predicate.
func (ps *PlanSet) Unsatisfiable() bool { return ps.unsatisfiable != nil }

// UnsatisfiableReason returns the contradiction behind Unsatisfiable.
func (ps *PlanSet) UnsatisfiableReason() error { return ps.unsatisfiable }

// Bounds is nil for an unsatisfiable plan set.
func (ps *PlanSet) Bounds() *BoundSet { return ps.bounds }

func (ps *PlanSet) Sort() query.KeyPattern { return ps.sort }

// Evaluated is the number of catalog indexes that were planned.
func (ps *PlanSet) Evaluated() int { return ps.evaluated }

// ShortCircuited reports whether an optimal plan ended the catalog walk.
func (ps *PlanSet) ShortCircuited() bool { return ps.shortCircuited }
