package planner

import (
	"fmt"

	"github.com/nonibytes/docplan/docplan/query"
	"github.com/nonibytes/docplan/docplan/value"
)

// BoundSet holds the bound of every field a predicate constrains. It is
// immutable once built.
type BoundSet struct {
	predicate  value.Doc
	fields     []string
	bounds     map[string]FieldBound
	nontrivial int
}

// NewBoundSet intersects the clauses of pred field by field. The predicate is
// copied.
func NewBoundSet(pred value.Doc) (*BoundSet, error) {
	bs := &BoundSet{
		predicate: pred.Clone(),
		bounds:    make(map[string]FieldBound),
	}
	clauses, err := query.Clauses(bs.predicate)
	if err != nil {
		return nil, err
	}
	for _, c := range clauses {
		cb, err := NewFieldBound(c)
		if err != nil {
			return nil, err
		}
		cur, ok := bs.bounds[c.Field]
		if !ok {
			cur = FullRange()
			bs.fields = append(bs.fields, c.Field)
		}
		next, err := cur.Intersect(cb)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", c.Field, err)
		}
		bs.bounds[c.Field] = next
	}
	for _, b := range bs.bounds {
		if b.Nontrivial() {
			bs.nontrivial++
		}
	}
	return bs, nil
}

// Bound returns the bound of field; unconstrained fields get the full range.
func (bs *BoundSet) Bound(field string) FieldBound {
	if b, ok := bs.bounds[field]; ok {
		return b
	}
	return FullRange()
}

// Nontrivial is the number of fields whose bound is narrower than the full
// range.
func (bs *BoundSet) Nontrivial() int { return bs.nontrivial }

// Fields lists the constrained fields in predicate order.
func (bs *BoundSet) Fields() []string {
	out := make([]string, len(bs.fields))
	copy(out, bs.fields)
	return out
}

func (bs *BoundSet) Predicate() value.Doc { return bs.predicate }
