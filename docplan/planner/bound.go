// Package planner derives per-field value ranges from a predicate and ranks
// the candidate scans of a collection's indexes.
package planner

import (
	"errors"
	"fmt"

	"github.com/nonibytes/docplan/docplan/query"
	"github.com/nonibytes/docplan/docplan/value"
)

// ErrContradictoryBounds is returned when clauses on one field admit no value.
var ErrContradictoryBounds = errors.New("contradictory bounds")

// FieldBound is the closed interval of values a field may take.
type FieldBound struct {
	lower    value.Value
	upper    value.Value
	equality bool
	// literals holds values derived from the predicate (regex prefix
	// endpoints, $in extremes); the bound owns them.
	literals []value.Value
}

// FullRange is the bound of an unconstrained field.
func FullRange() FieldBound {
	return FieldBound{lower: value.MinKey(), upper: value.MaxKey()}
}

// NewFieldBound computes the bound a single clause implies.
func NewFieldBound(c query.Clause) (FieldBound, error) {
	b := FullRange()
	switch c.Operator {
	case query.OpEq:
		if c.Operand.Kind() == value.KindRegex {
			return regexBound(c.Operand.RegexPattern(), c.Operand.RegexOptions()), nil
		}
		v := c.Operand.Clone()
		b.lower, b.upper, b.equality = v, v, true
	case query.OpLt, query.OpLte:
		b.upper = c.Operand.Clone()
	case query.OpGt, query.OpGte:
		b.lower = c.Operand.Clone()
	case query.OpIn:
		if c.Operand.Kind() != value.KindArray {
			return FieldBound{}, fmt.Errorf("%w: %s of %q needs an array", query.ErrMalformed, c.Operator, c.Field)
		}
		// an empty list leaves [MaxKey, MinKey], which never survives intersection
		lo, hi := value.MaxKey(), value.MinKey()
		for _, v := range c.Operand.Elems() {
			lo = value.Min(lo, v)
			hi = value.Max(hi, v)
		}
		b.lower, b.upper = lo.Clone(), hi.Clone()
		b.literals = []value.Value{b.lower, b.upper}
	case query.OpRegex:
		return regexBound(c.Operand.AsString(), c.Options), nil
	}
	return b, nil
}

// regexBound is the string range a pattern's literal prefix pins, or the full
// range when there is none.
func regexBound(pattern, options string) FieldBound {
	b := FullRange()
	if prefix, ok := query.SimplePrefix(pattern, options); ok {
		b.lower = value.String(prefix)
		b.upper = value.String(query.PrefixEnd(prefix))
		b.literals = []value.Value{b.lower, b.upper}
	}
	return b
}

// Intersect narrows b by other. It fails with ErrContradictoryBounds when the
// result is empty.
func (b FieldBound) Intersect(other FieldBound) (FieldBound, error) {
	out := FieldBound{
		lower:    value.Max(b.lower, other.lower),
		upper:    value.Min(b.upper, other.upper),
		equality: b.equality || other.equality,
	}
	if len(b.literals)+len(other.literals) > 0 {
		out.literals = make([]value.Value, 0, len(b.literals)+len(other.literals))
		out.literals = append(out.literals, b.literals...)
		out.literals = append(out.literals, other.literals...)
	}
	if value.Compare(out.lower, out.upper) > 0 {
		return FieldBound{}, fmt.Errorf("%w: lower %s is above upper %s", ErrContradictoryBounds, out.lower, out.upper)
	}
	return out, nil
}

func (b FieldBound) Lower() value.Value { return b.lower }
func (b FieldBound) Upper() value.Value { return b.upper }

// Equality reports whether the bound came from an exact-match clause.
func (b FieldBound) Equality() bool { return b.equality }

// Nontrivial reports whether the bound is narrower than the full range.
func (b FieldBound) Nontrivial() bool {
	return b.lower.Kind() != value.KindMinKey || b.upper.Kind() != value.KindMaxKey
}

// Literals returns the derived values held by the bound.
func (b FieldBound) Literals() []value.Value { return b.literals }

func (b FieldBound) String() string {
	s := fmt.Sprintf("[%s, %s]", b.lower, b.upper)
	if b.equality {
		s += " eq"
	}
	return s
}
