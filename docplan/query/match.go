package query

import (
	"fmt"
	"strings"

	"github.com/grafana/regexp"

	"github.com/nonibytes/docplan/docplan/value"
)

// Matcher re-checks documents against a predicate. The planner narrows scans
// only on the operators it understands, so every candidate document has to
// pass the matcher before it is returned.
type Matcher struct {
	nodes []node
}

type node interface {
	matches(doc value.Doc) bool
}

// Compile builds a matcher for pred. Unknown operators are rejected here,
// unlike in planning where they are simply not used for narrowing.
func Compile(pred value.Doc) (*Matcher, error) {
	m := &Matcher{}
	for _, e := range pred {
		switch {
		case e.Key == KeyAnd:
			n, err := compileAnd(e.Value)
			if err != nil {
				return nil, err
			}
			m.nodes = append(m.nodes, n)
		case e.Key == KeyComment:
		case strings.HasPrefix(e.Key, "$"):
			return nil, fmt.Errorf("%w: unsupported top level operator %s", ErrMalformed, e.Key)
		default:
			cs, err := FieldClauses(e.Key, e.Value)
			if err != nil {
				return nil, err
			}
			for _, c := range cs {
				n, err := compileClause(c)
				if err != nil {
					return nil, err
				}
				m.nodes = append(m.nodes, n)
			}
		}
	}
	return m, nil
}

// Matches reports whether doc satisfies every condition.
func (m *Matcher) Matches(doc value.Doc) bool {
	for _, n := range m.nodes {
		if !n.matches(doc) {
			return false
		}
	}
	return true
}

type andNode struct {
	children []*Matcher
}

func compileAnd(v value.Value) (node, error) {
	if v.Kind() != value.KindArray || len(v.Elems()) == 0 {
		return nil, fmt.Errorf("%w: %s needs a non-empty array", ErrMalformed, KeyAnd)
	}
	n := &andNode{}
	for _, item := range v.Elems() {
		if item.Kind() != value.KindObject {
			return nil, fmt.Errorf("%w: element of %s must be an object", ErrMalformed, KeyAnd)
		}
		sub, err := Compile(item.Doc())
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, sub)
	}
	return n, nil
}

func (n *andNode) matches(doc value.Doc) bool {
	for _, c := range n.children {
		if !c.Matches(doc) {
			return false
		}
	}
	return true
}

// equalTo matches a literal, or a pattern when the literal is a regex.
type equalTo struct {
	v  value.Value
	re *regexp.Regexp
}

func newEqualTo(v value.Value) (equalTo, error) {
	eq := equalTo{v: v}
	if v.Kind() == value.KindRegex {
		re, err := CompileRegex(v.RegexPattern(), v.RegexOptions())
		if err != nil {
			return equalTo{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		eq.re = re
	}
	return eq, nil
}

func (eq equalTo) test(v value.Value) bool {
	if value.Equal(v, eq.v) {
		return true
	}
	return eq.re != nil && v.Kind() == value.KindString && eq.re.MatchString(v.AsString())
}

type fieldNode struct {
	path     string
	op       Operator
	operand  value.Value
	eq       []equalTo
	re       *regexp.Regexp
	negate   bool
	wantSeen bool
}

func compileClause(c Clause) (node, error) {
	n := &fieldNode{path: c.Field, op: c.Operator, operand: c.Operand}
	switch c.Operator {
	case OpEq, OpNe:
		eq, err := newEqualTo(c.Operand)
		if err != nil {
			return nil, err
		}
		n.eq = []equalTo{eq}
		n.negate = c.Operator == OpNe
	case OpIn, OpNin:
		for _, item := range c.Operand.Elems() {
			eq, err := newEqualTo(item)
			if err != nil {
				return nil, err
			}
			n.eq = append(n.eq, eq)
		}
		n.negate = c.Operator == OpNin
	case OpGt, OpGte, OpLt, OpLte:
	case OpExists:
		n.wantSeen = truthy(c.Operand)
	case OpRegex:
		re, err := CompileRegex(c.Operand.AsString(), c.Options)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		n.re = re
	default:
		return nil, fmt.Errorf("%w: unsupported operator %s on %q", ErrMalformed, c.Operator, c.Field)
	}
	return n, nil
}

func (n *fieldNode) matches(doc value.Doc) bool {
	v, found := doc.Path(n.path)
	switch n.op {
	case OpExists:
		return found == n.wantSeen
	case OpEq, OpNe, OpIn, OpNin:
		return n.anyEqual(v, found) != n.negate
	case OpRegex:
		if !found {
			return false
		}
		for _, c := range candidates(v) {
			if c.Kind() == value.KindString && n.re.MatchString(c.AsString()) {
				return true
			}
		}
		return false
	}
	if !found {
		return false
	}
	for _, c := range candidates(v) {
		// comparisons only hold between values of the same kind
		if c.Kind() != n.operand.Kind() {
			continue
		}
		cmp := value.Compare(c, n.operand)
		switch n.op {
		case OpGt:
			if cmp > 0 {
				return true
			}
		case OpGte:
			if cmp >= 0 {
				return true
			}
		case OpLt:
			if cmp < 0 {
				return true
			}
		case OpLte:
			if cmp <= 0 {
				return true
			}
		}
	}
	return false
}

// anyEqual treats a missing field as null.
func (n *fieldNode) anyEqual(v value.Value, found bool) bool {
	if !found {
		v = value.Null()
	}
	for _, c := range candidates(v) {
		for _, eq := range n.eq {
			if eq.test(c) {
				return true
			}
		}
	}
	return false
}

// candidates yields v itself and, for arrays, each element.
func candidates(v value.Value) []value.Value {
	if v.Kind() != value.KindArray {
		return []value.Value{v}
	}
	return append([]value.Value{v}, v.Elems()...)
}

func truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindBool:
		return v.AsBool()
	case value.KindNumber:
		return v.AsNumber() != 0
	case value.KindNull, value.KindMinKey:
		return false
	}
	return true
}
