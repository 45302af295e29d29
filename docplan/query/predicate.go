// Package query decodes the documents a planning request is made of:
// predicates, sort orders and index key patterns. It also compiles
// predicates into matchers that re-check candidate documents.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nonibytes/docplan/docplan/value"
)

// ErrMalformed marks a predicate, sort or key pattern with an invalid shape.
var ErrMalformed = errors.New("malformed document")

// Operator represents a field operator (e.g. $eq, $gt, $in)
type Operator string

const (
	OpEq      Operator = "$eq"
	OpNe      Operator = "$ne"
	OpGt      Operator = "$gt"
	OpGte     Operator = "$gte"
	OpLt      Operator = "$lt"
	OpLte     Operator = "$lte"
	OpIn      Operator = "$in"
	OpNin     Operator = "$nin"
	OpExists  Operator = "$exists"
	OpRegex   Operator = "$regex"
	OpOptions Operator = "$options"
)

// Top level keys that are not field names
const (
	KeyAnd     = "$and"
	KeyComment = "$comment"
)

// Clause is a single (field, operator, operand) condition of a predicate
type Clause struct {
	Field    string
	Operator Operator
	Operand  value.Value
	// Options holds the $options sibling of a $regex clause.
	Options string
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Operator, c.Operand)
}

// IsOperatorDoc reports whether v is an operator document: an object whose
// first field name starts with '$'.
func IsOperatorDoc(v value.Value) bool {
	if v.Kind() != value.KindObject {
		return false
	}
	d := v.Doc()
	return len(d) > 0 && strings.HasPrefix(d[0].Key, "$")
}

// Clauses flattens a predicate into clauses, in document order. Top level keys
// starting with '$' carry no field conditions and are skipped. A bare value is
// an equality clause; an operator document yields one clause per operator.
// $options never yields a clause of its own; it is attached to its $regex
// sibling.
func Clauses(pred value.Doc) ([]Clause, error) {
	var out []Clause
	for _, e := range pred {
		if strings.HasPrefix(e.Key, "$") {
			continue
		}
		cs, err := FieldClauses(e.Key, e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

// FieldClauses returns the clauses one predicate field contributes. A bare
// regular expression value is a $regex clause, not an equality.
func FieldClauses(field string, v value.Value) ([]Clause, error) {
	if v.Kind() == value.KindRegex {
		pattern, opts, err := regexOperand(field, v, "")
		if err != nil {
			return nil, err
		}
		return []Clause{{Field: field, Operator: OpRegex, Operand: value.String(pattern), Options: opts}}, nil
	}
	if !IsOperatorDoc(v) {
		return []Clause{{Field: field, Operator: OpEq, Operand: v}}, nil
	}
	ops := v.Doc()
	options := ""
	if o, ok := ops.Lookup(string(OpOptions)); ok {
		if o.Kind() != value.KindString {
			return nil, fmt.Errorf("%w: %s of %q must be a string", ErrMalformed, OpOptions, field)
		}
		options = o.AsString()
	}

	out := make([]Clause, 0, len(ops))
	for _, op := range ops {
		if !strings.HasPrefix(op.Key, "$") {
			return nil, fmt.Errorf("%w: field %q mixes operators and plain fields", ErrMalformed, field)
		}
		c := Clause{Field: field, Operator: Operator(op.Key), Operand: op.Value}
		switch c.Operator {
		case OpOptions:
			continue
		case OpIn, OpNin:
			if op.Value.Kind() != value.KindArray {
				return nil, fmt.Errorf("%w: %s of %q needs an array", ErrMalformed, c.Operator, field)
			}
		case OpRegex:
			pattern, opts, err := regexOperand(field, op.Value, options)
			if err != nil {
				return nil, err
			}
			c.Operand = value.String(pattern)
			c.Options = opts
		}
		out = append(out, c)
	}
	return out, nil
}

// regexOperand accepts a pattern string or a regular expression value.
// Options given with the value win over the $options sibling when set.
func regexOperand(field string, v value.Value, options string) (string, string, error) {
	var pattern string
	switch v.Kind() {
	case value.KindString:
		pattern = v.AsString()
	case value.KindRegex:
		pattern = v.RegexPattern()
		if v.RegexOptions() != "" {
			options = v.RegexOptions()
		}
	default:
		return "", "", fmt.Errorf("%w: %s of %q must be a string", ErrMalformed, OpRegex, field)
	}
	if _, err := CompileRegex(pattern, options); err != nil {
		return "", "", fmt.Errorf("%w: field %q: %v", ErrMalformed, field, err)
	}
	return pattern, options, nil
}
