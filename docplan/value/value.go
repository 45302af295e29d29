// Package value implements the typed document values the planner reasons
// about: scalars, arrays and sub-documents, the MinKey/MaxKey sentinels, and
// the total order that ranks them.
package value

// Kind is the canonical type of a Value. The declaration order is the type
// precedence used by Compare.
type Kind int

const (
	KindMinKey Kind = iota
	KindNull
	KindNumber
	KindString
	KindObject
	KindArray
	KindBool
	KindRegex
	KindMaxKey
)

var kindNames = [...]string{
	KindMinKey: "minKey",
	KindNull:   "null",
	KindNumber: "number",
	KindString: "string",
	KindObject: "object",
	KindArray:  "array",
	KindBool:   "bool",
	KindRegex:  "regex",
	KindMaxKey: "maxKey",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Value is an immutable typed value. The zero Value is MinKey.
type Value struct {
	kind Kind
	num  float64
	str  string // string payload or regex pattern
	opts string // regex options
	b    bool
	doc  Doc
	arr  []Value
}

func MinKey() Value { return Value{kind: KindMinKey} }
func MaxKey() Value { return Value{kind: KindMaxKey} }
func Null() Value   { return Value{kind: KindNull} }

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }

// Regex builds a regular expression value from a pattern and its options.
func Regex(pattern, options string) Value {
	return Value{kind: KindRegex, str: pattern, opts: options}
}

// Object wraps a sub-document. The document is copied.
func Object(d Doc) Value { return Value{kind: KindObject, doc: d.Clone()} }

// Array wraps a list of values. The slice is copied.
func Array(vs []Value) Value {
	cp := make([]Value, len(vs))
	for i, v := range vs {
		cp[i] = v.Clone()
	}
	return Value{kind: KindArray, arr: cp}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsString() string  { return v.str }
func (v Value) AsBool() bool      { return v.b }

// Doc returns the sub-document of an object value.
func (v Value) Doc() Doc { return v.doc }

// Elems returns the elements of an array value.
func (v Value) Elems() []Value { return v.arr }

func (v Value) RegexPattern() string { return v.str }
func (v Value) RegexOptions() string { return v.opts }

func (v Value) IsNumber() bool { return v.kind == KindNumber }

// MayEncapsulate reports whether the value can hold other values.
func (v Value) MayEncapsulate() bool {
	return v.kind == KindObject || v.kind == KindArray
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindObject:
		v.doc = v.doc.Clone()
	case KindArray:
		cp := make([]Value, len(v.arr))
		for i, e := range v.arr {
			cp[i] = e.Clone()
		}
		v.arr = cp
	}
	return v
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + v.kind.String() + ">"
	}
	return string(b)
}
