package value

import "strings"

// Elem is one named entry of a document.
type Elem struct {
	Key   string
	Value Value
}

// Doc is an ordered document. Key order is significant: predicates are
// processed, and key patterns are read, in document order.
type Doc []Elem

// Lookup returns the first value stored under key.
func (d Doc) Lookup(key string) (Value, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Path resolves a dotted field path through nested objects.
func (d Doc) Path(path string) (Value, bool) {
	head, rest, nested := strings.Cut(path, ".")
	v, ok := d.Lookup(head)
	if !ok {
		// Fields may legitimately contain dots; fall back to a direct lookup.
		if nested {
			return d.Lookup(path)
		}
		return Value{}, false
	}
	if !nested {
		return v, true
	}
	if v.Kind() != KindObject {
		return Value{}, false
	}
	return v.Doc().Path(rest)
}

func (d Doc) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

func (d Doc) Empty() bool { return len(d) == 0 }

// Clone returns a deep copy of d.
func (d Doc) Clone() Doc {
	if d == nil {
		return nil
	}
	cp := make(Doc, len(d))
	for i, e := range d {
		cp[i] = Elem{Key: e.Key, Value: e.Value.Clone()}
	}
	return cp
}

func (d Doc) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
