package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nonibytes/docplan/docplan/value"
)

// Direction is the scan order of one key field
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// KeyField is one (field, direction) pair of a key pattern or sort
type KeyField struct {
	Field     string
	Direction Direction
}

// KeyPattern is an ordered list of key fields. It describes both index
// definitions and sort requests.
type KeyPattern []KeyField

// ParseKeyPattern decodes `{"field": 1 | -1, ...}`. Blank input is the empty
// pattern.
func ParseKeyPattern(data []byte) (KeyPattern, error) {
	d, err := value.ParseDoc(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return KeyPatternFromDoc(d)
}

// KeyPatternFromDoc reads a key pattern from a decoded document. Positive
// numbers are ascending, negative numbers descending; anything else, and
// repeated fields, are rejected.
func KeyPatternFromDoc(d value.Doc) (KeyPattern, error) {
	kp := make(KeyPattern, 0, len(d))
	seen := make(map[string]struct{}, len(d))
	for _, e := range d {
		if e.Key == "" {
			return nil, fmt.Errorf("%w: empty field name in key pattern", ErrMalformed)
		}
		if _, dup := seen[e.Key]; dup {
			return nil, fmt.Errorf("%w: field %q repeated in key pattern", ErrMalformed, e.Key)
		}
		seen[e.Key] = struct{}{}

		if !e.Value.IsNumber() {
			return nil, fmt.Errorf("%w: direction of %q must be a number, got %s", ErrMalformed, e.Key, e.Value.Kind())
		}
		var dir Direction
		switch n := e.Value.AsNumber(); {
		case n > 0:
			dir = Ascending
		case n < 0:
			dir = Descending
		default:
			return nil, fmt.Errorf("%w: direction of %q must be non-zero", ErrMalformed, e.Key)
		}
		kp = append(kp, KeyField{Field: e.Key, Direction: dir})
	}
	return kp, nil
}

func (kp KeyPattern) Empty() bool { return len(kp) == 0 }

// Fields returns the field names in key order.
func (kp KeyPattern) Fields() []string {
	out := make([]string, len(kp))
	for i, f := range kp {
		out[i] = f.Field
	}
	return out
}

// Name derives the default index name, e.g. `a_1_b_-1`.
func (kp KeyPattern) Name() string {
	parts := make([]string, 0, 2*len(kp))
	for _, f := range kp {
		parts = append(parts, f.Field, strconv.Itoa(int(f.Direction)))
	}
	return strings.Join(parts, "_")
}

func (kp KeyPattern) Equal(other KeyPattern) bool {
	if len(kp) != len(other) {
		return false
	}
	for i := range kp {
		if kp[i] != other[i] {
			return false
		}
	}
	return true
}

// MarshalJSON writes the pattern back in its document form.
func (kp KeyPattern) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range kp {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(int(f.Direction)))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (kp KeyPattern) String() string {
	b, _ := kp.MarshalJSON()
	return string(b)
}
