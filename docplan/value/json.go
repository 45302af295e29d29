package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// ErrMalformed is returned for input that is not a well formed JSON document.
var ErrMalformed = errors.New("malformed document")

// Extended JSON wrappers for values that plain JSON cannot express.
const (
	minKeyField = "$minKey"
	maxKeyField = "$maxKey"
	regexField  = "$regularExpression"
)

// ParseDoc decodes a JSON object, preserving field order. Blank input decodes
// to the empty document.
func ParseDoc(data []byte) (Doc, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Doc{}, nil
	}
	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if end != len(data) {
		return nil, fmt.Errorf("%w: trailing data at offset %d", ErrMalformed, end)
	}
	if typ != jsonparser.Object {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrMalformed, typ)
	}
	return parseObject(raw)
}

// ParseValue decodes any JSON value.
func ParseValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if end != len(data) {
		return Value{}, fmt.Errorf("%w: trailing data at offset %d", ErrMalformed, end)
	}
	return parseValue(raw, typ)
}

func parseObject(raw []byte) (Doc, error) {
	d := Doc{}
	err := jsonparser.ObjectEach(raw, func(key, val []byte, typ jsonparser.ValueType, _ int) error {
		v, err := parseValue(val, typ)
		if err != nil {
			return err
		}
		d = append(d, Elem{Key: string(key), Value: v})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return d, nil
}

func parseValue(raw []byte, typ jsonparser.ValueType) (Value, error) {
	switch typ {
	case jsonparser.Null:
		return Null(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Bool(b), nil
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Number(f), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return String(s), nil
	case jsonparser.Array:
		var (
			elems   = []Value{}
			elemErr error
		)
		_, err := jsonparser.ArrayEach(raw, func(val []byte, typ jsonparser.ValueType, _ int, err error) {
			if elemErr != nil {
				return
			}
			if err != nil {
				elemErr = fmt.Errorf("%w: %v", ErrMalformed, err)
				return
			}
			v, err := parseValue(val, typ)
			if err != nil {
				elemErr = err
				return
			}
			elems = append(elems, v)
		})
		if elemErr != nil {
			return Value{}, elemErr
		}
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Value{kind: KindArray, arr: elems}, nil
	case jsonparser.Object:
		d, err := parseObject(raw)
		if err != nil {
			return Value{}, err
		}
		return fromExtended(d), nil
	}
	return Value{}, fmt.Errorf("%w: unexpected token %s", ErrMalformed, typ)
}

// fromExtended recognises the single-field wrappers emitted by MarshalJSON.
func fromExtended(d Doc) Value {
	if len(d) != 1 {
		return Value{kind: KindObject, doc: d}
	}
	e := d[0]
	switch e.Key {
	case minKeyField:
		return MinKey()
	case maxKeyField:
		return MaxKey()
	case regexField:
		if e.Value.kind == KindObject {
			p, okP := e.Value.doc.Lookup("pattern")
			o, okO := e.Value.doc.Lookup("options")
			if okP && p.kind == KindString && (!okO || o.kind == KindString) {
				return Regex(p.str, o.str)
			}
		}
	}
	return Value{kind: KindObject, doc: d}
}

// MarshalJSON encodes v. Sentinels and regular expressions use the
// extended wrappers understood by ParseValue.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON encodes d with its fields in order.
func (d Doc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindMinKey:
		buf.WriteString(`{"` + minKeyField + `":1}`)
	case KindMaxKey:
		buf.WriteString(`{"` + maxKeyField + `":1}`)
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		b, err := json.Marshal(v.num)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		writeString(buf, v.str)
	case KindRegex:
		buf.WriteString(`{"` + regexField + `":{"pattern":`)
		writeString(buf, v.str)
		buf.WriteString(`,"options":`)
		writeString(buf, v.opts)
		buf.WriteString("}}")
	case KindObject:
		return v.doc.encode(buf)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("cannot encode value of kind %s", v.kind)
	}
	return nil
}

func (d Doc) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, e.Key)
		buf.WriteByte(':')
		if err := e.Value.encode(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
