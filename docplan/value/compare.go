package value

import "strings"

// Compare orders two values: by Kind precedence first, then within the kind.
// It returns -1, 0 or +1.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindMinKey, KindMaxKey, KindNull:
		return 0
	case KindNumber:
		return compareFloat(a.num, b.num)
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindRegex:
		if c := strings.Compare(a.str, b.str); c != 0 {
			return c
		}
		return strings.Compare(a.opts, b.opts)
	case KindObject:
		return compareDocs(a.doc, b.doc)
	case KindArray:
		return compareArrays(a.arr, b.arr)
	}
	return 0
}

func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Min returns the smaller of a and b, preferring a on ties.
func Min(a, b Value) Value {
	if Compare(b, a) < 0 {
		return b
	}
	return a
}

// Max returns the larger of a and b, preferring a on ties.
func Max(a, b Value) Value {
	if Compare(b, a) > 0 {
		return b
	}
	return a
}

func compareFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// compareDocs walks both documents in step. Each pair of elements is ranked
// by kind, then field name, then value; a proper prefix sorts first.
func compareDocs(l, r Doc) int {
	n := min(len(l), len(r))
	for i := 0; i < n; i++ {
		le, re := l[i], r[i]
		if le.Value.kind != re.Value.kind {
			if le.Value.kind < re.Value.kind {
				return -1
			}
			return 1
		}
		if c := strings.Compare(le.Key, re.Key); c != 0 {
			return c
		}
		if c := Compare(le.Value, re.Value); c != 0 {
			return c
		}
	}
	return compareLen(len(l), len(r))
}

func compareArrays(l, r []Value) int {
	n := min(len(l), len(r))
	for i := 0; i < n; i++ {
		if c := Compare(l[i], r[i]); c != 0 {
			return c
		}
	}
	return compareLen(len(l), len(r))
}

func compareLen(l, r int) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}
