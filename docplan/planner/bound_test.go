package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/docplan/docplan/query"
	"github.com/nonibytes/docplan/docplan/value"
)

func mustDoc(t *testing.T, s string) value.Doc {
	t.Helper()
	d, err := value.ParseDoc([]byte(s))
	require.NoError(t, err)
	return d
}

func mustBoundSet(t *testing.T, pred string) *BoundSet {
	t.Helper()
	bs, err := NewBoundSet(mustDoc(t, pred))
	require.NoError(t, err)
	return bs
}

func clauseBound(t *testing.T, field string, op query.Operator, operand value.Value) FieldBound {
	t.Helper()
	b, err := NewFieldBound(query.Clause{Field: field, Operator: op, Operand: operand})
	require.NoError(t, err)
	return b
}

func assertBound(t *testing.T, b FieldBound, lower, upper value.Value, equality bool) {
	t.Helper()
	assert.True(t, value.Equal(lower, b.Lower()), "lower: want %s got %s", lower, b.Lower())
	assert.True(t, value.Equal(upper, b.Upper()), "upper: want %s got %s", upper, b.Upper())
	assert.Equal(t, equality, b.Equality())
}

func TestFullRange(t *testing.T) {
	b := FullRange()
	assertBound(t, b, value.MinKey(), value.MaxKey(), false)
	assert.False(t, b.Nontrivial())
	assert.Empty(t, b.Literals())
}

func TestFieldBoundFromClause(t *testing.T) {
	five := value.Number(5)
	assertBound(t, clauseBound(t, "a", query.OpEq, five), five, five, true)
	assertBound(t, clauseBound(t, "a", query.OpLt, five), value.MinKey(), five, false)
	assertBound(t, clauseBound(t, "a", query.OpLte, five), value.MinKey(), five, false)
	assertBound(t, clauseBound(t, "a", query.OpGt, five), five, value.MaxKey(), false)
	assertBound(t, clauseBound(t, "a", query.OpGte, five), five, value.MaxKey(), false)
	assertBound(t, clauseBound(t, "a", query.Operator("$near"), five), value.MinKey(), value.MaxKey(), false)
	assertBound(t, clauseBound(t, "a", query.OpNe, five), value.MinKey(), value.MaxKey(), false)
}

func TestFieldBoundIn(t *testing.T) {
	in := value.Array([]value.Value{value.Number(3), value.Number(1), value.Number(2)})
	b := clauseBound(t, "a", query.OpIn, in)
	assertBound(t, b, value.Number(1), value.Number(3), false)
	assert.Len(t, b.Literals(), 2)

	mixed := value.Array([]value.Value{value.String("x"), value.Number(9), value.Null()})
	assertBound(t, clauseBound(t, "a", query.OpIn, mixed), value.Null(), value.String("x"), false)

	empty := clauseBound(t, "a", query.OpIn, value.Array(nil))
	assertBound(t, empty, value.MaxKey(), value.MinKey(), false)
	_, err := FullRange().Intersect(empty)
	assert.ErrorIs(t, err, ErrContradictoryBounds)
}

func TestFieldBoundInRequiresArray(t *testing.T) {
	_, err := NewFieldBound(query.Clause{Field: "a", Operator: query.OpIn, Operand: value.Number(1)})
	assert.ErrorIs(t, err, query.ErrMalformed)
}

func TestFieldBoundRegex(t *testing.T) {
	b := clauseBound(t, "a", query.OpRegex, value.String("^abc"))
	assertBound(t, b, value.String("abc"), value.String("abd"), false)
	assert.Len(t, b.Literals(), 2)

	for _, pattern := range []string{"abc", "^.bc", "^(a|b)"} {
		b := clauseBound(t, "a", query.OpRegex, value.String(pattern))
		assert.False(t, b.Nontrivial(), pattern)
	}

	withOptions, err := NewFieldBound(query.Clause{Field: "a", Operator: query.OpRegex, Operand: value.String("^abc"), Options: "i"})
	require.NoError(t, err)
	assert.False(t, withOptions.Nontrivial())
}

func TestFieldBoundRegexValueIsNeverEquality(t *testing.T) {
	bs := mustBoundSet(t, `{"a": {"$regularExpression": {"pattern": "^ab", "options": ""}}}`)
	assertBound(t, bs.Bound("a"), value.String("ab"), value.String("ac"), false)

	eq := clauseBound(t, "a", query.OpEq, value.Regex("^ab", ""))
	assertBound(t, eq, value.String("ab"), value.String("ac"), false)

	noPrefix := clauseBound(t, "a", query.OpEq, value.Regex("b+", ""))
	assertBound(t, noPrefix, value.MinKey(), value.MaxKey(), false)
}

func TestIntersect(t *testing.T) {
	gt := clauseBound(t, "a", query.OpGt, value.Number(1))
	lt := clauseBound(t, "a", query.OpLt, value.Number(10))
	b, err := gt.Intersect(lt)
	require.NoError(t, err)
	assertBound(t, b, value.Number(1), value.Number(10), false)

	eq := clauseBound(t, "a", query.OpEq, value.Number(4))
	b, err = b.Intersect(eq)
	require.NoError(t, err)
	assertBound(t, b, value.Number(4), value.Number(4), true)

	_, err = clauseBound(t, "a", query.OpGt, value.Number(10)).Intersect(clauseBound(t, "a", query.OpLt, value.Number(5)))
	assert.ErrorIs(t, err, ErrContradictoryBounds)
}

func TestIntersectUnionsLiterals(t *testing.T) {
	re := clauseBound(t, "a", query.OpRegex, value.String("^ab"))
	in := clauseBound(t, "a", query.OpIn, value.Array([]value.Value{value.String("aba"), value.String("abz")}))
	b, err := re.Intersect(in)
	require.NoError(t, err)
	assert.Len(t, b.Literals(), 4)
	assertBound(t, b, value.String("aba"), value.String("abz"), false)
}

func sampleBounds(t *testing.T) []FieldBound {
	return []FieldBound{
		FullRange(),
		clauseBound(t, "a", query.OpGt, value.Number(1)),
		clauseBound(t, "a", query.OpLte, value.Number(10)),
		clauseBound(t, "a", query.OpEq, value.Number(5)),
		clauseBound(t, "a", query.OpIn, value.Array([]value.Value{value.Number(2), value.Number(7)})),
		clauseBound(t, "a", query.OpGte, value.String("m")),
		clauseBound(t, "a", query.OpRegex, value.String("^ab")),
		clauseBound(t, "a", query.OpLt, value.Null()),
		clauseBound(t, "a", query.OpEq, value.String("abc")),
	}
}

func sameBound(t *testing.T, x FieldBound, xErr error, y FieldBound, yErr error) {
	t.Helper()
	if xErr != nil || yErr != nil {
		assert.ErrorIs(t, xErr, ErrContradictoryBounds)
		assert.ErrorIs(t, yErr, ErrContradictoryBounds)
		return
	}
	assertBound(t, y, x.Lower(), x.Upper(), x.Equality())
}

func TestIntersectProperties(t *testing.T) {
	bounds := sampleBounds(t)
	for _, a := range bounds {
		for _, b := range bounds {
			ab, abErr := a.Intersect(b)
			ba, baErr := b.Intersect(a)
			sameBound(t, ab, abErr, ba, baErr)
			if abErr == nil {
				assert.True(t, value.Equal(ab.Lower(), value.Max(a.Lower(), b.Lower())))
				assert.True(t, value.Equal(ab.Upper(), value.Min(a.Upper(), b.Upper())))
			}

			for _, c := range bounds {
				var (
					left, right       FieldBound
					leftErr, rightErr error
				)
				if abErr != nil {
					leftErr = abErr
				} else {
					left, leftErr = ab.Intersect(c)
				}
				bc, bcErr := b.Intersect(c)
				if bcErr != nil {
					rightErr = bcErr
				} else {
					right, rightErr = a.Intersect(bc)
				}
				sameBound(t, left, leftErr, right, rightErr)
			}
		}
	}
}

func TestBoundSet(t *testing.T) {
	bs := mustBoundSet(t, `{"a": 5, "b": {"$gt": 1, "$lt": 9}, "c": {"$near": 1}, "$or": [{"d": 1}]}`)
	assert.Equal(t, 2, bs.Nontrivial())
	assert.Equal(t, []string{"a", "b", "c"}, bs.Fields())

	assertBound(t, bs.Bound("a"), value.Number(5), value.Number(5), true)
	assertBound(t, bs.Bound("b"), value.Number(1), value.Number(9), false)
	assertBound(t, bs.Bound("c"), value.MinKey(), value.MaxKey(), false)
	assertBound(t, bs.Bound("d"), value.MinKey(), value.MaxKey(), false)
}

func TestBoundSetEquality(t *testing.T) {
	bs := mustBoundSet(t, `{"a": 5}`)
	b := bs.Bound("a")
	assertBound(t, b, value.Number(5), value.Number(5), true)
}

func TestBoundSetIn(t *testing.T) {
	bs := mustBoundSet(t, `{"a": {"$in": [3, 1, 2]}}`)
	assertBound(t, bs.Bound("a"), value.Number(1), value.Number(3), false)
}

func TestBoundSetClauseOrderDoesNotMatter(t *testing.T) {
	x := mustBoundSet(t, `{"a": {"$gt": 1, "$lte": 8, "$in": [0, 4, 6]}}`)
	y := mustBoundSet(t, `{"a": {"$in": [0, 4, 6], "$lte": 8, "$gt": 1}}`)
	sameBound(t, x.Bound("a"), nil, y.Bound("a"), nil)
	assertBound(t, x.Bound("a"), value.Number(1), value.Number(6), false)
}

func TestBoundSetContradiction(t *testing.T) {
	_, err := NewBoundSet(mustDoc(t, `{"a": {"$gt": 10, "$lt": 5}}`))
	require.ErrorIs(t, err, ErrContradictoryBounds)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestBoundSetMalformed(t *testing.T) {
	_, err := NewBoundSet(mustDoc(t, `{"a": {"$in": 3}}`))
	assert.ErrorIs(t, err, query.ErrMalformed)
}

func TestBoundSetOwnsPredicate(t *testing.T) {
	pred := mustDoc(t, `{"a": {"$in": ["x", "y"]}}`)
	bs, err := NewBoundSet(pred)
	require.NoError(t, err)
	pred[0].Key = "changed"
	assert.Equal(t, "a", bs.Predicate()[0].Key)
	assertBound(t, bs.Bound("a"), value.String("x"), value.String("y"), false)
}
