package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareTypePrecedence(t *testing.T) {
	ordered := []Value{
		MinKey(),
		Null(),
		Number(-1e9),
		Number(3),
		String(""),
		String("abc"),
		Object(Doc{{Key: "a", Value: Number(1)}}),
		Array([]Value{Number(1)}),
		Bool(false),
		Bool(true),
		Regex("^a", ""),
		MaxKey(),
	}
	for i := range ordered {
		for j := range ordered {
			got := Compare(ordered[i], ordered[j])
			switch {
			case i < j:
				assert.Equal(t, -1, got, "%s vs %s", ordered[i], ordered[j])
			case i > j:
				assert.Equal(t, 1, got, "%s vs %s", ordered[i], ordered[j])
			default:
				assert.Equal(t, 0, got, "%s vs itself", ordered[i])
			}
		}
	}
}

func TestCompareWithinKind(t *testing.T) {
	for _, tc := range []struct {
		name string
		a, b Value
		want int
	}{
		{"numbers", Number(2), Number(10), -1},
		{"mixed integer and float", Number(2), Number(2.0), 0},
		{"strings are bytewise", String("Z"), String("a"), -1},
		{"string prefix", String("ab"), String("abc"), -1},
		{"bool", Bool(true), Bool(false), 1},
		{"regex pattern first", Regex("a", "z"), Regex("b", ""), -1},
		{"regex options", Regex("a", "i"), Regex("a", "m"), -1},
		{"array elementwise", Array([]Value{Number(1), Number(5)}), Array([]Value{Number(2)}), -1},
		{"array prefix", Array([]Value{Number(1)}), Array([]Value{Number(1), Null()}), -1},
		{"empty arrays", Array(nil), Array([]Value{}), 0},
		{
			"object by value kind",
			Object(Doc{{Key: "z", Value: Null()}}),
			Object(Doc{{Key: "a", Value: Number(0)}}),
			-1,
		},
		{
			"object by key",
			Object(Doc{{Key: "a", Value: Number(9)}}),
			Object(Doc{{Key: "b", Value: Number(0)}}),
			-1,
		},
		{
			"object by value",
			Object(Doc{{Key: "a", Value: Number(1)}}),
			Object(Doc{{Key: "a", Value: Number(0)}}),
			1,
		},
		{
			"object prefix",
			Object(Doc{{Key: "a", Value: Number(1)}}),
			Object(Doc{{Key: "a", Value: Number(1)}, {Key: "b", Value: Null()}}),
			-1,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compare(tc.a, tc.b))
			assert.Equal(t, -tc.want, Compare(tc.b, tc.a))
		})
	}
}

func TestMinMax(t *testing.T) {
	require.True(t, Equal(Min(Number(3), String("a")), Number(3)))
	require.True(t, Equal(Max(Number(3), String("a")), String("a")))
	require.True(t, Equal(Min(MaxKey(), MinKey()), MinKey()))
	require.True(t, Equal(Max(MaxKey(), MinKey()), MaxKey()))
}

func TestCloneIsDeep(t *testing.T) {
	inner := []Value{Number(1)}
	orig := Array(inner)
	inner[0] = Number(2)
	require.True(t, Equal(orig.Elems()[0], Number(1)), "Array must copy its input")

	d := Doc{{Key: "a", Value: Array([]Value{Number(1)})}}
	cp := d.Clone()
	cp[0].Value.arr[0] = Number(7)
	require.True(t, Equal(d[0].Value.Elems()[0], Number(1)))
}

func TestDocPath(t *testing.T) {
	d := Doc{
		{Key: "a", Value: Object(Doc{{Key: "b", Value: Number(1)}})},
		{Key: "x.y", Value: String("dotted")},
	}
	v, ok := d.Path("a.b")
	require.True(t, ok)
	assert.True(t, Equal(v, Number(1)))

	v, ok = d.Path("x.y")
	require.True(t, ok)
	assert.True(t, Equal(v, String("dotted")))

	_, ok = d.Path("a.c")
	assert.False(t, ok)
	_, ok = d.Path("missing")
	assert.False(t, ok)
}
