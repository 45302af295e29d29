package sqlbuilder

import (
	"strconv"
	"strings"
)

type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

// Builder assembles a statement and its arguments, numbering placeholders in
// the style of the target database.
type Builder struct {
	Style PlaceholderStyle
	sb    strings.Builder
	args  []any
	where bool
}

func New(style PlaceholderStyle) *Builder {
	return &Builder{Style: style, args: make([]any, 0)}
}

// Arg records v and returns its placeholder.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	switch b.Style {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(len(b.args))
	default:
		return "?" + strconv.Itoa(len(b.args))
	}
}

// Write appends raw SQL.
func (b *Builder) Write(parts ...string) *Builder {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
	return b
}

// Where appends `WHERE cond` for the first condition and `AND cond` after.
func (b *Builder) Where(cond string) *Builder {
	if b.where {
		return b.Write(" AND ", cond)
	}
	b.where = true
	return b.Write(" WHERE ", cond)
}

func (b *Builder) SQL() string  { return b.sb.String() }
func (b *Builder) Args() []any { return b.args }
func (b *Builder) Len() int    { return len(b.args) }
