package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	docs := map[string]string{
		"alice": `{"name": "alice", "age": 31, "tags": ["admin", "ops"], "addr": {"city": "Oslo"}}`,
		"bob":   `{"name": "bob", "age": 25, "tags": ["dev"], "addr": {"city": "Bergen"}}`,
		"carol": `{"name": "Carol", "age": "unknown"}`,
	}

	for _, tc := range []struct {
		pred string
		want []string
	}{
		{`{}`, []string{"alice", "bob", "carol"}},
		{`{"name": "bob"}`, []string{"bob"}},
		{`{"age": {"$gt": 26}}`, []string{"alice"}},
		{`{"age": {"$gte": 25, "$lt": 31}}`, []string{"bob"}},
		{`{"age": {"$lte": 100}}`, []string{"alice", "bob"}},
		{`{"age": {"$ne": 25}}`, []string{"alice", "carol"}},
		{`{"tags": "ops"}`, []string{"alice"}},
		{`{"tags": {"$in": ["dev", "ops"]}}`, []string{"alice", "bob"}},
		{`{"tags": {"$nin": ["dev"]}}`, []string{"alice", "carol"}},
		{`{"tags": {"$exists": false}}`, []string{"carol"}},
		{`{"tags": null}`, []string{"carol"}},
		{`{"addr.city": "Oslo"}`, []string{"alice"}},
		{`{"name": {"$regex": "^c", "$options": "i"}}`, []string{"carol"}},
		{`{"name": {"$regex": "^[ab]"}}`, []string{"alice", "bob"}},
		{`{"name": {"$regularExpression": {"pattern": "^c", "options": "i"}}}`, []string{"carol"}},
		{`{"$and": [{"age": {"$gt": 20}}, {"tags": "dev"}]}`, []string{"bob"}},
		{`{"$comment": "all", "name": {"$in": []}}`, nil},
	} {
		t.Run(tc.pred, func(t *testing.T) {
			m, err := Compile(mustDoc(t, tc.pred))
			require.NoError(t, err)
			var got []string
			for _, name := range []string{"alice", "bob", "carol"} {
				if m.Matches(mustDoc(t, docs[name])) {
					got = append(got, name)
				}
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompileRejects(t *testing.T) {
	for _, in := range []string{
		`{"a": {"$near": [1, 2]}}`,
		`{"$or": [{"a": 1}]}`,
		`{"$and": []}`,
		`{"$and": [1]}`,
	} {
		_, err := Compile(mustDoc(t, in))
		assert.ErrorIs(t, err, ErrMalformed, in)
	}
}
