package planner

import (
	"bytes"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/docplan/docplan/query"
)

func planNames(ps *PlanSet) []string {
	out := make([]string, 0, len(ps.Plans()))
	for _, p := range ps.Plans() {
		if p.FullScan() {
			out = append(out, "<full>")
			continue
		}
		out = append(out, p.Index().Name)
	}
	return out
}

func newPlanSet(t *testing.T, pred, sort string, indexes ...string) *PlanSet {
	t.Helper()
	descs := make([]IndexDescriptor, 0, len(indexes))
	for _, s := range indexes {
		descs = append(descs, index(t, s))
	}
	ps, err := NewPlanSet(mustDoc(t, pred), mustKeyPattern(t, sort), descs)
	require.NoError(t, err)
	return ps
}

func TestPlanSetUnconstrained(t *testing.T) {
	ps := newPlanSet(t, `{}`, `{}`, `{"a": 1}`, `{"b": 1}`)
	assert.Equal(t, []string{"<full>"}, planNames(ps))
	assert.Equal(t, 0, ps.Evaluated())

	full := ps.Plans()[0]
	assert.False(t, full.RequiresExtraSort())
	assert.True(t, full.Optimal())
}

func TestPlanSetStopsAtFirstOptimal(t *testing.T) {
	ps := newPlanSet(t, `{"a": 5}`, `{}`, `{"a": 1}`, `{"b": 1}`)
	assert.Equal(t, []string{"<full>", "a_1"}, planNames(ps))
	assert.True(t, ps.Plans()[1].Optimal())
	assert.Equal(t, 1, ps.Evaluated())
	assert.True(t, ps.ShortCircuited())
}

func TestPlanSetUnrelatedIndexIsOptimalWithOneBound(t *testing.T) {
	ps := newPlanSet(t, `{"a": 5}`, `{}`, `{"b": 1}`, `{"a": 1}`)
	assert.Equal(t, []string{"<full>", "b_1"}, planNames(ps))
	assert.True(t, ps.Plans()[1].Optimal())
	assert.False(t, ps.Plans()[1].KeyMatch())
	assert.Equal(t, 1, ps.Evaluated())
}

func TestPlanSetDiscardsEvaluatedOnShortCircuit(t *testing.T) {
	ps := newPlanSet(t, `{"a": 5, "b": 6, "c": 7}`, `{}`,
		`{"z": 1}`, `{"a": 1, "b": 1}`, `{"a": 1, "b": 1, "c": 1}`)
	assert.Equal(t, []string{"<full>", "a_1_b_1"}, planNames(ps))
	assert.Equal(t, 2, ps.Evaluated())
}

func TestPlanSetKeepsAllWithoutOptimal(t *testing.T) {
	ps := newPlanSet(t, `{"a": {"$gt": 1}, "b": {"$lt": 2}, "c": {"$gt": 3}}`, `{}`,
		`{"c": 1}`, `{"a": 1, "b": 1}`, `{"z": 1}`)
	assert.Equal(t, []string{"<full>", "c_1", "a_1_b_1", "z_1"}, planNames(ps))
	assert.Equal(t, 3, ps.Evaluated())
	assert.False(t, ps.ShortCircuited())
	for _, p := range ps.Plans() {
		assert.False(t, p.Optimal())
	}
}

func TestPlanSetSortOnly(t *testing.T) {
	ps := newPlanSet(t, `{}`, `{"b": -1}`, `{"a": 1}`, `{"b": 1}`)
	assert.Equal(t, []string{"<full>", "b_1"}, planNames(ps))
	assert.True(t, ps.Plans()[0].RequiresExtraSort())
	assert.False(t, ps.Plans()[0].Optimal())
	assert.Equal(t, query.Descending, ps.Plans()[1].ScanDirection())
}

func TestPlanSetEmptyCatalog(t *testing.T) {
	ps := newPlanSet(t, `{"a": 5}`, `{}`)
	assert.Equal(t, []string{"<full>"}, planNames(ps))
}

func TestPlanSetUnsatisfiable(t *testing.T) {
	ps := newPlanSet(t, `{"a": {"$gt": 10, "$lt": 5}}`, `{}`, `{"a": 1}`)
	assert.True(t, ps.Unsatisfiable())
	assert.ErrorIs(t, ps.UnsatisfiableReason(), ErrContradictoryBounds)
	assert.Empty(t, ps.Plans())
	assert.Nil(t, ps.Bounds())
	require.Len(t, ps.Explain(), 1)
	assert.Contains(t, ps.Explain()[0], "UNSATISFIABLE")
}

func TestPlanSetMalformedPredicate(t *testing.T) {
	_, err := NewPlanSet(mustDoc(t, `{"a": {"$in": 1}}`), nil, nil)
	assert.ErrorIs(t, err, query.ErrMalformed)
}

func TestPlanSetExplainAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogfmtLogger(&buf)
	ps, err := NewPlanSet(mustDoc(t, `{"a": "x"}`), nil, []IndexDescriptor{index(t, `{"a": 1}`)}, WithLogger(logger))
	require.NoError(t, err)

	steps := ps.Explain()
	require.Len(t, steps, 4)
	assert.Equal(t, `BOUND a ["x", "x"] eq`, steps[0])
	assert.Contains(t, steps[1], "FULLSCAN")
	assert.Contains(t, steps[2], "INDEX a_1")
	assert.Contains(t, steps[2], "exact_key_match")
	assert.Contains(t, steps[3], "STOP optimal plan a_1")

	assert.Contains(t, buf.String(), `msg="optimal plan found"`)
}
