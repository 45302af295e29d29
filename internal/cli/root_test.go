package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, argv ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(argv, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func sqliteArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--sqlite-path", filepath.Join(t.TempDir(), "catalog.db"), "--log-level", "error"}
}

func TestRun_Help(t *testing.T) {
	r := run(t, "")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "USAGE")

	r = run(t, "", "bogus")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, "unknown command: bogus")
}

func TestRun_UnknownBackend(t *testing.T) {
	r := run(t, "", "--backend", "mongo", "init")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, "unknown backend")
}

func TestRun_IndexAndPlan(t *testing.T) {
	g := sqliteArgs(t)
	with := func(args ...string) []string { return append(append([]string{}, g...), args...) }

	r := run(t, "", with("init")...)
	require.Equal(t, 0, r.code, r.stderr)

	r = run(t, "", with("index", "create", "-c", "users", "-k", `{"a":1}`)...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "users.a_1")

	r = run(t, "", with("index", "create", "-c", "users", "-k", `{"b":1,"a":-1}`, "--name", "b_then_a")...)
	require.Equal(t, 0, r.code, r.stderr)

	r = run(t, "", with("index", "create", "-c", "users", "-k", `{"a":1}`)...)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "already exists")

	r = run(t, "", with("index", "create", "-c", "users")...)
	assert.Equal(t, 2, r.code)

	r = run(t, "", with("index", "list", "--format", "json")...)
	require.Equal(t, 0, r.code, r.stderr)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "a_1", listed[0]["name"])
	assert.Equal(t, "b_then_a", listed[1]["name"])

	r = run(t, "", with("collections")...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "users\n", r.stdout)

	r = run(t, "", with("plan", "-c", "users", "-q", `{"a":5}`, "--explain", "--format", "json")...)
	require.Equal(t, 0, r.code, r.stderr)
	var res struct {
		Candidates []struct {
			Index    string `json:"index"`
			FullScan bool   `json:"full_scan"`
			Optimal  bool   `json:"optimal"`
		} `json:"candidates"`
		ShortCircuited bool     `json:"short_circuited"`
		Explain        []string `json:"explain"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &res))
	require.Len(t, res.Candidates, 2)
	assert.True(t, res.Candidates[0].FullScan)
	assert.Equal(t, "a_1", res.Candidates[1].Index)
	assert.True(t, res.Candidates[1].Optimal)
	assert.True(t, res.ShortCircuited)
	assert.NotEmpty(t, res.Explain)

	r = run(t, "", with("plan", "-c", "users", "-q", `{"b":{"$gt":3}}`, "-s", `{"a":1}`)...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "full scan")
	assert.Contains(t, r.stdout, "catalog fingerprint")

	r = run(t, "", with("plan", "-c", "users", "-q", `{"a":{"$gt":5,"$lt":1}}`)...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "unsatisfiable")

	r = run(t, "", with("plan", "-c", "users", "-q", `{"a":{"$gt":5,"$lt":1}}`, "--strict")...)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "unsatisfiable")

	r = run(t, "", with("plan", "-c", "users", "-q", `{"a":`)...)
	assert.Equal(t, 1, r.code)

	r = run(t, "", with("index", "drop", "-c", "users", "-n", "a_1")...)
	require.Equal(t, 0, r.code, r.stderr)
	r = run(t, "", with("index", "drop", "-c", "users", "-n", "a_1")...)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "not found")
}

func TestRun_Match(t *testing.T) {
	input := strings.Join([]string{
		`{"name":"ann","age":31}`,
		``,
		`{"name":"bob","age":17}`,
		`{"name":"cy","age":45,"tags":["x","y"]}`,
	}, "\n")

	r := run(t, input, "match", "-q", `{"age":{"$gte":18}}`)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, `{"name":"ann","age":31}`+"\n"+`{"name":"cy","age":45,"tags":["x","y"]}`+"\n", r.stdout)

	r = run(t, input, "match", "-q", `{"tags":"y"}`, "--count")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "1\n", r.stdout)

	r = run(t, "not json\n", "match")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "line 1")

	r = run(t, "", "match", "-q", `{"$where":"1"}`)
	assert.Equal(t, 1, r.code)
}

func TestRun_MatchReadsSettings(t *testing.T) {
	r := run(t, "{}\n", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "match")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, "read config")

	t.Setenv("DOCPLAN_REDIS_DB", "many")
	r = run(t, "{}\n", "match")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, "redis-db")

	// match needs no backend settings to be valid.
	t.Setenv("DOCPLAN_REDIS_DB", "0")
	r = run(t, "{}\n", "--backend", "postgres", "match", "--count")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "1\n", r.stdout)
}
