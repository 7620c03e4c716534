package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsm/internal/domain"
)

const cliDump = `
vocabulary:
  cat: {id: 1, idf: 0.5}
  dog: {id: 2, idf: 1.0}
postings:
  1:
    - {doc: 10, weight: 0.5}
    - {doc: 20, weight: 1.0}
  2:
    - {doc: 10, weight: 2.0}
documents:
  10: {label: docs/a.txt, norm: 2.0}
  20: {label: notes/b.md, norm: 1.0}
`

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestLoadQueryStats(t *testing.T) {
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "index.yaml")
	require.NoError(t, os.WriteFile(dumpPath, []byte(cliDump), 0644))

	out := run(t, "--dir", dir, "--log-level", "error", "load", dumpPath)
	assert.Contains(t, out, "Terms:      2")
	assert.FileExists(t, filepath.Join(dir, ".vsm", "index.db"))

	out = run(t, "--dir", dir, "query", "-q", "cat", "--json")
	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "notes/b.md", resp.Results[0].Label)
	assert.Equal(t, "docs/a.txt", resp.Results[1].Label)

	out = run(t, "--dir", dir, "stats", "--json")
	assert.Contains(t, out, `"postings": 3`)
}

func TestQueryWithoutIndex(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--dir", t.TempDir(), "query", "-q", "cat"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no index found")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(500*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "1m30s", formatDuration(90*time.Second))
	assert.Equal(t, "2h5m", formatDuration(2*time.Hour+5*time.Minute))
}
