package dump

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsm/internal/domain"
	"vsm/internal/port"
)

const yamlDump = `
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
  10: {label: a.txt, norm: 2.0}
  20: {label: b.txt, norm: 1.0}
`

const jsonDump = `{
  "vocabulary": {"cat": {"id": 1, "idf": 0.5}},
  "postings": {"1": [{"doc": 20, "weight": 1.0}]},
  "documents": {"20": {"label": "b.txt", "norm": 1.0}}
}`

func TestDecode_YAML(t *testing.T) {
	snap, err := Decode(strings.NewReader(yamlDump))
	require.NoError(t, err)

	assert.Equal(t, domain.VocabularyEntry{TermID: 2, IDF: 1.0}, snap.Vocabulary["dog"])
	assert.Len(t, snap.Postings[1], 2)
	assert.Equal(t, domain.DocumentEntry{Label: "a.txt", Norm: 2.0}, snap.Documents[10])
	assert.NoError(t, Validate(snap))
}

func TestDecode_JSON(t *testing.T) {
	snap, err := Decode(strings.NewReader(jsonDump))
	require.NoError(t, err)

	assert.Equal(t, domain.VocabularyEntry{TermID: 1, IDF: 0.5}, snap.Vocabulary["cat"])
	assert.Equal(t, []domain.Posting{{DocID: 20, Weight: 1.0}}, snap.Postings[1])
	assert.Equal(t, "b.txt", snap.Documents[20].Label)
}

func TestDecode_Empty(t *testing.T) {
	snap, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, snap.Vocabulary)
}

func TestDecode_BadKey(t *testing.T) {
	_, err := Decode(strings.NewReader("postings:\n  cat: []\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidDump))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDump), 0644))

	snap, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, snap.Vocabulary, 2)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(snap *port.IndexSnapshot)
		want   string
	}{
		{"duplicate term id", func(s *port.IndexSnapshot) {
			s.Vocabulary["owl"] = domain.VocabularyEntry{TermID: 1, IDF: 1}
		}, "term id 1 used by"},
		{"negative idf", func(s *port.IndexSnapshot) {
			s.Vocabulary["cat"] = domain.VocabularyEntry{TermID: 1, IDF: -0.1}
		}, "invalid idf"},
		{"postings without term", func(s *port.IndexSnapshot) {
			s.Postings[7] = []domain.Posting{{DocID: 10, Weight: 1}}
		}, "has no vocabulary entry"},
		{"unknown document", func(s *port.IndexSnapshot) {
			s.Postings[2] = append(s.Postings[2], domain.Posting{DocID: 30, Weight: 1})
		}, "document 30 missing"},
		{"zero norm", func(s *port.IndexSnapshot) {
			s.Documents[20] = domain.DocumentEntry{Label: "b.txt", Norm: 0}
		}, "document 20: invalid norm"},
		{"nan weight", func(s *port.IndexSnapshot) {
			s.Postings[2] = []domain.Posting{{DocID: 10, Weight: math.NaN()}}
		}, "invalid weight"},
		{"duplicate posting", func(s *port.IndexSnapshot) {
			s.Postings[2] = []domain.Posting{{DocID: 10, Weight: 1}, {DocID: 10, Weight: 2}}
		}, "listed twice"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap, err := Decode(strings.NewReader(yamlDump))
			require.NoError(t, err)
			tc.mutate(&snap)

			err = Validate(snap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidDump))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_UnreferencedDocumentMayHaveZeroNorm(t *testing.T) {
	snap, err := Decode(strings.NewReader(yamlDump))
	require.NoError(t, err)
	snap.Documents[99] = domain.DocumentEntry{Label: "empty.txt", Norm: 0}

	assert.NoError(t, Validate(snap))
}

func TestMerge(t *testing.T) {
	dst, err := Decode(strings.NewReader(yamlDump))
	require.NoError(t, err)
	src, err := Decode(strings.NewReader(jsonDump))
	require.NoError(t, err)

	require.NoError(t, Merge(dst, src))
	assert.Len(t, dst.Postings[1], 2)
	assert.NoError(t, Validate(dst))

	reweighted := NewSnapshot()
	reweighted.Postings[1] = []domain.Posting{{DocID: 10, Weight: 9}}
	assert.Error(t, Merge(dst, reweighted))

	conflict := NewSnapshot()
	conflict.Vocabulary["cat"] = domain.VocabularyEntry{TermID: 5, IDF: 0.5}
	assert.Error(t, Merge(dst, conflict))
}
