package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topicsYAML = `
queries:
  - id: pets
    text: cat dog
    relevant: [notes/b.md]
  - text: dog
    grades:
      docs/a.txt: 2
      notes/b.md: 0
`

func TestLoadTopics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(topicsYAML), 0644))

	topics, err := LoadTopics(path)
	require.NoError(t, err)
	require.Len(t, topics, 2)

	assert.Equal(t, "pets", topics[0].ID)
	assert.Equal(t, "q2", topics[1].ID)
	assert.Equal(t, []string{"docs/a.txt"}, topics[1].RelevantLabels())
	assert.Equal(t, map[string]float64{"docs/a.txt": 2, "notes/b.md": 0}, topics[1].Gains())
}

func TestTopic_GradeOverridesRelevant(t *testing.T) {
	topic := Topic{
		Relevant: []string{"a", "b"},
		Grades:   map[string]float64{"b": 0, "d": 1, "c": 3},
	}

	assert.Equal(t, []string{"a", "c", "d"}, topic.RelevantLabels())
	assert.Equal(t, map[string]float64{"a": 1, "b": 0, "c": 3, "d": 1}, topic.Gains())

	// b is neither relevant for precision nor a gain for NDCG.
	report, err := Evaluate([]Topic{topic}, [][]string{{"b"}}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Queries[0].Precision)
	assert.Equal(t, 0.0, report.Queries[0].NDCG)
}

func TestLoadTopics_DuplicateID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queries:\n  - {id: a, text: x}\n  - {id: a, text: y}\n"), 0644))

	_, err := LoadTopics(path)
	assert.ErrorContains(t, err, "duplicate query id")
}

func TestEvaluate(t *testing.T) {
	topics := []Topic{
		{ID: "one", Relevant: []string{"a"}},
		{ID: "two", Relevant: []string{"b", "c"}},
	}
	rankings := [][]string{
		{"a", "x", "y"},
		{"x", "b", "c"},
	}

	report, err := Evaluate(topics, rankings, 2)
	require.NoError(t, err)
	require.Len(t, report.Queries, 2)

	one := report.Queries[0]
	assert.Equal(t, 2, one.Retrieved)
	assert.InDelta(t, 0.5, one.Precision, 1e-9)
	assert.InDelta(t, 1.0, one.Recall, 1e-9)
	assert.InDelta(t, 1.0, one.RR, 1e-9)

	two := report.Queries[1]
	assert.InDelta(t, 0.5, two.Recall, 1e-9)
	assert.InDelta(t, 0.5, two.RR, 1e-9)

	assert.Equal(t, "mean", report.Mean.ID)
	assert.InDelta(t, 0.75, report.Mean.Recall, 1e-9)
	assert.InDelta(t, 0.75, report.Mean.RR, 1e-9)

	_, err = Evaluate(topics, rankings[:1], 2)
	assert.Error(t, err)
}
