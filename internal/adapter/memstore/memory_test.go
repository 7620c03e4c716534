package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsm/internal/domain"
	"vsm/internal/port"
)

func TestMemoryStore_BatchLoad(t *testing.T) {
	s := NewMemoryStore()
	err := s.BatchLoad(port.IndexSnapshot{
		Vocabulary: map[string]domain.VocabularyEntry{"cat": {TermID: 1, IDF: 0.5}},
		Postings:   map[domain.TermID][]domain.Posting{1: {{DocID: 10, Weight: 0.5}}},
		Documents:  map[domain.DocID]domain.DocumentEntry{10: {Label: "a", Norm: 2}},
	})
	require.NoError(t, err)

	err = s.View(func(idx port.Index) error {
		entry, ok, err := idx.Term("cat")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.TermID(1), entry.TermID)

		postings, err := idx.Postings(1)
		require.NoError(t, err)
		assert.Len(t, postings, 1)

		postings, err = idx.Postings(99)
		require.NoError(t, err)
		assert.Empty(t, postings)

		_, ok, err = idx.Document(11)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Terms: 1, Documents: 1, Postings: 1}, stats)

	require.NoError(t, s.Clear())
	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, stats)
}

func TestMemoryStore_PutPostingsCopies(t *testing.T) {
	s := NewMemoryStore()
	in := []domain.Posting{{DocID: 1, Weight: 1}}
	s.PutPostings(7, in)
	in[0].Weight = 9

	got, err := s.Postings(7)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got[0].Weight)
}

func TestMemoryStore_BatchLoadTwice(t *testing.T) {
	snap := port.IndexSnapshot{
		Vocabulary: map[string]domain.VocabularyEntry{"cat": {TermID: 1, IDF: 0.5}},
		Postings:   map[domain.TermID][]domain.Posting{1: {{DocID: 10, Weight: 0.5}, {DocID: 20, Weight: 1}}},
		Documents: map[domain.DocID]domain.DocumentEntry{
			10: {Label: "a", Norm: 2},
			20: {Label: "b", Norm: 1},
		},
	}
	s := NewMemoryStore()
	require.NoError(t, s.BatchLoad(snap))
	require.NoError(t, s.BatchLoad(snap))

	postings, err := s.Postings(1)
	require.NoError(t, err)
	assert.Equal(t, []domain.Posting{{DocID: 10, Weight: 0.5}, {DocID: 20, Weight: 1}}, postings)

	// A reloaded document takes the new weight.
	require.NoError(t, s.BatchLoad(port.IndexSnapshot{
		Postings: map[domain.TermID][]domain.Posting{1: {{DocID: 20, Weight: 3}}},
	}))
	postings, err = s.Postings(1)
	require.NoError(t, err)
	assert.Equal(t, []domain.Posting{{DocID: 10, Weight: 0.5}, {DocID: 20, Weight: 3}}, postings)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Terms: 1, Documents: 2, Postings: 2}, stats)
}
