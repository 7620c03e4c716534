package domain

import (
	"errors"
	"fmt"
)

// TermID identifies a vocabulary term. Stable for the lifetime of an index.
type TermID uint32

// DocID identifies a document in the collection.
type DocID uint32

// VocabularyEntry is the vocabulary record of a term. IDF is precomputed by
// whoever built the index as log(N/df).
type VocabularyEntry struct {
	TermID TermID  `json:"id" yaml:"id"`
	IDF    float64 `json:"idf" yaml:"idf"`
}

// Posting is the precomputed TF-IDF weight of a term in one document.
type Posting struct {
	DocID  DocID   `json:"doc" yaml:"doc"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// MergePostings appends incoming to existing. A posting for a document
// already in the list replaces its weight, so a document appears at most
// once per term.
func MergePostings(existing, incoming []Posting) []Posting {
	pos := make(map[DocID]int, len(existing)+len(incoming))
	merged := make([]Posting, 0, len(existing)+len(incoming))
	for _, list := range [][]Posting{existing, incoming} {
		for _, p := range list {
			if i, ok := pos[p.DocID]; ok {
				merged[i].Weight = p.Weight
				continue
			}
			pos[p.DocID] = len(merged)
			merged = append(merged, p)
		}
	}
	return merged
}

// DocumentEntry carries a document's label and the Euclidean norm of its
// weight vector.
type DocumentEntry struct {
	Label string  `json:"label" yaml:"label"`
	Norm  float64 `json:"norm" yaml:"norm"`
}

// SparseVector maps term IDs to weights. Iteration order is unspecified.
type SparseVector map[TermID]float64

type ScoredResult struct {
	DocID DocID   `json:"doc_id"`
	Score float64 `json:"score"`
}

// LabeledResult is a scored document with its label resolved, for output.
type LabeledResult struct {
	Rank  int     `json:"rank"`
	DocID DocID   `json:"doc_id"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SearchRequest is one query as issued by a caller.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
	// MinScore overrides the configured threshold when set. A pointer to 0
	// disables the threshold for this query.
	MinScore *float64 `json:"min_score,omitempty"`
	Match    string   `json:"match,omitempty"` // glob over document labels
}

type SearchResponse struct {
	Query   string          `json:"query"`
	Total   int             `json:"total"`
	Results []LabeledResult `json:"results"`
}

type Stats struct {
	Terms     int `json:"terms"`
	Documents int `json:"documents"`
	Postings  int `json:"postings"`
}

var (
	ErrIndexIntegrity = errors.New("index integrity violation")
	ErrInvalidDump    = errors.New("invalid index dump")
	ErrInvalidRequest = errors.New("invalid request")
)

// IntegrityError reports a document reachable through postings whose norm
// or score cannot produce a finite cosine similarity.
type IntegrityError struct {
	DocID  DocID
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: document %d: %s", ErrIndexIntegrity, e.DocID, e.Reason)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIndexIntegrity
}
