package port

import "vsm/internal/domain"

// RetrievalModel ranks the documents of an index against a free-text query.
type RetrievalModel interface {
	// RunQuery returns documents sorted by descending score. Ties are broken
	// by ascending DocID.
	RunQuery(queryText string, index Index, tokenizer Tokenizer) ([]domain.ScoredResult, error)
}
