package retriever

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vsm/internal/domain"
	"vsm/internal/port"
)

// IntegrityPolicy decides what happens when a matched document has a norm
// that cannot yield a finite cosine score.
type IntegrityPolicy string

const (
	// PolicyFail aborts the query with an *domain.IntegrityError.
	PolicyFail IntegrityPolicy = "fail"
	// PolicyDrop omits the document and logs a warning.
	PolicyDrop IntegrityPolicy = "drop"
)

// ParsePolicy maps a config value to an IntegrityPolicy. Empty means fail.
func ParsePolicy(s string) (IntegrityPolicy, error) {
	switch IntegrityPolicy(s) {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicyDrop:
		return PolicyDrop, nil
	default:
		return "", fmt.Errorf("unknown integrity policy %q (want %q or %q)", s, PolicyFail, PolicyDrop)
	}
}

// Observer receives ranking events. The metrics adapter implements it.
type Observer interface {
	IntegrityViolation(err *domain.IntegrityError)
}

// Cosine ranks documents by the cosine similarity between a log-TF x IDF
// query vector and the precomputed document weights of the index.
//
// A Cosine holds configuration only and is safe for concurrent use.
type Cosine struct {
	policy      IntegrityPolicy
	parallelism int
	logger      *logrus.Entry
	observer    Observer
}

type Option func(*Cosine)

func WithIntegrityPolicy(p IntegrityPolicy) Option {
	return func(c *Cosine) { c.policy = p }
}

// WithParallelism sets how many posting lists are accumulated concurrently.
// Values below 2 keep accumulation sequential.
func WithParallelism(n int) Option {
	return func(c *Cosine) { c.parallelism = n }
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Cosine) { c.logger = l }
}

func WithObserver(o Observer) Option {
	return func(c *Cosine) { c.observer = o }
}

// NewCosine creates a cosine retrieval model.
func NewCosine(opts ...Option) *Cosine {
	c := &Cosine{
		policy:      PolicyFail,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c.logger = c.logger.WithField("component", "cosine")
	return c
}

var _ port.RetrievalModel = (*Cosine)(nil)

// RunQuery tokenizes the query, builds its weight vector and ranks the
// documents of index against it.
func (c *Cosine) RunQuery(queryText string, index port.Index, tokenizer port.Tokenizer) ([]domain.ScoredResult, error) {
	terms := tokenizer.Tokenize(queryText)

	vector, err := c.ComputeVector(terms, index)
	if err != nil {
		return nil, err
	}

	results, err := c.ComputeScores(vector, index)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"terms":   len(terms),
		"vector":  len(vector),
		"matches": len(results),
	}).Debug("query ranked")

	return results, nil
}

// LogTF returns the sublinear term frequency weight 1 + ln(freq).
func LogTF(freq int) float64 {
	return 1 + math.Log(float64(freq))
}

// ComputeVector weights each distinct in-vocabulary term by
// (1 + ln(freq)) * idf, where freq is its count in terms. Unknown terms are
// dropped.
func (c *Cosine) ComputeVector(terms []string, index port.Index) (domain.SparseVector, error) {
	freqs := make(map[string]int, len(terms))
	for _, term := range terms {
		freqs[term]++
	}

	vector := make(domain.SparseVector, len(freqs))
	for term, freq := range freqs {
		entry, ok, err := index.Term(term)
		if err != nil {
			return nil, fmt.Errorf("failed to look up term %q: %w", term, err)
		}
		if !ok {
			continue
		}
		vector[entry.TermID] = LogTF(freq) * entry.IDF
	}

	return vector, nil
}

// ComputeScores accumulates query-document dot products over the posting
// lists of the query terms and normalizes them into cosine similarities.
// Every document sharing a term with the query is returned, sorted by score
// descending and then by DocID ascending. A query whose weights are all zero
// matches nothing.
func (c *Cosine) ComputeScores(query domain.SparseVector, index port.Index) ([]domain.ScoredResult, error) {
	termIDs := sortedTerms(query)

	var queryNormSq float64
	for _, id := range termIDs {
		wq := query[id]
		queryNormSq += wq * wq
	}
	if queryNormSq == 0 {
		return []domain.ScoredResult{}, nil
	}

	dots, err := c.accumulate(query, termIDs, index)
	if err != nil {
		return nil, err
	}

	queryNorm := math.Sqrt(queryNormSq)

	results := make([]domain.ScoredResult, 0, len(dots))
	for docID, dot := range dots {
		doc, ok, err := index.Document(docID)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %d: %w", docID, err)
		}

		var violation *domain.IntegrityError
		switch {
		case !ok:
			violation = &domain.IntegrityError{DocID: docID, Reason: "missing from document table"}
		case !(doc.Norm > 0) || math.IsInf(doc.Norm, 0):
			violation = &domain.IntegrityError{DocID: docID, Reason: fmt.Sprintf("invalid norm %v", doc.Norm)}
		default:
			score := dot / (queryNorm * doc.Norm)
			if math.IsNaN(score) || math.IsInf(score, 0) {
				violation = &domain.IntegrityError{DocID: docID, Reason: fmt.Sprintf("non-finite score %v", score)}
				break
			}
			results = append(results, domain.ScoredResult{DocID: docID, Score: score})
		}

		if violation != nil {
			if err := c.handleViolation(violation); err != nil {
				return nil, err
			}
		}
	}

	SortResults(results)
	return results, nil
}

// SortResults orders results by score descending, ties by DocID ascending.
func SortResults(results []domain.ScoredResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
}

// accumulate returns the dot product of the query with every document that
// shares a term with it, including terms of zero weight. Terms are visited in
// TermID order so that floating-point sums are reproducible.
func (c *Cosine) accumulate(query domain.SparseVector, termIDs []domain.TermID, index port.Index) (map[domain.DocID]float64, error) {
	lists := make([][]domain.Posting, len(termIDs))
	for i, id := range termIDs {
		postings, err := index.Postings(id)
		if err != nil {
			return nil, fmt.Errorf("failed to read postings for term %d: %w", id, err)
		}
		lists[i] = postings
	}

	if c.parallelism < 2 || len(termIDs) < 2 {
		dots := make(map[domain.DocID]float64)
		for i, id := range termIDs {
			addPostings(dots, query[id], lists[i])
		}
		return dots, nil
	}

	// Postings are read sequentially above: a snapshot may be backed by a
	// transaction that is not safe for concurrent use.
	partials := make([]map[domain.DocID]float64, len(termIDs))
	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for i, id := range termIDs {
		wq, postings := query[id], lists[i]
		g.Go(func() error {
			partial := make(map[domain.DocID]float64, len(postings))
			addPostings(partial, wq, postings)
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dots := make(map[domain.DocID]float64)
	for _, partial := range partials {
		for docID, v := range partial {
			dots[docID] += v
		}
	}
	return dots, nil
}

func addPostings(dots map[domain.DocID]float64, wq float64, postings []domain.Posting) {
	for _, p := range postings {
		dots[p.DocID] += wq * p.Weight
	}
}

func (c *Cosine) handleViolation(violation *domain.IntegrityError) error {
	if c.observer != nil {
		c.observer.IntegrityViolation(violation)
	}
	if c.policy != PolicyDrop {
		return violation
	}
	c.logger.WithFields(logrus.Fields{
		"doc_id": violation.DocID,
		"reason": violation.Reason,
	}).Warn("dropping document from ranking")
	return nil
}

func sortedTerms(query domain.SparseVector) []domain.TermID {
	ids := make([]domain.TermID, 0, len(query))
	for id := range query {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
