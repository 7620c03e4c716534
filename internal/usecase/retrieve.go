package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vsm/config"
	"vsm/internal/domain"
	"vsm/internal/port"
)

// QueryObserver is told about every evaluated query.
type QueryObserver interface {
	ObserveQuery(elapsed time.Duration, results int, err error)
}

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	store     port.IndexStore
	model     port.RetrievalModel
	tokenizer port.Tokenizer

	defaultTopK       int
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
	batchWorkers      int

	observer QueryObserver
	logger   *logrus.Entry
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(
	store port.IndexStore,
	model port.RetrievalModel,
	tokenizer port.Tokenizer,
	cfg config.RetrieveConfig,
	logger *logrus.Entry,
) *RetrieveUseCase {
	if logger == nil {
		logger = logrus.WithField("component", "retrieve")
	}
	workers := cfg.BatchWorkers
	if workers < 1 {
		workers = 1
	}
	return &RetrieveUseCase{
		store:             store,
		model:             model,
		tokenizer:         tokenizer,
		defaultTopK:       cfg.TopK,
		minScoreThreshold: cfg.MinScore,
		batchWorkers:      workers,
		logger:            logger,
	}
}

// SetObserver installs a query observer, typically the metrics adapter.
func (u *RetrieveUseCase) SetObserver(o QueryObserver) {
	u.observer = o
}

// Retrieve ranks the index against req.Query and returns the labeled top
// results. TopK <= 0 uses the configured default; a default of 0 returns
// every match.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := time.Now()
	resp, err := u.retrieve(ctx, req)

	if u.observer != nil {
		n := 0
		if resp != nil {
			n = len(resp.Results)
		}
		u.observer.ObserveQuery(time.Since(start), n, err)
	}
	if err != nil {
		return nil, err
	}

	u.logger.WithFields(logrus.Fields{
		"query":   req.Query,
		"total":   resp.Total,
		"results": len(resp.Results),
		"elapsed": time.Since(start),
	}).Debug("query evaluated")
	return resp, nil
}

func (u *RetrieveUseCase) retrieve(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Match != "" && !doublestar.ValidatePattern(req.Match) {
		return nil, fmt.Errorf("%w: bad match pattern %q", domain.ErrInvalidRequest, req.Match)
	}
	if req.MinScore != nil && *req.MinScore < 0 {
		return nil, fmt.Errorf("%w: min_score must not be negative", domain.ErrInvalidRequest)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = u.defaultTopK
	}
	minScore := u.minScoreThreshold
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	resp := &domain.SearchResponse{Query: req.Query, Results: []domain.LabeledResult{}}

	err := u.store.View(func(index port.Index) error {
		scored, err := u.model.RunQuery(req.Query, index, u.tokenizer)
		if err != nil {
			return err
		}
		if minScore > 0 {
			scored = filterByThreshold(scored, minScore)
		}

		for _, r := range scored {
			doc, ok, err := index.Document(r.DocID)
			if err != nil {
				return fmt.Errorf("resolve document %d: %w", r.DocID, err)
			}
			if !ok {
				return &domain.IntegrityError{DocID: r.DocID, Reason: "missing from document table"}
			}
			if req.Match != "" {
				matched, _ := doublestar.Match(req.Match, doc.Label)
				if !matched {
					continue
				}
			}

			resp.Total++
			if topK > 0 && len(resp.Results) >= topK {
				continue
			}
			resp.Results = append(resp.Results, domain.LabeledResult{
				Rank:  len(resp.Results) + 1,
				DocID: r.DocID,
				Label: doc.Label,
				Score: r.Score,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// filterByThreshold keeps the prefix of a ranked list scoring at least min.
func filterByThreshold(results []domain.ScoredResult, min float64) []domain.ScoredResult {
	for i, r := range results {
		if r.Score < min {
			return results[:i]
		}
	}
	return results
}

// RetrieveBatch evaluates independent queries concurrently. Responses are
// returned in request order; the first error cancels the rest.
func (u *RetrieveUseCase) RetrieveBatch(ctx context.Context, reqs []domain.SearchRequest) ([]*domain.SearchResponse, error) {
	responses := make([]*domain.SearchResponse, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(u.batchWorkers)

	for i, req := range reqs {
		g.Go(func() error {
			resp, err := u.Retrieve(ctx, req)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			responses[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}
