package cli

import (
	"fmt"
	"os"

	"vsm/config"
	"vsm/internal/adapter/analyzer"
	"vsm/internal/adapter/metrics"
	"vsm/internal/adapter/retriever"
	"vsm/internal/adapter/store"
	"vsm/internal/logging"
	"vsm/internal/usecase"
)

// openIndex opens the index read-only and warns when it was loaded with a
// different analyzer than the one configured now.
func openIndex() (*store.BoltStore, error) {
	dbPath := config.IndexDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no index found. Run 'vsm load' first")
	}

	st, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	migration, err := st.CheckMigration(GetConfig())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check schema: %w", err)
	}
	if migration.NeedsRebuild || migration.NeedsMigration {
		GetLogger().WithField("reason", migration.Reason).
			Warn("index does not match current configuration; reload it with 'vsm load'")
	}
	return st, nil
}

// newRetrieveUseCase builds the query pipeline over st. m may be nil.
func newRetrieveUseCase(st *store.BoltStore, m *metrics.Metrics) (*usecase.RetrieveUseCase, error) {
	cfg := GetConfig()
	log := GetLogger()

	policy, err := retriever.ParsePolicy(cfg.Retrieve.IntegrityPolicy)
	if err != nil {
		return nil, err
	}

	opts := []retriever.Option{
		retriever.WithIntegrityPolicy(policy),
		retriever.WithParallelism(cfg.Retrieve.ParallelTerms),
		retriever.WithLogger(logging.Component(log, "cosine")),
	}
	if m != nil {
		opts = append(opts, retriever.WithObserver(m))
	}

	uc := usecase.NewRetrieveUseCase(
		st,
		retriever.NewCosine(opts...),
		analyzer.NewTokenizer(cfg.Analyzer),
		cfg.Retrieve,
		logging.Component(log, "retrieve"),
	)
	if m != nil {
		uc.SetObserver(m)
	}
	return uc, nil
}
