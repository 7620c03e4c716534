package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vsm/internal/adapter/cache"
	"vsm/internal/adapter/metrics"
	"vsm/internal/api"
	"vsm/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search HTTP API",
	Long: `Serve GET|POST /api/v1/search, GET /api/v1/stats, /healthz and the
Prometheus /metrics endpoint. The index is opened read-only, so queries can
be served while no load is running.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Serve.Addr = serveAddr
	}

	st, err := openIndex()
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	retrieveUC, err := newRetrieveUseCase(st, m)
	if err != nil {
		return err
	}

	var searcher api.Searcher = retrieveUC
	if cfg.Retrieve.CacheSize > 0 {
		searcher = cache.NewCachedRetriever(retrieveUC, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL), m)
	}

	server := api.NewServer(searcher, st, m.Handler(), logging.Component(GetLogger(), "api"))
	server.SetRateLimit(cfg.Serve.RateLimit, cfg.Serve.RateBurst)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx, cfg.Serve)
}
