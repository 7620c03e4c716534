package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"vsm/config"
	"vsm/internal/adapter/dump"
	"vsm/internal/adapter/store"
	"vsm/internal/domain"
	"vsm/internal/port"
)

// LoadTarget is a writable index that tracks its schema version and analyzer
// fingerprint. *store.BoltStore implements it.
type LoadTarget interface {
	port.IndexWriter
	Stats() (domain.Stats, error)
	CheckMigration(cfg *config.Config) (*store.MigrationResult, error)
	Migrate(cfg *config.Config) error
}

var _ LoadTarget = (*store.BoltStore)(nil)

// LoadUseCase imports index dumps into a store.
type LoadUseCase struct {
	store  LoadTarget
	cfg    *config.Config
	logger *logrus.Entry
}

// NewLoadUseCase creates a new load use case.
func NewLoadUseCase(st LoadTarget, cfg *config.Config, logger *logrus.Entry) *LoadUseCase {
	if logger == nil {
		logger = logrus.WithField("component", "load")
	}
	return &LoadUseCase{store: st, cfg: cfg, logger: logger}
}

// LoadOptions controls how dumps are written.
type LoadOptions struct {
	// Append merges into the existing index instead of replacing it. Each
	// batch of dumps must still be self-contained.
	Append bool
}

// LoadResult contains the results of a load operation.
type LoadResult struct {
	Files   []string
	Rebuilt bool
	Stats   domain.Stats
}

// ProgressFunc is called after each dump file is decoded.
type ProgressFunc func(done, total int, path string)

// ExpandPaths resolves doublestar patterns into a sorted, de-duplicated list
// of files. A pattern without glob metacharacters must name an existing file.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("no dump files match %q", pattern)
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Load decodes, merges and validates every dump matched by patterns, then
// writes them to the store in one transaction.
func (u *LoadUseCase) Load(patterns []string, opts LoadOptions, progress ProgressFunc) (*LoadResult, error) {
	paths, err := ExpandPaths(patterns)
	if err != nil {
		return nil, err
	}

	snap := dump.NewSnapshot()
	for i, path := range paths {
		part, err := dump.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := dump.Merge(snap, part); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if progress != nil {
			progress(i+1, len(paths), path)
		}
	}

	if err := dump.Validate(snap); err != nil {
		return nil, err
	}

	result := &LoadResult{Files: paths}

	migration, err := u.store.CheckMigration(u.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to check migration: %w", err)
	}
	if migration.NeedsRebuild && opts.Append {
		return nil, fmt.Errorf("cannot append: %s", migration.Reason)
	}

	if !opts.Append || migration.NeedsRebuild {
		if err := u.store.Clear(); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
		result.Rebuilt = true
	}

	if err := u.store.BatchLoad(snap); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}
	if err := u.store.Migrate(u.cfg); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	result.Stats, err = u.store.Stats()
	if err != nil {
		return nil, err
	}

	u.logger.WithFields(logrus.Fields{
		"files":     len(paths),
		"terms":     result.Stats.Terms,
		"documents": result.Stats.Documents,
		"postings":  result.Stats.Postings,
	}).Info("index loaded")
	return result, nil
}
