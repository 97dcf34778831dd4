package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/talentscore/internal/adapters/repository"
	"github.com/okian/talentscore/internal/config"
	"github.com/okian/talentscore/pkg/logger"
)

// storeOpener opens the store described by cfg.
type storeOpener func(ctx context.Context, cfg *config.Config) (repository.Store, error)

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	return repository.Open(ctx, cfg.Store,
		repository.WithPostgresDSN(cfg.PostgresDSN),
		repository.WithDebugSQL(cfg.DebugSQL),
		repository.WithMongoURI(cfg.MongoURI),
		repository.WithMongoDatabase(cfg.MongoDatabase),
	)
}

type rootOptions struct {
	verbose bool
	store   string
	open    storeOpener
}

// loadConfig loads the service configuration and applies the global flags.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if o.store != "" {
		cfg.Store = o.store
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if o.verbose {
		_ = logger.SetLevelString("debug")
	} else {
		_ = logger.SetLevelString(cfg.LogLevel)
	}
	return cfg, nil
}

func newRootCmd(open storeOpener) *cobra.Command {
	opts := &rootOptions{open: open}
	root := &cobra.Command{
		Use:   "perfctl",
		Short: "Seed candidate data and compute performance summaries",
		Long: `perfctl works against the store configured for the service (PERF_ variables,
PERF_CONFIG or .env). It can generate synthetic candidates with assessment and
interview histories, and print a candidate's performance summary.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	root.PersistentFlags().StringVar(&opts.store, "store", "", "override the configured store (memory, postgres, mongo)")

	root.AddCommand(newSeedCmd(opts), newComputeCmd(opts))
	return root
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
