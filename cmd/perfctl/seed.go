package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/talentscore/internal/seed"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		candidates int
		workers    int
		rngSeed    uint64
		target     string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate synthetic candidates, assessments and interviews",
		Long: `seed generates candidates with assessment and interview histories. Records are
written straight into the configured store, or posted to a running service
when --target is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if candidates < 1 {
				return fmt.Errorf("--candidates must be at least 1")
			}

			var genOpts []seed.Option
			if cmd.Flags().Changed("seed") {
				genOpts = append(genOpts, seed.WithSeed(rngSeed))
			}
			records, err := seed.NewGenerator(genOpts...).Generate(ctx, candidates)
			if err != nil {
				return err
			}

			var sink seed.Sink
			if target != "" {
				sink = seed.NewHTTPSink(target, timeout)
			} else {
				cfg, err := opts.loadConfig(ctx)
				if err != nil {
					return err
				}
				st, err := opts.open(ctx, cfg)
				if err != nil {
					return err
				}
				defer func() { _ = st.Close(ctx) }()
				sink = seed.NewStoreSink(st)
			}

			stats, err := seed.Submit(ctx, sink, records, workers)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
	cmd.Flags().IntVarP(&candidates, "candidates", "n", 10, "number of candidates to generate")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "concurrent submitters")
	cmd.Flags().Uint64Var(&rngSeed, "seed", 0, "random seed for reproducible data")
	cmd.Flags().StringVar(&target, "target", "", "base URL of a running service, e.g. http://localhost:9080")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP request timeout when --target is set")
	return cmd
}
