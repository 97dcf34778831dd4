package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/okian/talentscore/internal/domain/performance"
	"github.com/okian/talentscore/internal/domain/scoring"
)

func newComputeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compute <candidateId>",
		Short: "Print a candidate's performance summary as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := opts.loadConfig(ctx)
			if err != nil {
				return err
			}
			st, err := opts.open(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close(ctx) }()

			agg := performance.NewAggregator(st, st,
				performance.WithWeights(scoring.NewWeights(cfg.CategoryWeights)))
			ctx, cancel := withTimeout(ctx, cfg.ReadTimeout())
			defer cancel()
			summary, err := agg.ComputePerformance(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}
