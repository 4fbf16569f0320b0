package cli

import (
	"espre/internal/pipeline"

	"github.com/spf13/cobra"
)

type scoreOptions struct {
	features string
	sample   string
	output   string
	run      runFlags
}

// NewScoreCommand creates the score command.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an existing feature table",
		Long: `Score a feature table produced earlier by the extractor (bin_id,
ratio.corrected, GC) without running bedtools or R.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.loadSettings(cmd)
			if err != nil {
				return err
			}
			opts.run.apply(cmd.Flags(), &s)
			return runSample(cmd, rootOpts, s, pipeline.Request{
				Features: opts.features,
				SampleID: opts.sample,
				Output:   opts.output,
			})
		},
	}

	cmd.Flags().StringVarP(&opts.features, "features", "f", "", "feature table (CSV or TSV)")
	cmd.Flags().StringVar(&opts.sample, "sample", "", "sample id (default: feature file name)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output result CSV")
	opts.run.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("features")

	return cmd
}
