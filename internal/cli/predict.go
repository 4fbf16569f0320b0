package cli

import (
	"fmt"

	"espre/internal/cfg"
	"espre/internal/metrics"
	"espre/internal/pipeline"
	"espre/internal/storage"

	"github.com/spf13/cobra"
)

type predictOptions struct {
	input  string
	genome string
	output string
	run    runFlags
}

// NewPredictCommand creates the predict command.
func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict risk for one eccDNA sample",
		Long: `Predict schizophrenia risk from one sample's eccDNA calls.

Runs bedtools and the R feature extractor on the input BED, aligns the
resulting features to the training schema and scores them with the stacked
ensemble. The result is printed and written to the output CSV.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.loadSettings(cmd)
			if err != nil {
				return err
			}
			opts.run.apply(cmd.Flags(), &s)
			return runSample(cmd, rootOpts, s, pipeline.Request{
				Input:  opts.input,
				Genome: opts.genome,
				Output: opts.output,
			})
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input eccDNA BED file (chr, start, end)")
	cmd.Flags().StringVarP(&opts.genome, "genome", "g", "", "hg38 reference genome FASTA")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output result CSV")
	opts.run.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("genome")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// runSample scores one request with metrics and, when DataPath is set, the
// result ledger. Metrics are written whether or not the run succeeds.
func runSample(cmd *cobra.Command, rootOpts *RootOptions, s cfg.Settings, req pipeline.Request) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m := metrics.New()
	opts := []pipeline.Option{pipeline.WithRecorder(metrics.NewWrapper(m))}
	if s.DataPath != "" {
		store, err := storage.New(s.DataPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, pipeline.WithStore(store))
	}

	p := pipeline.New(s, opts...)
	out, err := p.Run(cmd.Context(), req)
	writeMetrics(m, s.MetricsFile)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	p.PrintSummary(w, out.Result, rootOpts.color(w))
	return nil
}
