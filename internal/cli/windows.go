package cli

import (
	"fmt"
	"io"
	"os"

	"espre/internal/common"
	"espre/internal/genome"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type windowsOptions struct {
	sizes      string
	output     string
	width      int
	allContigs bool
}

// NewWindowsCommand creates the windows command.
func NewWindowsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &windowsOptions{}

	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Generate the reference window BED",
		Long: `Tile a genome into fixed-size windows from a chrom.sizes or FASTA .fai
table. By default only chr1-chr22, chrX and chrY are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := rootOpts.LogLevel
			if level == "" {
				level = common.DefaultLogLevel
			}
			rootOpts.setupLogging(cmd.ErrOrStderr(), level)
			return runWindows(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.sizes, "sizes", "s", "", "chrom.sizes or .fai file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output BED (default: stdout)")
	cmd.Flags().IntVarP(&opts.width, "width", "w", common.DefaultWindowWidth, "window width in bases")
	cmd.Flags().BoolVar(&opts.allContigs, "all-contigs", false, "keep every contig, not just the primary assembly")
	_ = cmd.MarkFlagRequired("sizes")

	return cmd
}

func runWindows(stdout io.Writer, opts *windowsOptions) error {
	sizes, err := genome.ReadChromSizes(opts.sizes)
	if err != nil {
		return err
	}
	keep := genome.PrimaryAssembly
	if opts.allContigs {
		keep = nil
	}
	ws, err := genome.MakeWindows(sizes, opts.width, keep)
	if err != nil {
		return err
	}

	w := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.output, err)
		}
		defer f.Close()
		w = f
	}
	if err := genome.WriteBED(w, ws); err != nil {
		return err
	}
	log.Info().Int("windows", ws.Len()).Int("width", opts.width).Msg("Windows generated")
	return nil
}
