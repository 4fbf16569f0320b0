package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"espre/internal/fetch"
	"espre/internal/pipeline"

	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the model, schema and windows",
		Long: `Load the configured artifacts, check that they fit together and print
a summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.loadSettings(cmd)
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), &s)

			dir, err := os.MkdirTemp("", "espre_inspect_")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)

			a, err := pipeline.LoadArtifacts(cmd.Context(), s, fetch.New(s.DownloadTimeout), dir)
			if err != nil {
				return err
			}
			return printArtifacts(cmd.OutOrStdout(), a)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&flags.model, "model", "", "ensemble model file or URL")
	fs.StringVar(&flags.schema, "schema", "", "training feature columns file or URL")
	fs.StringVar(&flags.windows, "windows", "", "reference window BED")

	return cmd
}

func printArtifacts(w io.Writer, a *pipeline.Artifacts) error {
	e := a.Ensemble
	trained := "unknown"
	if !e.TrainedAt().IsZero() {
		trained = e.TrainedAt().UTC().Format(time.RFC3339)
	}
	preprocessor := "none"
	if e.Scaled() {
		preprocessor = "standard scaler"
	}
	windows := "not configured"
	if a.Windows != nil {
		windows = fmt.Sprint(a.Windows.Len())
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Model version:\t%s\n", e.Version())
	fmt.Fprintf(tw, "Trained at:\t%s\n", trained)
	fmt.Fprintf(tw, "Schema width:\t%d\n", a.Schema.Len())
	fmt.Fprintf(tw, "Base models:\t%s\n", strings.Join(e.BaseNames(), ", "))
	fmt.Fprintf(tw, "Meta inputs:\t%s\n", strings.Join(e.MetaInputs(), ", "))
	fmt.Fprintf(tw, "Preprocessor:\t%s\n", preprocessor)
	fmt.Fprintf(tw, "Reference windows:\t%s\n", windows)
	return tw.Flush()
}
