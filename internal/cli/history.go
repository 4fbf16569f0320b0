package cli

import (
	"errors"
	"time"

	"espre/internal/report"
	"espre/internal/storage"

	"github.com/spf13/cobra"
)

// errNoLedger is returned when history is asked for without a DataPath.
var errNoLedger = errors.New("no result ledger configured (set DATA_PATH or paths.data)")

type historyOptions struct {
	sample string
	since  time.Duration
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored prediction results",
		Long: `List successful predictions from the result ledger as CSV, oldest
first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.loadSettings(cmd)
			if err != nil {
				return err
			}
			if s.DataPath == "" {
				return errNoLedger
			}
			store, err := storage.New(s.DataPath)
			if err != nil {
				return err
			}
			defer store.Close()

			end := time.Now()
			var start time.Time
			if opts.since > 0 {
				start = end.Add(-opts.since)
			}

			var recs []storage.ResultRecord
			if opts.sample != "" {
				recs, err = store.GetResults(opts.sample, start, end)
			} else {
				recs, err = store.GetAllResults(start, end)
			}
			if err != nil {
				return err
			}
			return report.WriteHistory(cmd.OutOrStdout(), recs)
		},
	}

	cmd.Flags().StringVar(&opts.sample, "sample", "", "only this sample id")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "only results newer than this, e.g. 720h (default: all)")

	return cmd
}
