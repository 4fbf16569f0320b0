// Package cli implements the espre command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"espre/internal/cfg"
	"espre/internal/metrics"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	LogLevel   string
	NoColor    bool
}

// NewRootCommand creates the root command for the espre CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "espre",
		Short: "eccDNA-based schizophrenia risk prediction",
		Long: `espre derives per-window ratio and GC features from an eccDNA BED file
and scores them with a frozen stacked ensemble model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file (overrides CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewPredictCommand(opts))
	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewWindowsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// loadSettings reads the configuration and sets up logging from it. The
// --log-level flag wins over the configured level.
func (o *RootOptions) loadSettings(cmd *cobra.Command) (cfg.Settings, error) {
	var (
		s   cfg.Settings
		err error
	)
	if o.ConfigFile != "" {
		s, err = cfg.LoadFile(o.ConfigFile)
	} else {
		s, err = cfg.Load()
	}
	if err != nil {
		return cfg.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
	o.setupLogging(cmd.ErrOrStderr(), s.LogLevel)
	return s, nil
}

func (o *RootOptions) setupLogging(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: o.NoColor || !isTerminal(w)})
}

// color reports whether output to w may carry ANSI colors.
func (o *RootOptions) color(w io.Writer) bool {
	return !o.NoColor && isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func writeMetrics(m *metrics.Metrics, path string) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		log.Warn().Err(err).Msg("Failed to write metrics")
		return
	}
	log.Debug().Str("path", path).Msg("Metrics written")
}
