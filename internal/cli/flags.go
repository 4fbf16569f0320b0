package cli

import (
	"espre/internal/cfg"
	"espre/internal/common"

	"github.com/spf13/pflag"
)

// runFlags override configuration for commands that score a sample.
type runFlags struct {
	model         string
	schema        string
	windows       string
	tmpDir        string
	keepTemp      bool
	threshold     float64
	flagThreshold float64
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.model, "model", "", "ensemble model file or URL")
	fs.StringVar(&f.schema, "schema", "", "training feature columns file or URL")
	fs.StringVar(&f.windows, "windows", "", "reference window BED")
	fs.StringVar(&f.tmpDir, "tmp_dir", "", "work directory (default: ./espre_tmp_TIMESTAMP)")
	fs.BoolVar(&f.keepTemp, "keep-temp", false, "keep the work directory after the run")
	fs.Float64Var(&f.threshold, "threshold", common.DefaultProbThreshold, "probability at or above which a sample is positive")
	fs.Float64Var(&f.flagThreshold, "flag-threshold", common.DefaultFlagThreshold, "probability above which a sample is flagged high risk")
}

// apply copies every flag the user set onto s.
func (f *runFlags) apply(fs *pflag.FlagSet, s *cfg.Settings) {
	if fs.Changed("model") {
		s.ModelPath = f.model
	}
	if fs.Changed("schema") {
		s.SchemaPath = f.schema
	}
	if fs.Changed("windows") {
		s.WindowsPath = f.windows
	}
	if fs.Changed("tmp_dir") {
		s.TmpDir = f.tmpDir
	}
	if fs.Changed("keep-temp") {
		s.KeepTemp = f.keepTemp
	}
	if fs.Changed("threshold") {
		s.ProbThreshold = f.threshold
	}
	if fs.Changed("flag-threshold") {
		s.FlagThreshold = f.flagThreshold
	}
}
