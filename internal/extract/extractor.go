// Package extract derives the per-bin feature table for one eccDNA BED file
// by running bedtools and the R feature extractor.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"espre/internal/common"

	"github.com/rs/zerolog/log"
)

// ErrNoFeatureTable is returned when the extractor exits cleanly but leaves
// no feature table behind.
var ErrNoFeatureTable = errors.New("feature file not generated")

// Step names, as reported in logs and errors.
const (
	StepGC       = "Calculating eccDNA GC content"
	StepMap      = "Mapping to genomic windows"
	StepFeatures = "Extracting biological features (Ratio & GC)"
)

// StepError names the extraction step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("failed at step %q: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// Config locates the tools and reference files.
type Config struct {
	Bedtools  string
	Rscript   string
	Script    string // R feature extractor
	Windows   string // reference window BED
	MinLength int
	MaxLength int
}

// Inputs are the per-run files.
type Inputs struct {
	BED     string // eccDNA calls: chrom, start, end
	Genome  string // indexed reference FASTA
	WorkDir string
}

// Outputs are the intermediate and final files left in the work directory.
type Outputs struct {
	GCBed    string
	Mapped   string
	Features string
}

type Extractor struct {
	cfg    Config
	runner Runner
}

func New(cfg Config, runner Runner) *Extractor {
	return &Extractor{cfg: cfg, runner: runner}
}

// Run executes the three steps in order. The first failing step ends the
// run with a *StepError.
func (e *Extractor) Run(ctx context.Context, in Inputs) (Outputs, error) {
	out := Outputs{
		GCBed:    filepath.Join(in.WorkDir, common.GCBedName),
		Mapped:   filepath.Join(in.WorkDir, common.MappedBedName),
		Features: filepath.Join(in.WorkDir, common.FeatureTableName),
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{StepGC, func(ctx context.Context) error { return e.gcContent(ctx, in, out) }},
		{StepMap, func(ctx context.Context) error { return e.mapWindows(ctx, out) }},
		{StepFeatures, func(ctx context.Context) error { return e.features(ctx, out) }},
	}

	for _, s := range steps {
		log.Info().Str("step", s.name).Msg("Running")
		start := time.Now()
		if err := s.run(ctx); err != nil {
			return Outputs{}, &StepError{Step: s.name, Err: err}
		}
		log.Debug().Str("step", s.name).Dur("duration", time.Since(start)).Msg("Step finished")
	}

	if _, err := os.Stat(out.Features); err != nil {
		return Outputs{}, fmt.Errorf("%w: %s", ErrNoFeatureTable, out.Features)
	}
	return out, nil
}

// gcContent keeps chrom, start, end and the GC fraction (column 6 of
// bedtools nuc output) and drops the header line.
func (e *Extractor) gcContent(ctx context.Context, in Inputs, out Outputs) error {
	return e.runTo(ctx, out.GCBed, 1, false, []int{1, 2, 3, 6}, Command{
		Name: e.cfg.Bedtools,
		Args: []string{"nuc", "-fi", in.Genome, "-bed", in.BED},
	})
}

// mapWindows pairs each window with the fragments overlapping it and keeps
// the window columns plus the fragment's chrom, start, end and GC.
func (e *Extractor) mapWindows(ctx context.Context, out Outputs) error {
	return e.runTo(ctx, out.Mapped, 0, true, []int{1, 2, 3, 4, 5, 6, 7}, Command{
		Name: e.cfg.Bedtools,
		Args: []string{"intersect", "-a", e.cfg.Windows, "-b", out.GCBed, "-wa", "-wb"},
	})
}

func (e *Extractor) features(ctx context.Context, out Outputs) error {
	return e.runner.Run(ctx, Command{
		Name: e.cfg.Rscript,
		Args: []string{
			e.cfg.Script,
			"--input_bed", out.Mapped,
			"--gc_file", out.GCBed,
			"--window", e.cfg.Windows,
			"--output", out.Features,
			"--min_length", strconv.Itoa(e.cfg.MinLength),
			"--max_length", strconv.Itoa(e.cfg.MaxLength),
		},
	})
}

// runTo runs cmd with its stdout projected onto cols and written to path.
func (e *Extractor) runTo(ctx context.Context, path string, skip int, whitespace bool, cols []int, cmd Command) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	var cw *ColumnWriter
	if whitespace {
		cw = NewFieldWriter(f, skip, cols...)
	} else {
		cw = NewColumnWriter(f, skip, cols...)
	}
	cmd.Stdout = cw

	if err := e.runner.Run(ctx, cmd); err != nil {
		return err
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
