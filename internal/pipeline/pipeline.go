// Package pipeline runs one eccDNA sample from BED file to recorded
// prediction: preflight, work directory, artifacts, feature extraction,
// inference, result file and ledger entry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"espre/internal/cfg"
	"espre/internal/common"
	"espre/internal/extract"
	"espre/internal/features"
	"espre/internal/fetch"
	"espre/internal/metrics"
	"espre/internal/ml"
	"espre/internal/report"
	"espre/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Recorder receives run metrics. *metrics.MetricsWrapper implements it.
type Recorder interface {
	ml.MetricsInterface
	ObserveStage(stage string, d time.Duration)
	SampleScored(flagged bool)
	InferenceFailed(reason string)
	UpdateCoverage(bins, unknown, missing int)
}

// Request names one sample's inputs and where its result goes.
type Request struct {
	Input  string // eccDNA BED
	Genome string // reference FASTA
	Output string // result CSV; empty skips the file

	// Features scores an existing feature table instead of running the
	// external tools. Input and Genome are then ignored.
	Features string
	// SampleID overrides the sample name, which defaults to the base name
	// of Input (or of Features).
	SampleID string
}

func (r Request) sampleID() string {
	switch {
	case r.SampleID != "":
		return r.SampleID
	case r.Features != "":
		return filepath.Base(r.Features)
	default:
		return filepath.Base(r.Input)
	}
}

// Outcome is a successful run's result with its bookkeeping.
type Outcome struct {
	RunID    string
	Result   ml.PredictionResult
	Coverage Coverage
	Model    string // ensemble version
}

// Coverage describes how a feature table met the windows and the schema.
type Coverage struct {
	Bins        int
	UnknownBins int
	features.Coverage
}

type Pipeline struct {
	settings cfg.Settings
	runner   extract.Runner
	fetcher  *fetch.Client
	recorder Recorder
	store    *storage.Store
	now      func() time.Time
}

type Option func(*Pipeline)

// WithRunner replaces the external tool runner.
func WithRunner(r extract.Runner) Option { return func(p *Pipeline) { p.runner = r } }

// WithRecorder enables metrics.
func WithRecorder(r Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

// WithStore enables the result ledger.
func WithStore(s *storage.Store) Option { return func(p *Pipeline) { p.store = s } }

func WithFetcher(f *fetch.Client) Option { return func(p *Pipeline) { p.fetcher = f } }

func New(s cfg.Settings, opts ...Option) *Pipeline {
	p := &Pipeline{
		settings: s,
		runner:   extract.ExecRunner{Timeout: s.ToolTimeout},
		fetcher:  fetch.New(s.DownloadTimeout),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) extractConfig() extract.Config {
	return extract.Config{
		Bedtools:  p.settings.BedtoolsPath,
		Rscript:   p.settings.RscriptPath,
		Script:    p.settings.ScriptPath,
		Windows:   p.settings.WindowsPath,
		MinLength: p.settings.MinLength,
		MaxLength: p.settings.MaxLength,
	}
}

// Classifier builds the configured classifier.
func (p *Pipeline) Classifier() ml.Classifier {
	return ml.Classifier{
		Threshold:     p.settings.ProbThreshold,
		FlagThreshold: p.settings.FlagThreshold,
		PositiveName:  p.settings.PositiveLabel,
		NegativeName:  p.settings.NegativeLabel,
	}
}

// Preflight checks tools and local files before any work starts. Scoring an
// existing feature table needs neither the tools nor the genome.
func (p *Pipeline) Preflight(req Request) error {
	files := map[string]string{}
	if !fetch.IsRemote(p.settings.ModelPath) {
		files["Model file"] = p.settings.ModelPath
	}
	if !fetch.IsRemote(p.settings.SchemaPath) {
		files["Schema file"] = p.settings.SchemaPath
	}
	if req.Features != "" {
		files["Feature table"] = req.Features
		return extract.CheckFiles(files)
	}
	files["Input BED"] = req.Input
	files["Reference genome"] = req.Genome
	return extract.Preflight(p.extractConfig(), files)
}

// Run scores one sample end to end. The result file and the ledger entry
// are written only when scoring succeeds.
func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	out, err := p.run(ctx, req)
	if err != nil {
		p.failed(err)
		return Outcome{}, err
	}
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, req Request) (Outcome, error) {
	if err := p.Preflight(req); err != nil {
		return Outcome{}, err
	}

	runID := uuid.NewString()
	workDir, created, err := p.makeWorkDir(runID)
	if err != nil {
		return Outcome{}, err
	}
	defer p.cleanup(workDir, created)

	var a *Artifacts
	err = p.stage(metrics.StageArtifacts, func() (err error) {
		a, err = LoadArtifacts(ctx, p.artifactSettings(req), p.fetcher, workDir)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	var table *features.Table
	if req.Features != "" {
		err = p.stage(metrics.StageFeatures, func() (err error) {
			table, err = features.ReadTable(req.Features)
			return err
		})
	} else {
		err = p.stage(metrics.StageExtraction, func() (err error) {
			table, err = p.extract(ctx, req, workDir)
			return err
		})
	}
	if err != nil {
		return Outcome{}, err
	}

	out, err := p.Score(req.sampleID(), table, a)
	if err != nil {
		return Outcome{}, err
	}
	out.RunID = runID

	if err := p.stage(metrics.StageReport, func() error { return p.record(req, out) }); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// artifactSettings drops the window set when scoring a feature table and the
// window BED is absent. Windows only feed the advisory unknown-bin check there,
// while extraction cannot run without them.
func (p *Pipeline) artifactSettings(req Request) cfg.Settings {
	s := p.settings
	if req.Features == "" || s.WindowsPath == "" {
		return s
	}
	if _, err := os.Stat(s.WindowsPath); err != nil {
		log.Warn().
			Err(err).
			Str("path", s.WindowsPath).
			Msg("Reference windows unavailable, skipping unknown-bin check")
		s.WindowsPath = ""
	}
	return s
}

func (p *Pipeline) extract(ctx context.Context, req Request, workDir string) (*features.Table, error) {
	ex := extract.New(p.extractConfig(), p.runner)
	files, err := ex.Run(ctx, extract.Inputs{BED: req.Input, Genome: req.Genome, WorkDir: workDir})
	if err != nil {
		return nil, err
	}
	return features.ReadTable(files.Features)
}

// Score runs inference on an already extracted feature table.
func (p *Pipeline) Score(sampleID string, table *features.Table, a *Artifacts) (Outcome, error) {
	var out Outcome
	err := p.stage(metrics.StageInference, func() error {
		naming := features.Naming{RatioPrefix: p.settings.RatioPrefix, GCPrefix: p.settings.GCPrefix}
		builder, err := features.NewBuilder(naming)
		if err != nil {
			return err
		}

		var mi ml.MetricsInterface
		if p.recorder != nil {
			mi = p.recorder
		}
		engine, err := ml.NewEngine(builder, a.Schema, ml.NewWithMetrics(a.Ensemble, mi), p.Classifier())
		if err != nil {
			return err
		}

		out.Coverage = p.windowCoverage(sampleID, table, a)
		out.Result, out.Coverage.Coverage, err = engine.Score(sampleID, table.Rows)
		if p.recorder != nil {
			p.recorder.UpdateCoverage(out.Coverage.Bins, out.Coverage.UnknownBins, out.Coverage.Missing)
		}
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	out.Model = a.Ensemble.Version()
	if p.recorder != nil {
		p.recorder.SampleScored(out.Result.Flagged)
	}
	log.Info().
		Str("sample", sampleID).
		Float64("probability", out.Result.Probability).
		Str("prediction", p.Classifier().DisplayName(out.Result.Label)).
		Bool("flagged", out.Result.Flagged).
		Msg("Sample scored")
	return out, nil
}

// windowCoverage checks bins against the reference windows. Unknown bins are
// reported, not rejected; alignment drops them anyway.
func (p *Pipeline) windowCoverage(sampleID string, table *features.Table, a *Artifacts) Coverage {
	c := Coverage{Bins: table.Len()}
	if a.Windows == nil {
		return c
	}
	unknown := a.Windows.Unknown(table.BinIDs())
	c.UnknownBins = len(unknown)
	if len(unknown) > 0 {
		log.Warn().
			Str("sample", sampleID).
			Int("unknown_bins", len(unknown)).
			Strs("examples", unknown[:min(len(unknown), 5)]).
			Msg("Feature bins not found in reference windows")
	}
	return c
}

func (p *Pipeline) record(req Request, out Outcome) error {
	if req.Output != "" {
		if err := report.WriteFile(req.Output, report.NewRow(out.Result, p.Classifier())); err != nil {
			return err
		}
		log.Info().Str("path", req.Output).Msg("Result saved")
	}

	if p.store == nil {
		return nil
	}
	rec := storage.ResultRecord{
		RunID:        out.RunID,
		SampleID:     out.Result.SampleID,
		Timestamp:    p.now(),
		Probability:  out.Result.Probability,
		Prediction:   p.Classifier().DisplayName(out.Result.Label),
		Positive:     out.Result.Label == ml.Positive,
		Flagged:      out.Result.Flagged,
		ModelVersion: out.Model,
		InputPath:    req.Input,
		Bins:         out.Coverage.Bins,
		UnknownBins:  out.Coverage.UnknownBins,
		MissingCols:  out.Coverage.Missing,
	}
	if err := p.store.StoreResult(rec); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// makeWorkDir uses TmpDir when configured, otherwise a fresh
// ./espre_tmp_<unix>_<run> directory. created reports whether this run made it.
func (p *Pipeline) makeWorkDir(runID string) (dir string, created bool, err error) {
	dir = p.settings.TmpDir
	if dir == "" {
		dir = "./" + common.TmpDirPrefix + strconv.FormatInt(p.now().Unix(), 10) + "_" + runID[:8]
	}
	if _, err := os.Stat(dir); err == nil {
		return dir, false, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create work directory: %w", err)
	}
	return dir, true, nil
}

func (p *Pipeline) cleanup(dir string, created bool) {
	if p.settings.KeepTemp {
		log.Info().Str("path", dir).Msg("Keeping work directory")
		return
	}
	if !created {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("path", dir).Msg("Failed to remove work directory")
	}
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if p.recorder != nil {
		p.recorder.ObserveStage(name, time.Since(start))
	}
	return err
}

func (p *Pipeline) failed(err error) {
	reason := FailureReason(err)
	log.Error().Err(err).Str("reason", reason).Msg("Analysis failed")
	if p.recorder != nil {
		p.recorder.InferenceFailed(reason)
	}
}

// FailureReason maps an error to its metrics reason label.
func FailureReason(err error) string {
	var stepErr *extract.StepError
	var missing *extract.MissingError
	switch {
	case errors.Is(err, features.ErrEmptyFeatures):
		return metrics.ReasonEmptyFeatures
	case errors.Is(err, features.ErrDuplicateBin):
		return metrics.ReasonDuplicateBin
	case errors.Is(err, ml.ErrSchemaMismatch):
		return metrics.ReasonSchemaMismatch
	case errors.Is(err, ml.ErrModelNotLoaded):
		return metrics.ReasonModelNotLoaded
	case errors.Is(err, ml.ErrInvalidProbability):
		return metrics.ReasonInvalidProb
	case errors.Is(err, ml.ErrInputShape):
		return metrics.ReasonInputShape
	case errors.As(err, &stepErr), errors.As(err, &missing),
		errors.Is(err, extract.ErrNoFeatureTable), errors.Is(err, extract.ErrToolTimeout):
		return metrics.ReasonExtraction
	case errors.Is(err, ErrArtifact):
		return metrics.ReasonArtifact
	default:
		return metrics.ReasonInternal
	}
}

// PrintSummary writes the console result block.
func (p *Pipeline) PrintSummary(w io.Writer, res ml.PredictionResult, color bool) {
	report.PrintSummary(w, res, p.Classifier(), color)
}
