// Package service runs the fleet pipeline end to end: it reads both
// workbooks, transforms them, trains the model, and hands the output to the
// export and store sinks. Finished runs stay in an in-memory registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fleetfact/internal/config"
	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/logging"
	"github.com/JonMunkholm/fleetfact/internal/metrics"
	"github.com/JonMunkholm/fleetfact/internal/modeling"
	"github.com/JonMunkholm/fleetfact/internal/store"
	"github.com/JonMunkholm/fleetfact/internal/workbook"
)

// ErrRunNotFound is returned for unknown or evicted run ids.
var ErrRunNotFound = errors.New("run not found")

// Sink persists the output of a finished run.
type Sink interface {
	SaveRun(ctx context.Context, rec store.RunRecord, views []core.View) (int64, error)
	DeleteRun(ctx context.Context, id uuid.UUID) (int64, error)
}

// ExportFunc writes views to dir and returns the written paths.
type ExportFunc func(ctx context.Context, dir string, views []core.View) ([]string, error)

// Options controls what a run does besides transforming.
type Options struct {
	OutputDir   string        // Root of per-run export directories
	Export      bool          // Write .xlsx files
	TrainModel  bool          // Evaluate a classifier on the model dataset
	HistorySize int           // Finished runs kept in memory
	Timeout     time.Duration // Upper bound for one run
}

// OptionsFromConfig maps configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:   cfg.Pipeline.OutputDir,
		Export:      cfg.Pipeline.Export,
		TrainModel:  cfg.Pipeline.TrainModel,
		HistorySize: cfg.Pipeline.HistorySize,
		Timeout:     cfg.Run.Timeout,
	}
}

// Service executes runs and keeps the most recent ones.
type Service struct {
	opts    Options
	limiter *RunLimiter
	sink    Sink // nil when no database is configured
	export  ExportFunc
	trainer modeling.Trainer

	mu   sync.RWMutex
	runs []*Run // oldest first
}

// New creates a Service. sink may be nil.
func New(opts Options, limiter *RunLimiter, sink Sink) *Service {
	if opts.HistorySize <= 0 {
		opts.HistorySize = 20
	}
	return &Service{
		opts:    opts,
		limiter: limiter,
		sink:    sink,
		export:  workbook.Export,
		trainer: modeling.DefaultTrainer,
	}
}

// Limiter returns the run limiter for status reporting and shutdown.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// Upload is one workbook received over HTTP.
type Upload struct {
	Name string
	Data io.Reader
}

// RunFiles runs the pipeline on two workbooks on disk.
func (s *Service) RunFiles(ctx context.Context, operationsPath, maintenancePath string) (*Run, error) {
	return s.execute(ctx, filepath.Base(operationsPath), filepath.Base(maintenancePath),
		func(ctx context.Context) (core.Table, error) { return workbook.ReadFile(ctx, operationsPath) },
		func(ctx context.Context) (core.Table, error) { return workbook.ReadFile(ctx, maintenancePath) },
	)
}

// RunUploads runs the pipeline on two uploaded workbooks.
func (s *Service) RunUploads(ctx context.Context, operations, maintenance Upload) (*Run, error) {
	return s.execute(ctx, operations.Name, maintenance.Name,
		func(ctx context.Context) (core.Table, error) { return workbook.Read(ctx, operations.Data, operations.Name) },
		func(ctx context.Context) (core.Table, error) { return workbook.Read(ctx, maintenance.Data, maintenance.Name) },
	)
}

type loadFunc func(ctx context.Context) (core.Table, error)

func (s *Service) execute(ctx context.Context, opsName, mntName string, loadOps, loadMnt loadFunc) (*Run, error) {
	start := time.Now()
	if err := s.limiter.Acquire(ctx); err != nil {
		metrics.ObserveRun(metrics.StatusRejected, 0)
		return nil, err
	}
	defer s.limiter.Release()
	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	run := &Run{
		ID:              uuid.New(),
		StartedAt:       start.UTC(),
		OperationsFile:  opsName,
		MaintenanceFile: mntName,
	}
	logger := logging.WithFields(ctx, "run_id", run.ID.String())
	logger.Info("run started", "operations", opsName, "maintenance", mntName)

	if err := s.process(ctx, logger, run, loadOps, loadMnt); err != nil {
		metrics.ObserveRun(metrics.StatusFailed, time.Since(start))
		logger.Error("run failed", "error", err, "code", core.MapError(err).Code)
		return nil, err
	}

	metrics.ObserveRun(metrics.StatusSucceeded, time.Since(start))
	metrics.CleanRows.Set(float64(len(run.Result.CleanFacts)))
	s.remember(run)

	logger.Info("run completed",
		"clean_rows", len(run.Result.CleanFacts),
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}

func (s *Service) process(ctx context.Context, logger *slog.Logger, run *Run, loadOps, loadMnt loadFunc) error {
	var ops, mnt core.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ops, err = loadOps(gctx)
		return err
	})
	g.Go(func() (err error) {
		mnt, err = loadMnt(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	metrics.ObserveIngest(core.SourceOperations, len(ops.Rows))
	metrics.ObserveIngest(core.SourceMaintenance, len(mnt.Rows))

	result, err := core.Transform(ops, mnt)
	if err != nil {
		return err
	}
	run.Result = result
	metrics.ObserveDrops(result.Report.Drops)

	logger.Info("sources resolved",
		"operations_rows", result.OperationsRows,
		"maintenance_rows", result.MaintenanceRows,
		"operations_columns", result.OperationsCols,
		"maintenance_columns", result.MaintenanceCols,
	)
	logger.Info("facts cleaned",
		"fused_rows", result.Report.InputRows,
		"clean_rows", result.Report.OutputRows,
		"dropped", result.Report.Dropped(),
		"dimension_rows", result.Report.DimensionRows,
		"detail_rows", result.Report.DetailRows,
	)

	run.Dataset = modeling.BuildDataset(result.CleanFacts)
	if s.opts.TrainModel {
		s.train(logger, run)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	run.FinishedAt = time.Now().UTC()

	views := run.Views()
	if s.opts.Export {
		dir := filepath.Join(s.opts.OutputDir, run.ID.String())
		paths, err := s.export(ctx, dir, views)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		run.Exported = paths
	}

	if s.sink != nil {
		rec := store.RunRecord{
			ID:              run.ID,
			StartedAt:       run.StartedAt,
			FinishedAt:      run.FinishedAt,
			OperationsFile:  run.OperationsFile,
			MaintenanceFile: run.MaintenanceFile,
			OperationsRows:  result.OperationsRows,
			MaintenanceRows: result.MaintenanceRows,
			CleanRows:       len(result.CleanFacts),
			Report:          result.Report,
		}
		if run.Evaluation != nil {
			rec.Evaluation = run.Evaluation
		}
		n, err := s.sink.SaveRun(ctx, rec, views)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
		run.StoredRows = n
	}
	return nil
}

// train evaluates the classifier. Training problems never fail the run.
func (s *Service) train(logger *slog.Logger, run *Run) {
	ev, err := modeling.Evaluate(run.Dataset, s.trainer)
	switch {
	case err == nil:
		run.Evaluation = ev
		logger.Info("model evaluated",
			"train_rows", ev.TrainRows,
			"test_rows", ev.TestRows,
			"accuracy", ev.Accuracy,
		)
	case errors.Is(err, modeling.ErrSingleClass), errors.Is(err, modeling.ErrNoTrainingData):
		run.ModelNote = err.Error()
		logger.Info("model training skipped", "reason", err)
	default:
		run.ModelNote = err.Error()
		logger.Warn("model training failed", "error", err)
	}
}

func (s *Service) remember(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	if over := len(s.runs) - s.opts.HistorySize; over > 0 {
		s.runs = append(s.runs[:0:0], s.runs[over:]...)
	}
}

// Get returns a finished run by id.
func (s *Service) Get(id string) (*Run, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.runs {
		if r.ID == parsed {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

// List returns the summaries of the kept runs, newest first.
func (s *Service) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		out = append(out, s.runs[i].Summary())
	}
	return out
}

// Delete forgets a finished run. Its exported workbooks are removed and, when
// a database is configured, so are its stored rows.
func (s *Service) Delete(ctx context.Context, id string) error {
	run, err := s.Get(id)
	if err != nil {
		return err
	}

	if s.sink != nil {
		if _, err := s.sink.DeleteRun(ctx, run.ID); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	if len(run.Exported) > 0 {
		if err := os.RemoveAll(filepath.Join(s.opts.OutputDir, run.ID.String())); err != nil {
			return fmt.Errorf("remove exports: %w", err)
		}
	}

	s.mu.Lock()
	s.runs = slices.DeleteFunc(s.runs, func(r *Run) bool { return r.ID == run.ID })
	s.mu.Unlock()

	logging.WithFields(ctx, "run_id", run.ID.String()).Info("run deleted")
	return nil
}
