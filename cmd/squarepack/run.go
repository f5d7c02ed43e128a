package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/piwi3910/SquarePack/internal/engine"
	"github.com/piwi3910/SquarePack/internal/export"
	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/importer"
	"github.com/piwi3910/SquarePack/internal/metrics"
	"github.com/piwi3910/SquarePack/internal/model"
	"github.com/piwi3910/SquarePack/internal/project"
	"github.com/piwi3910/SquarePack/internal/tui"
)

// options are the command-line settings that are not part of model.Config.
type options struct {
	configPath      string
	tui             bool
	datPath         string
	xlsxPath        string
	plotPath        string
	pdfPath         string
	dxfPath         string
	checkpointPath  string
	checkpointEvery int
	resumePath      string
	seedLayoutPath  string
	compare         bool
	stopOnValid     bool
	metricsAddr     string
	logFormat       string
	logFile         string
	refresh         time.Duration
}

// overrides are Config fields settable from flags. Only flags the user
// passed are applied.
type overrides struct {
	generations int
	seed        uint64
	workers     int
	logLevel    string
	set         map[string]bool
}

func (o overrides) apply(cfg *model.Config) {
	if o.set["generations"] {
		cfg.Generations = o.generations
	}
	if o.set["seed"] {
		cfg.Seed = o.seed
	}
	if o.set["workers"] {
		cfg.Workers = o.workers
	}
	if o.set["log-level"] {
		cfg.LogLevel = o.logLevel
	}
}

func parseFlags(args []string, stderr io.Writer) (options, overrides, error) {
	var opts options
	var ov overrides

	fs := flag.NewFlagSet("squarepack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "JSON run configuration (SQUAREPACK_* env vars override it)")
	fs.IntVar(&ov.generations, "generations", 0, "generations to run in this invocation (a resumed run adds them to the checkpoint's count), 0 runs until interrupted")
	fs.Uint64Var(&ov.seed, "seed", 0, "random seed, 0 picks one")
	fs.IntVar(&ov.workers, "workers", 0, "worker goroutines, 0 uses every CPU")
	fs.StringVar(&ov.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	fs.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
	fs.BoolVar(&opts.tui, "tui", false, "show the best packing live in the terminal")
	fs.DurationVar(&opts.refresh, "refresh", 100*time.Millisecond, "terminal redraw interval")
	fs.StringVar(&opts.datPath, "dat", "", "write per-generation max/avg fitness to this text file")
	fs.StringVar(&opts.xlsxPath, "xlsx", "", "write per-generation statistics to this Excel workbook")
	fs.StringVar(&opts.plotPath, "plot", "", "write a fitness chart to this image (.png, .svg, .pdf)")
	fs.StringVar(&opts.pdfPath, "pdf", "", "write a PDF report of the best packing")
	fs.StringVar(&opts.dxfPath, "dxf", "", "write the best packing as DXF")
	fs.StringVar(&opts.checkpointPath, "checkpoint", "", "save the population to this file when the run ends")
	fs.IntVar(&opts.checkpointEvery, "checkpoint-every", 0, "also save the checkpoint every N generations")
	fs.StringVar(&opts.resumePath, "resume", "", "resume from a checkpoint file")
	fs.StringVar(&opts.seedLayoutPath, "seed-layout", "", "seed the first individual from a CSV, Excel or DXF layout")
	fs.BoolVar(&opts.compare, "compare", false, "compare what-if scenarios instead of running once")
	fs.BoolVar(&opts.stopOnValid, "stop-on-valid", false, "stop as soon as a packing without overlap is found")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	if err := fs.Parse(args); err != nil {
		return options{}, overrides{}, err
	}
	if fs.NArg() > 0 {
		return options{}, overrides{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	ov.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { ov.set[f.Name] = true })
	return opts, ov, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, ov, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	// Configuration: checkpoint or file, then env, then flags
	var checkpoint *project.Checkpoint
	var cfg model.Config
	if opts.resumePath != "" {
		cp, err := project.LoadCheckpoint(opts.resumePath)
		if err != nil {
			return err
		}
		checkpoint = &cp
		cfg = cp.Config
		cfg.Seed = cp.Seed
		if err := project.ApplyEnv(&cfg); err != nil {
			return err
		}
	} else {
		cfg, err = project.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
	}
	ov.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logOut := stderr
	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	case opts.tui:
		// The terminal belongs to the live view
		logOut = io.Discard
	}
	logger, err := newLogger(logOut, cfg.LogLevel, opts.logFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if opts.compare {
		return runCompare(ctx, cfg, stdout, logger)
	}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if opts.seedLayoutPath != "" {
		layout, err := loadSeedLayout(opts.seedLayoutPath, logger)
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, engine.WithSeedLayout(layout))
	}
	e, err := engine.New(cfg, engineOpts...)
	if err != nil {
		return err
	}

	var pop engine.Population
	runID := model.NewRunID()
	if checkpoint != nil {
		pop, err = e.Adopt(checkpoint.Population, checkpoint.Generation)
		runID = checkpoint.RunID
		logger.Info("resumed from checkpoint", "path", opts.resumePath, "generation", checkpoint.Generation)
	} else {
		pop, err = e.Initialize()
	}
	if err != nil {
		return err
	}

	// The seed in reports and checkpoints is the one actually used
	runCfg := e.Config()
	runCfg.Seed = e.Seed()

	history := export.NewHistory(historyOutputs(opts, runID)...)
	sinks := []engine.Sink{history}
	if opts.datPath != "" {
		sinks = append(sinks, export.NewDATWriter(opts.datPath))
	}

	var metricsServer *http.Server
	if opts.metricsAddr != "" {
		collector := metrics.NewCollector(runID)
		sinks = append(sinks, collector)
		metricsServer = startMetricsServer(opts.metricsAddr, collector, logger)
	}

	runnerOpts := []engine.RunnerOption{
		engine.WithRunLogger(logger),
		engine.WithRunID(runID),
		engine.WithSinks(sinks...),
	}
	if opts.stopOnValid {
		runnerOpts = append(runnerOpts, engine.WithStopOnValid())
	}
	if opts.checkpointPath != "" && opts.checkpointEvery > 0 {
		runnerOpts = append(runnerOpts, engine.WithStepHook(func(p engine.Population, r engine.StepReport) {
			if r.Generation%opts.checkpointEvery != 0 {
				return
			}
			if err := project.SaveCheckpoint(opts.checkpointPath, runID, runCfg.Seed, r.Generation, runCfg, p); err != nil {
				logger.Error("failed to save checkpoint", "generation", r.Generation, "error", err)
			}
		}))
	}
	runner := engine.NewRunner(e, runnerOpts...)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	viewDone := make(chan error, 1)
	viewCtx, stopView := context.WithCancel(runCtx)
	defer stopView()
	if opts.tui {
		screen, err := tui.NewScreen()
		if err != nil {
			return err
		}
		view := tui.New(screen, runner.Publisher(), opts.refresh, cancelRun, logger)
		go func() { viewDone <- view.Run(viewCtx) }()
	} else {
		close(viewDone)
	}

	final, runErr := runner.Run(runCtx, pop)

	stopView()
	if err := <-viewDone; err != nil {
		logger.Error("terminal view failed", "error", err)
	}

	closeErr := runner.Close()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
		cancel()
	}

	last := runner.Last()
	summary := model.Summarize(runCfg, last, history.Stats())

	outErr := writeOutputs(opts, runCfg, last, summary, history.Stats(), final, logger)
	printSummary(stdout, summary)

	return errors.Join(runErr, closeErr, outErr)
}

// historyOutputs returns the end-of-run writers fed by the in-memory history.
func historyOutputs(opts options, runID string) []func([]model.GenerationStats) error {
	var outputs []func([]model.GenerationStats) error
	if opts.xlsxPath != "" {
		outputs = append(outputs, func(rows []model.GenerationStats) error {
			return export.WriteXLSX(opts.xlsxPath, rows)
		})
	}
	if opts.plotPath != "" {
		outputs = append(outputs, func(rows []model.GenerationStats) error {
			return export.PlotHistory(opts.plotPath, "SquarePack run "+runID, rows)
		})
	}
	return outputs
}

func writeOutputs(opts options, cfg model.Config, last model.Snapshot, summary model.RunSummary, history []model.GenerationStats, pop engine.Population, logger *slog.Logger) error {
	var errs []error
	if opts.pdfPath != "" {
		if err := export.ExportPDF(opts.pdfPath, last, summary, history); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("wrote report", "path", opts.pdfPath)
		}
	}
	if opts.dxfPath != "" {
		if err := export.ExportDXF(opts.dxfPath, last.BoxSide, last.BestSquares); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("wrote drawing", "path", opts.dxfPath)
		}
	}
	if opts.checkpointPath != "" {
		if err := project.SaveCheckpoint(opts.checkpointPath, last.RunID, cfg.Seed, last.Generation, cfg, pop); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("wrote checkpoint", "path", opts.checkpointPath, "generation", last.Generation)
		}
	}
	return errors.Join(errs...)
}

func loadSeedLayout(path string, logger *slog.Logger) ([]geometry.Square, error) {
	result := importer.ImportLayout(path)
	for _, w := range result.Warnings {
		logger.Warn("seed layout", "path", path, "warning", w)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	logger.Info("loaded seed layout", "path", path, "squares", len(result.Squares))
	return result.Squares, nil
}

func startMetricsServer(addr string, collector *metrics.Collector, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func runCompare(ctx context.Context, cfg model.Config, stdout io.Writer, logger *slog.Logger) error {
	generations := cfg.Generations
	if generations <= 0 {
		generations = 200
	}
	results := engine.CompareScenarios(ctx, engine.BuildDefaultScenarios(cfg), generations, logger)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "SCENARIO\tBEST\tMEAN\tVALID\tDISASTERS\tSEED\n")
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\t\t\t\n", r.Scenario.Name, r.Err)
			errs = append(errs, fmt.Errorf("scenario %q: %w", r.Scenario.Name, r.Err))
			continue
		}
		fmt.Fprintf(tw, "%s\t%.6g\t%.6g\t%t\t%d\t%d\n", r.Scenario.Name, r.BestFitness, r.MeanFitness, r.Valid, r.Disasters, r.Seed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func printSummary(w io.Writer, s model.RunSummary) {
	state := "overlapping"
	if s.Valid {
		state = "valid"
	}
	fmt.Fprintf(w, "run %s: generation %d, best fitness %.6g (%s), %d disasters, %s, seed %d\n",
		s.RunID, s.Generations, s.BestFitness, state, s.Disasters, s.Duration.Round(time.Millisecond), s.Config.Seed)
}
