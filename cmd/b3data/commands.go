package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"b3data/internal/config"
	"b3data/internal/dataprocessing"
	apperrors "b3data/internal/errors"
	"b3data/internal/exporter"
	"b3data/internal/files"
	"b3data/internal/infrastructure"
	"b3data/internal/operations"
	"b3data/internal/schema"
	"b3data/internal/validation"
)

// previewCellWidth trims long cells such as encoded series in terminal output.
const previewCellWidth = 48

// listWorkers bounds how many files list inspects at once.
const listWorkers = 4

type options struct {
	configFile  string
	in          string
	out         string
	kind        string
	key         string
	values      string
	limit       int
	recipe      string
	pattern     string
	metricsFile string
	trace       bool
}

// register adds the common flags and the named command flags to fs.
func (o *options) register(fs *flag.FlagSet, names []string) {
	fs.StringVar(&o.configFile, "config", "", "YAML config file (defaults to $B3_CONFIG or ./b3data.yaml)")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
	fs.BoolVar(&o.trace, "trace", false, "export trace spans to stderr or the configured trace file")

	for _, name := range names {
		switch name {
		case "in":
			fs.StringVar(&o.in, "in", "", "input table (.csv, .xlsx or .xlsm); bare names are read from the data directory")
		case "dir":
			fs.StringVar(&o.in, "in", "", "directory to list; relative paths are below the data directory")
		case "out":
			fs.StringVar(&o.out, "out", "", "output file (.csv or .xlsx); bare names are written to the output directory")
		case "kind":
			fs.StringVar(&o.kind, "kind", "", "input kind: scalars or timeseries (detected when empty)")
		case "key":
			fs.StringVar(&o.key, "key", "", "column to filter or aggregate by")
		case "values":
			fs.StringVar(&o.values, "values", "", "comma separated values to keep")
		case "limit":
			fs.IntVar(&o.limit, "limit", 20, "rows to show, 0 for all")
		case "pattern":
			fs.StringVar(&o.pattern, "pattern", "", "glob the listed file names must match, e.g. '*profile*'")
		case "recipe":
			fs.StringVar(&o.recipe, "recipe", "", "YAML recipe of load, stack, unstack, filter, aggregate and save steps")
		}
	}
}

// valueList splits the -values flag. Empty entries are dropped.
func (o *options) valueList() []string {
	var out []string
	for _, v := range strings.Split(o.values, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type command struct {
	summary string
	flags   []string
	run     func(ctx context.Context, e *env, o *options) error
}

var commands = map[string]command{
	"show": {
		summary: "print a table to the terminal",
		flags:   []string{"in", "kind", "limit"},
		run:     runShow,
	},
	"load": {
		summary: "read a table, complete its optional columns and save it",
		flags:   []string{"in", "out", "kind"},
		run:     runLoad,
	},
	"stack": {
		summary: "convert a wide time series to one row per variable",
		flags:   []string{"in", "out"},
		run:     runStack,
	},
	"unstack": {
		summary: "convert stacked time series to one column per variable",
		flags:   []string{"in", "out"},
		run:     runUnstack,
	},
	"filter": {
		summary: "keep the rows whose key column holds one of the values",
		flags:   []string{"in", "out", "kind", "key", "values"},
		run:     runFilter,
	},
	"aggregate": {
		summary: "sum the rows that share scenario, key and variable",
		flags:   []string{"in", "out", "kind", "key"},
		run:     runAggregate,
	},
	"list": {
		summary: "list the tables in a directory with their kind and size",
		flags:   []string{"dir", "pattern", "limit"},
		run:     runList,
	},
	"run": {
		summary: "run the steps of a recipe file in order",
		flags:   []string{"recipe"},
		run:     runRecipe,
	},
}

// env holds what every command needs once the config is loaded.
type env struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
	proc      *dataprocessing.Processor
	writer    *exporter.TableWriter
	validator *validation.FileValidator
	stdout    io.Writer
}

func execute(ctx context.Context, cmd command, o *options, stdout io.Writer) (err error) {
	e, err := setup(o, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if o.metricsFile != "" && err == nil {
			err = e.providers.WriteMetricsFile(o.metricsFile)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := e.providers.Shutdown(shutdownCtx); serr != nil {
			e.logger.Warn("Telemetry shutdown failed", slog.String("error", serr.Error()))
		}
	}()

	ctx = infrastructure.EnsureTraceID(ctx)
	return cmd.run(ctx, e, o)
}

func setup(o *options, stdout io.Writer) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFrom(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.trace {
		cfg.Telemetry.EnableTracing = true
		if cfg.Telemetry.TraceExporter == "none" {
			cfg.Telemetry.TraceExporter = "stdout"
		}
	}
	if o.metricsFile != "" {
		cfg.Telemetry.EnableMetrics = true
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize logger", err)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize telemetry", err)
	}

	logger.Debug("Configuration loaded",
		slog.String("data_dir", paths.DataDir),
		slog.String("output_dir", paths.OutputDir),
		slog.Bool("tracing", cfg.Telemetry.EnableTracing),
		slog.Bool("metrics", cfg.Telemetry.EnableMetrics))

	return &env{
		cfg:       cfg,
		paths:     paths,
		logger:    logger,
		providers: providers,
		proc:      dataprocessing.New(logger, dataprocessing.OptionsFromConfig(cfg.Processing, providers.Metrics)),
		writer:    exporter.NewTableWriter(logger, exporter.WriterOptionsFromConfig(cfg.Processing, paths, providers.Metrics)),
		validator: validation.NewFileValidator(infrastructure.WithComponent(logger, "validation")),
		stdout:    stdout,
	}, nil
}

// input resolves and checks the -in flag.
func (e *env) input(o *options) (string, error) {
	if o.in == "" {
		return "", apperrors.NewAppValidationError("-in is required")
	}
	path := e.paths.InputPath(o.in)
	if err := e.validator.ValidateInputFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// load reads the input with the kind given by -kind, detecting it when empty.
func (e *env) load(ctx context.Context, o *options) (dataprocessing.Table, error) {
	path, err := e.input(o)
	if err != nil {
		return nil, err
	}
	var kind schema.Kind
	if o.kind != "" {
		if kind, err = schema.ParseKind(o.kind); err != nil {
			return nil, err
		}
	}
	return e.proc.LoadAny(ctx, path, kind)
}

// save writes t to -out, or to the output directory under the input's name
// plus suffix when -out is empty, and prints the path written.
func (e *env) save(ctx context.Context, o *options, suffix string, t any) error {
	out := o.out
	if out == "" {
		base := filepath.Base(o.in)
		out = strings.TrimSuffix(base, filepath.Ext(base)) + suffix + ".csv"
	}
	if err := e.validator.ValidateOutputFile(e.paths.OutputPath(out)); err != nil {
		return err
	}
	full, err := e.writer.Export(ctx, out, t)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, full)
	return nil
}

func runShow(ctx context.Context, e *env, o *options) error {
	t, err := e.load(ctx, o)
	if err != nil {
		return err
	}
	kind, err := dataprocessing.Classify(t)
	if err != nil {
		return err
	}
	g, err := exporter.GridOf(t, e.cfg.Processing.TimestampLayout)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%s: %d rows of %s\n", filepath.Base(o.in), t.Len(), kind)
	return exporter.Preview(e.stdout, g, exporter.PreviewOptions{Limit: o.limit, MaxCellWidth: previewCellWidth})
}

func runLoad(ctx context.Context, e *env, o *options) error {
	t, err := e.load(ctx, o)
	if err != nil {
		return err
	}
	return e.save(ctx, o, "", t)
}

func runStack(ctx context.Context, e *env, o *options) error {
	path, err := e.input(o)
	if err != nil {
		return err
	}
	stacked, err := e.proc.LoadTimeseries(ctx, path)
	if err != nil {
		return err
	}
	return e.save(ctx, o, "_stacked", stacked)
}

func runUnstack(ctx context.Context, e *env, o *options) error {
	path, err := e.input(o)
	if err != nil {
		return err
	}
	stacked, err := e.proc.LoadTimeseries(ctx, path)
	if err != nil {
		return err
	}
	wide, err := e.proc.Unstack(ctx, stacked)
	if err != nil {
		return err
	}
	return e.save(ctx, o, "_unstacked", wide)
}

func runFilter(ctx context.Context, e *env, o *options) error {
	if o.key == "" {
		return apperrors.NewAppValidationError("-key is required")
	}
	t, err := e.load(ctx, o)
	if err != nil {
		return err
	}
	filtered, err := e.proc.FilterBy(ctx, t, o.key, o.valueList())
	if err != nil {
		return err
	}
	return e.save(ctx, o, "_filtered", filtered)
}

func runAggregate(ctx context.Context, e *env, o *options) error {
	if o.key == "" {
		return apperrors.NewAppValidationError("-key is required")
	}
	t, err := e.load(ctx, o)
	if err != nil {
		return err
	}
	aggregated, err := e.proc.AggregateBy(ctx, t, o.key)
	if err != nil {
		return err
	}
	return e.save(ctx, o, "_by_"+o.key, aggregated)
}

func runList(ctx context.Context, e *env, o *options) error {
	dir := e.paths.DataDir
	if o.in != "" {
		dir = o.in
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.paths.DataDir, dir)
		}
	}
	if err := e.validator.ValidateInputDirectory(dir); err != nil {
		return err
	}

	discovery := files.NewDiscovery(e.paths.DataDir)
	var (
		found []files.FileInfo
		err   error
	)
	if o.pattern != "" {
		found, err = discovery.FindFilesByPattern(dir, o.pattern)
	} else {
		found, err = discovery.FindTables(dir)
	}
	if err != nil {
		return err
	}

	// Unreadable files are reported, not fatal.
	summaries := make([]*dataprocessing.FileSummary, len(found))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(listWorkers)
	for i, f := range found {
		group.Go(func() error {
			summary, err := e.proc.Inspect(f.Path)
			if err != nil {
				infrastructure.WithError(e.logger, err).WarnContext(gctx, "Cannot read table",
					slog.String("path", f.Path))
				return nil
			}
			summaries[i] = &summary
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	g := exporter.Grid{Header: []string{"file", "kind", "columns", "rows", "size", "modified"}}
	for i, f := range found {
		kind, cols, rows := "unreadable", "", ""
		if summary := summaries[i]; summary != nil {
			kind = string(summary.Kind)
			cols, rows = strconv.Itoa(summary.Columns), strconv.Itoa(summary.Rows)
		}
		g.Records = append(g.Records, []string{
			f.Name, kind, cols, rows,
			strconv.FormatInt(f.Size, 10),
			f.ModTime.Format(e.cfg.Processing.TimestampLayout),
		})
	}

	fmt.Fprintf(e.stdout, "%s: %d tables", dir, len(found))
	if latest, ok := files.GetLatestFile(found); ok {
		fmt.Fprintf(e.stdout, ", latest %s", latest.Name)
	}
	fmt.Fprintln(e.stdout)
	return exporter.Preview(e.stdout, g, exporter.PreviewOptions{Limit: o.limit})
}

func runRecipe(ctx context.Context, e *env, o *options) error {
	if o.recipe == "" {
		return apperrors.NewAppValidationError("-recipe is required")
	}
	recipe, err := operations.LoadRecipe(e.paths.InputPath(o.recipe))
	if err != nil {
		return err
	}

	registry := operations.NewDefaultRegistry(operations.Deps{
		Processor: e.proc,
		Writer:    e.writer,
		InputPath: e.paths.InputPath,
		CheckOutput: func(path string) error {
			return e.validator.ValidateOutputFile(e.paths.OutputPath(path))
		},
	})
	manager := operations.NewManager(registry, e.logger, e.providers.Metrics)

	state, runErr := manager.Execute(ctx, recipe)

	g := exporter.Grid{Header: []string{"step", "action", "status", "rows", "duration"}}
	for _, s := range state.Steps {
		rows := ""
		if s.Rows >= 0 {
			rows = strconv.Itoa(s.Rows)
		}
		g.Records = append(g.Records, []string{
			s.ID, s.Action, string(s.Status), rows, s.Duration().Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintf(e.stdout, "%s: %s\n", recipe.Name, state.Status)
	if err := exporter.Preview(e.stdout, g, exporter.PreviewOptions{}); err != nil {
		return err
	}
	for _, out := range state.Outputs {
		fmt.Fprintln(e.stdout, out)
	}
	return runErr
}
