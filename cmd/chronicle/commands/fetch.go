package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/cache"
	"github.com/teranos/chronicle/chronicle"
	"github.com/teranos/chronicle/display"
	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/logger"
	"github.com/teranos/chronicle/metrics"
	"github.com/teranos/chronicle/sparql"
	"github.com/teranos/chronicle/spec"
	"github.com/teranos/chronicle/sym"
)

// FetchCmd builds a timeline document from a spec
var FetchCmd = &cobra.Command{
	Use:   "fetch SPEC [OUT]",
	Short: sym.AX + " Build a timeline from a spec",
	Long: sym.AX + ` fetch: Build a timeline from a spec

SPEC is a local .json, .yaml or .toml file, or a remote source such as
https://, git:: or s3:: understood by go-getter. OUT defaults to output.path.

Query results are cached between runs in cache.path; --skip-cache
re-queries every item but still stores the fresh results.

Examples:
  chronicle fetch spec.json
  chronicle fetch spec.toml public/timeline.json --skip-cache
  chronicle fetch spec.yaml --watch -v
  chronicle fetch git::https://github.com/org/timelines//wars.json
  chronicle fetch spec.json --query-url http://localhost:7001/sparql`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFetch,
}

var watchFlag bool

func init() {
	FetchCmd.Flags().Bool("skip-cache", false, "Query every item even when a cached answer exists")
	FetchCmd.Flags().String("query-url", "", "SPARQL endpoint URL (overrides endpoint.url)")
	FetchCmd.Flags().String("metrics-file", "", "Write run metrics in Prometheus textfile format")
	FetchCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Rebuild whenever the spec file changes")
	bindFetchFlags()
}

// bindFetchFlags layers the fetch flags over the configuration
func bindFetchFlags() {
	v := am.GetViper()
	_ = v.BindPFlag("cache.skip", FetchCmd.Flags().Lookup("skip-cache"))
	_ = v.BindPFlag("endpoint.url", FetchCmd.Flags().Lookup("query-url"))
	_ = v.BindPFlag("metrics.textfile", FetchCmd.Flags().Lookup("metrics-file"))
}

// fetcher owns everything one or more runs share
type fetcher struct {
	cfg     *am.Config
	src     string
	out     string
	runner  *chronicle.Runner
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
	cmd     *cobra.Command
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	f := &fetcher{
		cfg:     cfg,
		src:     args[0],
		out:     cfg.Output.Path,
		metrics: metrics.New(),
		logger:  logger.Logger,
		cmd:     cmd,
	}
	if len(args) > 1 {
		f.out = args[1]
	}
	if watchFlag && spec.IsRemote(f.src) {
		return errors.NewConfigurationError("--watch needs a local spec file, got %s", f.src)
	}

	client, err := sparql.NewClient(sparql.Config{
		Endpoint:             cfg.Endpoint.URL,
		UserAgent:            cfg.Endpoint.UserAgent,
		Timeout:              time.Duration(cfg.Endpoint.TimeoutSeconds) * time.Second,
		MaxRequestsPerMinute: cfg.Endpoint.MaxRequestsPerMinute,
		AllowPrivate:         cfg.Endpoint.AllowPrivate,
		Logger:               logger.AddAxSymbol(f.logger.Named("sparql")),
	})
	if err != nil {
		return err
	}

	store, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path, logger.AddDBSymbol(f.logger.Named("cache")))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			f.logger.Warnw("Failed to close cache", logger.FieldError, cerr)
		}
	}()

	f.runner = chronicle.New(chronicle.Config{
		Querier:       client,
		Store:         store,
		SkipCache:     cfg.Cache.Skip,
		Lang:          cfg.Endpoint.Lang,
		EntityBaseURL: cfg.Endpoint.EntityBaseURL,
		Logger:        f.logger,
		Metrics:       f.metrics,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !watchFlag {
		return f.once(ctx)
	}
	return f.watch(ctx)
}

// once loads the spec, runs it and writes the document and metrics
func (f *fetcher) once(ctx context.Context) error {
	doc, err := spec.Load(ctx, f.src, f.logger)
	if err == nil {
		err = f.run(ctx, doc)
	}
	if merr := f.metrics.WriteTextfile(f.cfg.Metrics.Textfile); merr != nil {
		f.logger.Warnw("Failed to write metrics", logger.FieldFile, f.cfg.Metrics.Textfile, logger.FieldError, merr)
	}
	return err
}

func (f *fetcher) run(ctx context.Context, doc *spec.Document) error {
	out, rep, err := f.runner.Run(ctx, doc)
	if err != nil {
		return err
	}
	if err := out.Write(f.out, f.cfg.Output.Indent); err != nil {
		return err
	}

	w := f.cmd.OutOrStdout()
	if display.ShouldOutputJSON(f.cmd) {
		return display.OutputJSON(w, display.NewReportView(rep, f.out))
	}
	return display.Report(w, rep, f.out)
}

// watch runs once, then again after every settled change to the spec file
func (f *fetcher) watch(ctx context.Context) error {
	w, err := spec.NewWatcher(f.src, spec.DefaultDebounce, f.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	// Failures are printed and watching continues
	rerun := func(ctx context.Context) error {
		if err := f.once(ctx); err != nil && !errors.Is(err, context.Canceled) {
			display.Error(f.cmd.ErrOrStderr(), err, false)
		}
		return nil
	}
	_ = rerun(ctx)

	f.logger.Infow("Watching spec for changes", logger.FieldFile, f.src)
	return w.Run(ctx, rerun)
}
