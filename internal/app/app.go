package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"LCExtract/internal/archive"
	"LCExtract/internal/config"
	"LCExtract/internal/domain"
	"LCExtract/internal/infrastructure/objectfile"
	"LCExtract/internal/infrastructure/observability"
	"LCExtract/internal/infrastructure/render"
	"LCExtract/internal/infrastructure/resolver"
	"LCExtract/internal/infrastructure/storage"
	"LCExtract/internal/infrastructure/survey"
	"LCExtract/internal/lightcurve"
	"LCExtract/internal/logging"
	"LCExtract/internal/ports"
	"LCExtract/internal/usecase"
)

// Application wires config to the extraction pipeline and run lifecycle.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	bands    domain.FilterSet
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := archive.NewRegistry()
	maxTimeout := 30 * time.Second
	for _, ac := range cfg.Archives {
		if !ac.IsEnabled() {
			continue
		}
		timeout := ac.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		if timeout > maxTimeout {
			maxTimeout = timeout
		}

		client := &http.Client{Timeout: timeout}
		logger := baseLogger.With("component", "archive."+ac.Name)
		switch ac.Name {
		case "ZTF":
			registry.Register(survey.NewZTFClient(client, ac.BaseURL, logger))
		case "PanSTARRS":
			registry.Register(survey.NewPanSTARRSClient(client, ac.BaseURL, logger))
		case "PTF":
			registry.Register(survey.NewPTFClient(client, ac.BaseURL, logger))
		default:
			return nil, fmt.Errorf("unknown archive %q in config", ac.Name)
		}
	}
	if len(registry.All()) == 0 {
		return nil, fmt.Errorf("no archives enabled")
	}

	var repository ports.StatsRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect summary store: %w", err)
		}
		repository = storage.NewPostgresRepository(db)
	}

	var metrics ports.Metrics
	if cfg.Metrics.Addr != "" {
		metrics = observability.NewPromMetrics(prometheus.DefaultRegisterer)
	}

	var exporter ports.Exporter
	if cfg.Export.Dir != "" {
		exporter = render.NewCSVExporter(cfg.Export.Dir)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:   registry,
		Resolver:   resolver.NewMASTResolver(nil, cfg.Resolver.Endpoint),
		Repository: repository,
		Renderer:   render.NewConsoleRenderer(os.Stdout),
		Exporter:   exporter,
		Metrics:    metrics,
		Merge: lightcurve.MergeOptions{
			ToleranceDays: cfg.Merge.EpochToleranceDays,
			Policy:        lightcurve.EpochPolicy(cfg.Merge.EpochPolicy),
		},
		ArchiveTimeout: maxTimeout,
		Logger:         baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		bands:    domain.ParseFilterSet(cfg.Search.Bands),
	}, nil
}

// Run processes every object in the configured object list. Per-object
// failures (unresolvable names) are logged and do not stop the run; the
// returned error reports how many objects failed.
func (a *Application) Run(ctx context.Context) error {
	a.serveMetrics(ctx)

	objects, err := objectfile.Read(a.cfg.Objects.File, a.cfg.Search.ConeRadiusArcsec)
	if err != nil {
		return err
	}

	failures := 0
	for _, query := range objects {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lc, err := a.pipeline.ProcessObject(ctx, query, a.bands)
		if err != nil {
			failures++
			a.logger.Error("object failed", "object", query.Name, "error", err)
			continue
		}
		a.logger.Info("object processed", "object", query.Name, "observations", lc.Observations())
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d objects failed", failures, len(objects))
	}
	return nil
}

// serveMetrics starts the Prometheus endpoint when configured.
func (a *Application) serveMetrics(ctx context.Context) {
	if a.cfg.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics listener stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
