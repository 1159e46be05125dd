// Package bootstrap wires configuration, fonts, metrics, the pipeline, and
// the HTTP server into a runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"media-normalizer/internal/config"
	"media-normalizer/internal/convert"
	"media-normalizer/internal/diagnostics"
	"media-normalizer/internal/domain"
	"media-normalizer/internal/jobs"
	"media-normalizer/internal/metrics"
	"media-normalizer/internal/pipeline"
	"media-normalizer/internal/render"
	"media-normalizer/internal/server"
)

// sweepInterval is how often finished jobs are checked against retention.
const sweepInterval = time.Minute

// App owns every long-lived component of the service.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Registry    *jobs.Registry
	Events      *jobs.EventBus
	Coordinator *pipeline.Coordinator

	server  *server.Server
	checker *diagnostics.Checker
	targets diagnostics.Targets

	mu          sync.Mutex
	diagnostics domain.DiagnosticReport
}

// New builds the application from validated configuration. Fonts must load;
// a service without a usable font cannot honor render requests.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	targets := diagnostics.Targets{
		FFmpegPath:  cfg.Pipeline.FFmpegPath,
		FFprobePath: cfg.Pipeline.FFprobePath,
		FontsDir:    cfg.Render.FontsDir,
		TempDir:     cfg.Pipeline.TempDir,
	}
	checker := diagnostics.NewChecker()
	report := checker.Run(targets)

	fonts, err := render.LoadRegistry(cfg.Render.FontsDir)
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	registry := jobs.NewRegistry(cfg.Pipeline.GetJobRetention())
	events := jobs.NewEventBus(1000)

	normalizer := convert.NewNormalizer(convert.Config{
		FFmpegPath:        cfg.Pipeline.FFmpegPath,
		FFprobePath:       cfg.Pipeline.FFprobePath,
		TempRoot:          cfg.Pipeline.TempDir,
		Timeout:           cfg.Pipeline.GetConvertTimeout(),
		DurationTolerance: cfg.Pipeline.GetDurationTolerance(),
	})
	normalizer.OnCommand(func(jobID string, log convert.CommandLog) {
		events.Publish(jobs.Event{
			JobID:    jobID,
			Type:     jobs.EventTypeLog,
			Command:  log.Command,
			Args:     log.Args,
			ExitCode: log.ExitCode,
			Stderr:   log.Stderr,
		})
	})

	renderer := render.NewRenderer(fonts, render.Options{
		DefaultFont:   cfg.Render.DefaultFont,
		FontSize:      cfg.Render.FontSize,
		MaxTextLength: cfg.Render.MaxTextLength,
	})

	coordinator := pipeline.New(pipeline.Config{
		Normalizer: normalizer,
		Renderer:   renderer,
		Registry:   registry,
		Events:     events,
		Metrics:    m,
		Logger:     logger,
		RenderDefaults: pipeline.RenderDefaults{
			Font:   cfg.Render.DefaultFont,
			Width:  cfg.Render.DefaultWidth,
			Height: cfg.Render.DefaultHeight,
		},
		MaxConcurrent: cfg.Pipeline.MaxConcurrentJobs,
	})

	app := &App{
		Config:      cfg,
		Logger:      logger,
		Registry:    registry,
		Events:      events,
		Coordinator: coordinator,
		checker:     checker,
		targets:     targets,
		diagnostics: report,
	}

	app.server = server.New(
		server.Config{
			Address:     cfg.Server.Address,
			Port:        cfg.Server.Port,
			BodyLimitMB: cfg.Server.BodyLimitMB,
		},
		logger,
		coordinator,
		registry,
		events,
		m,
		promRegistry,
		app.RefreshDiagnostics,
	)

	return app, nil
}

// Diagnostics returns the most recent startup check report.
func (a *App) Diagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.diagnostics
}

// RefreshDiagnostics re-probes external tools and paths and returns the result.
// Safe for concurrent use; the HTTP diagnostics handler calls it per request.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	report := a.checker.Run(a.targets)

	a.mu.Lock()
	a.diagnostics = report
	a.mu.Unlock()

	return report
}

// Run serves HTTP and sweeps expired jobs until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Listen()
	}()

	go a.sweepLoop(ctx)

	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down")
		if err := a.server.Shutdown(); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// sweepLoop evicts finished jobs past retention at a fixed cadence.
func (a *App) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := a.Registry.Sweep(); evicted > 0 {
				a.Logger.Debug("swept finished jobs", slog.Int("evicted", evicted))
			}
		}
	}
}
