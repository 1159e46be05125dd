// Package server exposes the HTTP boundary of the normalization pipeline:
// artifact submission, job inspection, health, diagnostics, and metrics.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-normalizer/internal/domain"
	"media-normalizer/internal/jobs"
	"media-normalizer/internal/metrics"
	"media-normalizer/internal/pipeline"
)

// processor isolates the pipeline behind an interface for handler tests.
type processor interface {
	Process(ctx context.Context, artifact domain.InboundArtifact, opts pipeline.Options) (domain.Job, domain.Output, error)
}

// Config contains HTTP boundary configuration.
type Config struct {
	Address     string
	Port        int
	BodyLimitMB int
}

// errorResponse is the structured failure payload returned to callers.
type errorResponse struct {
	JobID string `json:"jobId,omitempty"`
	Kind  string `json:"kind"`
	Cause string `json:"cause"`
}

// Server hosts the fiber application and its route dependencies.
type Server struct {
	app         *fiber.App
	logger      *slog.Logger
	processor   processor
	registry    *jobs.Registry
	events      *jobs.EventBus
	metrics     *metrics.Metrics
	diagnostics func() domain.DiagnosticReport
	addr        string
	startTime   time.Time
}

// New builds the HTTP server and registers all routes.
func New(
	cfg Config,
	logger *slog.Logger,
	proc processor,
	registry *jobs.Registry,
	events *jobs.EventBus,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	diagnostics func() domain.DiagnosticReport,
) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
			DisableStartupMessage: true,
		}),
		logger:      logger,
		processor:   proc,
		registry:    registry,
		events:      events,
		metrics:     m,
		diagnostics: diagnostics,
		addr:        fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		startTime:   time.Now(),
	}

	s.app.Use(s.withMetrics)

	s.app.Post("/jobs", s.handleSubmit)
	s.app.Get("/jobs/:id", s.handleJob)
	s.app.Get("/jobs/:id/events", s.handleJobEvents)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/diagnostics", s.handleDiagnostics)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return s
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info("http server listening", slog.String("addr", s.addr))
	return s.app.Listen(s.addr)
}

// Shutdown drains connections and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// withMetrics records request counts and latency per route.
func (s *Server) withMetrics(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	endpoint := c.Route().Path
	if endpoint == "/metrics" {
		return err
	}
	s.metrics.RecordHTTPRequest(
		c.Method(),
		endpoint,
		strconv.Itoa(c.Response().StatusCode()),
		time.Since(start).Seconds(),
	)
	return err
}

// handleSubmit accepts an artifact and runs it through the pipeline,
// returning the output bytes with a classification tag, or a structured
// error carrying the taxonomy kind.
func (s *Server) handleSubmit(c *fiber.Ctx) error {
	payload, hint, err := readArtifact(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Kind:  "bad_request",
			Cause: err.Error(),
		})
	}

	opts := pipeline.Options{
		Text:   firstValue(c, "text"),
		Font:   firstValue(c, "font"),
		Width:  intValue(c, "width"),
		Height: intValue(c, "height"),
	}

	job, output, err := s.processor.Process(c.Context(), domain.InboundArtifact{
		Payload:      payload,
		DeclaredHint: hint,
	}, opts)
	if err != nil {
		kind := domain.KindOf(err)
		return c.Status(statusForKind(kind)).JSON(errorResponse{
			JobID: job.ID,
			Kind:  string(kind),
			Cause: domain.CauseOf(err),
		})
	}

	c.Set("X-Job-Id", job.ID)
	c.Set("X-Classification", string(output.Classification))
	c.Set(fiber.HeaderContentType, output.MediaType)
	return c.Send(output.Data)
}

// handleJob returns the lifecycle snapshot for one job.
func (s *Server) handleJob(c *fiber.Ctx) error {
	job, ok := s.registry.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Kind:  "not_found",
			Cause: "job not found",
		})
	}
	return c.JSON(job)
}

// handleJobEvents returns one job's events after the given sequence.
func (s *Server) handleJobEvents(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.registry.Get(id); !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Kind:  "not_found",
			Cause: "job not found",
		})
	}

	since := int64(0)
	if v := c.Query("since"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
				Kind:  "bad_request",
				Cause: "since must be an integer sequence number",
			})
		}
		since = parsed
	}

	events := s.events.ForJob(id, since)
	if events == nil {
		events = []jobs.Event{}
	}
	return c.JSON(events)
}

// handleHealth reports liveness and uptime.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).String(),
		"activeJobs": s.registry.Active(),
	})
}

// handleDiagnostics returns the current startup check report.
func (s *Server) handleDiagnostics(c *fiber.Ctx) error {
	report := s.diagnostics()
	status := fiber.StatusOK
	if report.HasFailures {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

// readArtifact extracts payload bytes and the untrusted hint from either a
// multipart "file" field or the raw request body.
func readArtifact(c *fiber.Ctx) ([]byte, string, error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, "", fmt.Errorf("cannot open uploaded file: %w", err)
		}
		defer file.Close()

		payload, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("cannot read uploaded file: %w", err)
		}
		return payload, fileHeader.Header.Get(fiber.HeaderContentType), nil
	}

	return c.Body(), c.Get(fiber.HeaderContentType), nil
}

// firstValue reads a request value from form fields, then the query string.
func firstValue(c *fiber.Ctx, key string) string {
	if v := c.FormValue(key); v != "" {
		return v
	}
	return c.Query(key)
}

// intValue reads an integer request value, treating garbage as unset.
func intValue(c *fiber.Ctx, key string) int {
	v := firstValue(c, key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// statusForKind maps the error taxonomy to HTTP status codes.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrorKindClassification:
		return fiber.StatusUnprocessableEntity
	case domain.ErrorKindRender, domain.ErrorKindFontResolution:
		return fiber.StatusBadRequest
	case domain.ErrorKindConversion:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
