// Package pipeline coordinates classification, conversion, and rendering for
// independent jobs, recording every lifecycle transition.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"media-normalizer/internal/classify"
	"media-normalizer/internal/convert"
	"media-normalizer/internal/domain"
	"media-normalizer/internal/jobs"
	"media-normalizer/internal/metrics"
	"media-normalizer/internal/render"
)

// normalizer isolates the audio conversion step behind an interface.
type normalizer interface {
	Normalize(ctx context.Context, jobID string, input []byte) ([]byte, error)
}

// renderer isolates the text rasterization step behind an interface.
type renderer interface {
	Render(spec domain.RenderSpec) ([]byte, error)
}

// RenderDefaults fills request fields the caller leaves unset.
type RenderDefaults struct {
	Font   string
	Width  int
	Height int
}

// Options carries per-request render parameters from the transport.
type Options struct {
	Text   string
	Font   string
	Width  int
	Height int
}

// Config wires coordinator collaborators and limits.
type Config struct {
	Normalizer     normalizer
	Renderer       renderer
	Registry       *jobs.Registry
	Events         *jobs.EventBus
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	RenderDefaults RenderDefaults
	MaxConcurrent  int
}

// Coordinator sequences classifier, normalizer, and renderer per job.
type Coordinator struct {
	classify   func(data []byte) (classify.Result, error)
	normalizer normalizer
	renderer   renderer
	registry   *jobs.Registry
	events     *jobs.EventBus
	metrics    *metrics.Metrics
	logger     *slog.Logger
	defaults   RenderDefaults
	sem        chan struct{}
}

// New builds a coordinator from wired collaborators.
func New(cfg Config) *Coordinator {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Coordinator{
		classify:   classify.Classify,
		normalizer: cfg.Normalizer,
		renderer:   cfg.Renderer,
		registry:   cfg.Registry,
		events:     cfg.Events,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		defaults:   cfg.RenderDefaults,
		sem:        make(chan struct{}, maxConcurrent),
	}
}

// Process runs one artifact through the pipeline. The returned job snapshot
// reflects the terminal state; on failure the originating error is preserved
// both on the job and in the returned error.
func (c *Coordinator) Process(ctx context.Context, artifact domain.InboundArtifact, opts Options) (domain.Job, domain.Output, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return domain.Job{}, domain.Output{}, ctx.Err()
	}

	job := c.registry.Create()
	c.metrics.RecordJobStarted()
	c.publishStatus(job.ID, domain.JobStatusReceived, "Artifact received")
	c.logger.Info("job started",
		slog.String("job_id", job.ID),
		slog.Int("payload_bytes", len(artifact.Payload)),
		slog.String("declared_hint", artifact.DeclaredHint),
	)

	result, err := c.classify(artifact.Payload)
	if err != nil {
		return c.fail(job.ID, err)
	}

	_ = c.registry.SetClassification(job.ID, result.Category)
	if err := c.registry.Transition(job.ID, domain.JobStatusClassified); err != nil {
		return c.fail(job.ID, err)
	}
	c.publishStatus(job.ID, domain.JobStatusClassified, "Detected "+result.MIME)

	var output domain.Output
	switch result.Category {
	case domain.ClassificationAudio:
		output, err = c.runConversion(ctx, job.ID, artifact.Payload)
	default:
		output, err = c.runRender(job.ID, result.Category, opts)
	}
	if err != nil {
		return c.fail(job.ID, err)
	}
	output.Classification = result.Category

	if err := c.registry.Transition(job.ID, domain.JobStatusCompleted); err != nil {
		return c.fail(job.ID, err)
	}
	c.metrics.RecordJobCompleted(string(result.Category))
	c.events.Publish(jobs.Event{
		JobID:     job.ID,
		Type:      jobs.EventTypeResult,
		Status:    domain.JobStatusCompleted,
		Message:   "Job completed",
		MediaType: output.MediaType,
	})
	c.logger.Info("job completed",
		slog.String("job_id", job.ID),
		slog.String("classification", string(result.Category)),
		slog.String("media_type", output.MediaType),
		slog.Int("output_bytes", len(output.Data)),
	)

	final, _ := c.registry.Get(job.ID)
	return final, output, nil
}

// runConversion executes the audio normalization branch.
func (c *Coordinator) runConversion(ctx context.Context, jobID string, payload []byte) (domain.Output, error) {
	if err := c.registry.Transition(jobID, domain.JobStatusConverting); err != nil {
		return domain.Output{}, err
	}
	c.publishStatus(jobID, domain.JobStatusConverting, "Normalizing audio")

	start := time.Now()
	data, err := c.normalizer.Normalize(ctx, jobID, payload)
	c.metrics.RecordConversion(time.Since(start).Seconds())
	if err != nil {
		return domain.Output{}, err
	}

	return domain.Output{Data: data, MediaType: convert.CanonicalMediaType}, nil
}

// runRender executes the text rendering branch for non-audio artifacts.
func (c *Coordinator) runRender(jobID string, category domain.Classification, opts Options) (domain.Output, error) {
	if opts.Text == "" {
		if category == domain.ClassificationUnknown {
			return domain.Output{}, &domain.ClassificationError{
				Cause: "unrecognized payload with no render text",
			}
		}
		return domain.Output{}, &domain.RenderError{
			Cause: "no render text provided for " + string(category) + " artifact",
		}
	}

	if err := c.registry.Transition(jobID, domain.JobStatusRendering); err != nil {
		return domain.Output{}, err
	}
	c.publishStatus(jobID, domain.JobStatusRendering, "Rendering text")

	spec := domain.RenderSpec{
		Text:   opts.Text,
		Font:   opts.Font,
		Width:  opts.Width,
		Height: opts.Height,
	}
	if spec.Font == "" {
		spec.Font = c.defaults.Font
	}
	if spec.Width == 0 {
		spec.Width = c.defaults.Width
	}
	if spec.Height == 0 {
		spec.Height = c.defaults.Height
	}

	start := time.Now()
	data, err := c.renderer.Render(spec)
	c.metrics.RecordRender(time.Since(start).Seconds())
	if err != nil {
		return domain.Output{}, err
	}

	return domain.Output{Data: data, MediaType: render.MediaType}, nil
}

// fail records the terminal failure and returns the preserved error.
func (c *Coordinator) fail(jobID string, cause error) (domain.Job, domain.Output, error) {
	_ = c.registry.Fail(jobID, cause)
	c.metrics.RecordJobFailed(string(domain.KindOf(cause)))
	c.events.Publish(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeError,
		Status:  domain.JobStatusFailed,
		Message: cause.Error(),
	})
	c.logger.Warn("job failed",
		slog.String("job_id", jobID),
		slog.String("kind", string(domain.KindOf(cause))),
		slog.String("cause", domain.CauseOf(cause)),
	)

	job, _ := c.registry.Get(jobID)
	return job, domain.Output{}, cause
}

// publishStatus emits one status event for transport subscribers.
func (c *Coordinator) publishStatus(jobID string, status domain.JobStatus, message string) {
	c.events.Publish(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}
