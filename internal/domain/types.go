package domain

import "time"

// Classification is the byte-inspection category of an inbound artifact.
type Classification string

const (
	ClassificationAudio    Classification = "audio"
	ClassificationImage    Classification = "image"
	ClassificationDocument Classification = "document"
	ClassificationUnknown  Classification = "unknown"
)

// JobStatus tracks each pipeline stage for a single normalization job.
type JobStatus string

const (
	JobStatusReceived   JobStatus = "received"
	JobStatusClassified JobStatus = "classified"
	JobStatusConverting JobStatus = "converting"
	JobStatusRendering  JobStatus = "rendering"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether a status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// InboundArtifact is an untrusted byte payload submitted for processing.
// The declared hint is caller-supplied and never consulted for classification.
type InboundArtifact struct {
	Payload      []byte
	DeclaredHint string
}

// RenderSpec describes one text-over-canvas rendering request.
type RenderSpec struct {
	Text   string
	Font   string
	Width  int
	Height int
}

// Output is the pipeline result delivered back to the transport.
type Output struct {
	Data           []byte
	MediaType      string
	Classification Classification
}

// Job stores identity, lifecycle status, and outcome for one artifact.
type Job struct {
	ID             string         `json:"id"`
	Status         JobStatus      `json:"status"`
	Classification Classification `json:"classification,omitempty"`
	ErrorKind      ErrorKind      `json:"errorKind,omitempty"`
	ErrorCause     string         `json:"errorCause,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	FinishedAt     time.Time      `json:"finishedAt"`
}
