// Package convert normalizes arbitrary audio containers to the canonical
// target by driving an external ffmpeg process with job-scoped temporary
// storage and a bounded timeout.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"media-normalizer/internal/domain"
)

// CanonicalMediaType is the MIME type of every successful conversion.
const CanonicalMediaType = "audio/ogg"

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Config controls external tool paths and conversion limits.
type Config struct {
	FFmpegPath        string
	FFprobePath       string
	TempRoot          string
	Timeout           time.Duration
	DurationTolerance time.Duration
}

// Normalizer converts audio payloads to canonical OGG/Opus.
type Normalizer struct {
	cfg       Config
	runner    commandRunner
	mkdirAll  func(path string, perm os.FileMode) error
	removeAll func(path string) error
	writeFile func(name string, data []byte, perm os.FileMode) error
	readFile  func(name string) ([]byte, error)

	// onCommand receives logs of every external invocation, when set.
	onCommand func(jobID string, log CommandLog)
}

// NewNormalizer constructs the production normalizer with OS dependencies.
func NewNormalizer(cfg Config) *Normalizer {
	return &Normalizer{
		cfg:       cfg,
		runner:    &execRunner{},
		mkdirAll:  os.MkdirAll,
		removeAll: os.RemoveAll,
		writeFile: os.WriteFile,
		readFile:  os.ReadFile,
	}
}

// OnCommand registers a callback invoked after every external command.
func (n *Normalizer) OnCommand(cb func(jobID string, log CommandLog)) {
	n.onCommand = cb
}

// Normalize converts input to the canonical container/codec. Temporary files
// are job-scoped and removed on every exit path, including timeout and
// cancellation.
func (n *Normalizer) Normalize(ctx context.Context, jobID string, input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, &domain.ConversionError{Cause: "audio payload is empty"}
	}

	workDir := filepath.Join(n.cfg.TempRoot, "job-"+jobID)
	if err := n.mkdirAll(workDir, 0o755); err != nil {
		return nil, &domain.ConversionError{
			Cause: "failed to create job workspace",
			Err:   err,
		}
	}
	defer func() {
		_ = n.removeAll(workDir)
	}()

	inPath := filepath.Join(workDir, "input")
	if err := n.writeFile(inPath, input, 0o600); err != nil {
		return nil, &domain.ConversionError{
			Cause: "failed to stage input payload",
			Err:   err,
		}
	}

	inputDuration, inputProbed := n.probeDuration(ctx, jobID, inPath)

	runCtx := ctx
	var cancel context.CancelFunc
	if n.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	outPath := filepath.Join(workDir, "normalized.ogg")
	args := buildFFmpegArgs(inPath, outPath)
	result, runErr := n.runner.Run(runCtx, n.cfg.FFmpegPath, args...)
	n.emitCommand(jobID, CommandLog{
		Command:  n.cfg.FFmpegPath,
		Args:     args,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	})
	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &domain.ConversionError{
				Cause: fmt.Sprintf("ffmpeg timed out after %s", n.cfg.Timeout),
				Err:   runErr,
			}
		}
		if errors.Is(runCtx.Err(), context.Canceled) {
			return nil, &domain.ConversionError{
				Cause: "conversion cancelled",
				Err:   runErr,
			}
		}
		return nil, &domain.ConversionError{
			Cause: fmt.Sprintf("ffmpeg exited with code %d: %s", result.ExitCode, firstLine(result.Stderr)),
			Err:   runErr,
		}
	}

	output, err := n.readFile(outPath)
	if err != nil {
		return nil, &domain.ConversionError{
			Cause: "ffmpeg completed but output file is missing",
			Err:   err,
		}
	}
	if len(output) == 0 {
		return nil, &domain.ConversionError{Cause: "ffmpeg produced an empty output file"}
	}

	if inputProbed && n.cfg.DurationTolerance > 0 {
		if outputDuration, ok := n.probeDuration(ctx, jobID, outPath); ok {
			drift := inputDuration - outputDuration
			if drift < 0 {
				drift = -drift
			}
			if drift > n.cfg.DurationTolerance {
				return nil, &domain.ConversionError{
					Cause: fmt.Sprintf(
						"duration drift %s exceeds tolerance %s",
						drift.Round(time.Millisecond), n.cfg.DurationTolerance,
					),
				}
			}
		}
	}

	return output, nil
}

// probeDuration measures media duration via ffprobe under the configured
// timeout. Probe failures are reported as not-ok rather than errors; streams
// without a known duration simply skip the drift check.
func (n *Normalizer) probeDuration(ctx context.Context, jobID, path string) (time.Duration, bool) {
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	args := buildFFprobeArgs(path)
	result, err := n.runner.Run(ctx, n.cfg.FFprobePath, args...)
	n.emitCommand(jobID, CommandLog{
		Command:  n.cfg.FFprobePath,
		Args:     args,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	})
	if err != nil {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(result.Stdout), 64)
	if err != nil || math.IsNaN(seconds) || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// emitCommand forwards command logs when a callback is configured.
func (n *Normalizer) emitCommand(jobID string, log CommandLog) {
	if n.onCommand != nil {
		n.onCommand(jobID, log)
	}
}

// buildFFmpegArgs builds conversion CLI args for mono 48k OGG/Opus output.
func buildFFmpegArgs(inPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inPath,
		"-vn",
		"-ac", "1",
		"-ar", "48000",
		"-c:a", "libopus",
		outPath,
	}
}

// buildFFprobeArgs builds duration probe args with bare numeric output.
func buildFFprobeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// firstLine trims process output to its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// NewNormalizerForTests constructs a normalizer with injectable dependencies.
func NewNormalizerForTests(
	cfg Config,
	runner commandRunner,
	mkdirAll func(string, os.FileMode) error,
	removeAll func(string) error,
) *Normalizer {
	return &Normalizer{
		cfg:       cfg,
		runner:    runner,
		mkdirAll:  mkdirAll,
		removeAll: removeAll,
		writeFile: os.WriteFile,
		readFile:  os.ReadFile,
	}
}
