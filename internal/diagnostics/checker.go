// Package diagnostics validates external tools and required filesystem paths
// before the pipeline accepts work.
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"media-normalizer/internal/domain"
)

// Targets names everything the checker probes.
type Targets struct {
	FFmpegPath  string
	FFprobePath string
	FontsDir    string
	TempDir     string
}

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	readDir    func(string) ([]os.DirEntry, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		readDir:    os.ReadDir,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(targets Targets) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool(targets.FFmpegPath),
		c.checkTool(targets.FFprobePath),
		c.checkFontsDir(targets.FontsDir),
		c.checkTempDir(targets.TempDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required CLI executable is on PATH.
func (c *Checker) checkTool(name string) domain.DiagnosticItem {
	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_" + filepath.Base(name),
			Name:    name,
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install it and ensure the binary is available on PATH before submitting jobs.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + filepath.Base(name),
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkFontsDir validates the fonts directory holds at least one font file.
func (c *Checker) checkFontsDir(fontsDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "fonts_dir",
		Name: "Fonts directory",
	}

	if strings.TrimSpace(fontsDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Fonts directory is empty."
		item.Hint = "Configure a directory containing at least one .ttf or .otf font."
		return item
	}

	entries, err := c.readDir(fontsDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Fonts directory does not exist: %s", fontsDir)
		} else {
			item.Message = fmt.Sprintf("Cannot read fonts directory: %s", fontsDir)
		}
		item.Hint = "Place font files in the configured directory before starting the service."
		return item
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".ttf" || ext == ".otf" {
			item.Status = domain.DiagnosticStatusPass
			item.Message = fmt.Sprintf("Fonts directory is valid: %s", fontsDir)
			return item
		}
	}

	item.Status = domain.DiagnosticStatusFail
	item.Message = fmt.Sprintf("No font files found in directory: %s", fontsDir)
	item.Hint = "Place a .ttf or .otf font file in this directory."
	return item
}

// checkTempDir validates temp directory existence and write access.
func (c *Checker) checkTempDir(tempDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "temp_dir",
		Name: "Temporary directory",
	}

	if strings.TrimSpace(tempDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Temporary directory is empty."
		item.Hint = "Set a temporary directory for job-scoped conversion files."
		return item
	}

	if err := c.mkdirAll(tempDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create temporary directory: %s", tempDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(tempDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Temporary directory is not writable: %s", tempDir)
		item.Hint = "Choose a writable directory for conversion scratch space."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", tempDir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	readDir func(string) ([]os.DirEntry, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		readDir:    readDir,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
