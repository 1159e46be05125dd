package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"media-normalizer/internal/domain"
)

// passingTargets points every check at real temp directories.
func passingTargets(t *testing.T) Targets {
	t.Helper()
	fontsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(fontsDir, "roboto.ttf"), []byte("stub"), 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	return Targets{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		FontsDir:    fontsDir,
		TempDir:     t.TempDir(),
	}
}

// TestCheckerAllPass verifies a fully healthy environment.
func TestCheckerAllPass(t *testing.T) {
	c := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.ReadDir,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := c.Run(passingTargets(t))
	if report.HasFailures {
		t.Fatalf("unexpected failures: %+v", report.Items)
	}
	if len(report.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(report.Items))
	}
	if report.GeneratedAt.IsZero() {
		t.Fatal("expected generated timestamp")
	}
}

// TestCheckerMissingTool verifies PATH lookups failing is reported.
func TestCheckerMissingTool(t *testing.T) {
	c := NewCheckerForTests(
		func(name string) (string, error) { return "", errors.New("not found") },
		os.ReadDir,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := c.Run(passingTargets(t))
	if !report.HasFailures {
		t.Fatal("expected failures for missing tools")
	}
	if report.Items[0].Status != domain.DiagnosticStatusFail {
		t.Fatalf("ffmpeg item status = %s, want fail", report.Items[0].Status)
	}
	if report.Items[0].Hint == "" {
		t.Fatal("expected remediation hint")
	}
}

// TestCheckerEmptyFontsDir verifies a fonts directory without fonts fails.
func TestCheckerEmptyFontsDir(t *testing.T) {
	targets := passingTargets(t)
	targets.FontsDir = t.TempDir()

	c := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.ReadDir,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := c.Run(targets)
	if !report.HasFailures {
		t.Fatal("expected failure for fonts directory without fonts")
	}
}

// TestCheckerUnwritableTempDir verifies write probes are honored.
func TestCheckerUnwritableTempDir(t *testing.T) {
	c := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.ReadDir,
		os.MkdirAll,
		func(dir, pattern string) (*os.File, error) { return nil, errors.New("read-only fs") },
		os.Remove,
	)

	report := c.Run(passingTargets(t))
	if !report.HasFailures {
		t.Fatal("expected failure for unwritable temp dir")
	}

	var tempItem domain.DiagnosticItem
	for _, item := range report.Items {
		if item.ID == "temp_dir" {
			tempItem = item
		}
	}
	if tempItem.Status != domain.DiagnosticStatusFail {
		t.Fatalf("temp_dir status = %s, want fail", tempItem.Status)
	}
}
