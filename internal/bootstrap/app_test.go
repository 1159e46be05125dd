package bootstrap

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"media-normalizer/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	fontsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(fontsDir, "goregular.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font fixture: %v", err)
	}

	cfg := config.Default()
	cfg.Render.FontsDir = fontsDir
	cfg.Pipeline.TempDir = t.TempDir()
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWiresComponents(t *testing.T) {
	app, err := New(testConfig(t), discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.Coordinator == nil {
		t.Fatal("coordinator not wired")
	}
	if app.Registry == nil || app.Events == nil {
		t.Fatal("job registry or event bus not wired")
	}
	if len(app.Diagnostics().Items) != 4 {
		t.Fatalf("diagnostics items = %d, want 4", len(app.Diagnostics().Items))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 0

	if _, err := New(cfg, discardLogger()); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestNewRequiresFonts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.FontsDir = t.TempDir()

	if _, err := New(cfg, discardLogger()); err == nil {
		t.Fatal("expected error for empty fonts directory")
	}
}

func TestRefreshDiagnosticsConcurrent(t *testing.T) {
	app, err := New(testConfig(t), discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				report := app.RefreshDiagnostics()
				if len(report.Items) != 4 {
					t.Errorf("diagnostics items = %d, want 4", len(report.Items))
					return
				}
				if len(app.Diagnostics().Items) != 4 {
					t.Error("stored report lost items")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRefreshDiagnostics(t *testing.T) {
	app, err := New(testConfig(t), discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	report := app.RefreshDiagnostics()
	if len(report.Items) != 4 {
		t.Fatalf("diagnostics items = %d, want 4", len(report.Items))
	}
	if report.GeneratedAt.IsZero() {
		t.Fatal("report missing timestamp")
	}
}
