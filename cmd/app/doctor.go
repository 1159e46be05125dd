package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"media-normalizer/internal/config"
	"media-normalizer/internal/diagnostics"
	"media-normalizer/internal/domain"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check external tools and paths the service depends on",
	Long: "Probes ffmpeg, ffprobe, the fonts directory, and the temp workspace\n" +
		"using the same configuration the serve command would load.",
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(diagnostics.Targets{
		FFmpegPath:  cfg.Pipeline.FFmpegPath,
		FFprobePath: cfg.Pipeline.FFprobePath,
		FontsDir:    cfg.Render.FontsDir,
		TempDir:     cfg.Pipeline.TempDir,
	})

	for _, item := range report.Items {
		mark := "ok"
		if item.Status == domain.DiagnosticStatusFail {
			mark = "FAIL"
		}
		cmd.Printf("[%s] %s: %s\n", mark, item.Name, item.Message)
		if item.Hint != "" && item.Status == domain.DiagnosticStatusFail {
			cmd.Printf("       hint: %s\n", item.Hint)
		}
	}

	if report.HasFailures {
		return fmt.Errorf("one or more checks failed")
	}

	cmd.Println("all checks passed")
	return nil
}
