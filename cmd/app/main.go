// Command app runs the media normalization service.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"media-normalizer/internal/bootstrap"
	"media-normalizer/internal/config"
	"media-normalizer/internal/domain"
)

const (
	serviceName    = "media-normalizer"
	serviceVersion = "1.0.0"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Normalizes inbound media artifacts to canonical formats",
	Long: "media-normalizer classifies inbound byte payloads, transcodes audio\n" +
		"to a canonical OGG/Opus container, and rasterizes text into PNG images.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the normalization HTTP service",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the service version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("%s %s\n", serviceName, serviceVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		return err
	}

	for _, item := range app.Diagnostics().Items {
		if item.Status == domain.DiagnosticStatusFail {
			logger.Warn("diagnostic check failed",
				slog.String("check", item.Name),
				slog.String("message", item.Message),
				slog.String("hint", item.Hint))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting service",
		slog.String("version", serviceVersion),
		slog.String("config", configPath))

	return app.Run(ctx)
}

// newLogger builds a slog logger from logging configuration.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
