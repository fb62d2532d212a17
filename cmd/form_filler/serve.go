package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/form-filler/internal/db"
	"github.com/jonathan/form-filler/internal/server"
	"github.com/jonathan/form-filler/internal/session"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes review sessions over REST. When
DATABASE_URL is set, session snapshots and completed answers are saved to
PostgreSQL.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if servePort != 0 {
		cfg.Port = servePort
	}

	svc, closeSvc, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	factory, err := controllerFactory(cfg, svc, logger)
	if err != nil {
		return err
	}

	var persister session.Persister
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		persister = database
		logger.Info().Msg("Session snapshots enabled")
	}

	store := session.NewStore(cfg.SessionTTL, factory, persister, logger)
	srv := server.New(server.Config{
		Port:        cfg.Port,
		RateLimit:   cfg.RateLimit,
		MaxBodySize: maxBodySize(cfg.MaxFileSize, maxStepFiles()),
	}, store, logger)

	return srv.Start(ctx)
}

// maxStepFiles is the largest file count of any configured upload step.
func maxStepFiles() int {
	n := 1
	for _, s := range cfg.WizardSteps() {
		n = max(n, s.MaxFiles)
	}
	return n
}

// maxBodySize leaves room for multipart framing on top of the file payload.
func maxBodySize(perFile int64, files int) int64 {
	return perFile*int64(files) + 1<<20
}
