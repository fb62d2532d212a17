package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/form-filler/internal/config"
	"github.com/jonathan/form-filler/internal/extraction"
	"github.com/jonathan/form-filler/internal/llm"
	"github.com/jonathan/form-filler/internal/logging"
	"github.com/jonathan/form-filler/internal/reconcile"
	"github.com/jonathan/form-filler/internal/wizard"
)

// Settings shared by every command, filled in by loadSettings.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

// loadSettings reads the configuration and builds the logger.
func loadSettings(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	if logFormat != "" {
		loaded.LogFormat = logFormat
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel
	lc.Format = cfg.LogFormat
	lc.Output = cmd.ErrOrStderr()
	logger = logging.New(lc)
	return nil
}

// newService builds the extraction service from the configuration. The
// returned close function releases the model client. It is a variable so
// command tests can substitute a fake.
var newService = func(ctx context.Context, c *config.Config, log zerolog.Logger) (extraction.Service, func(), error) {
	if err := c.RequireAPIKey(); err != nil {
		return nil, nil, err
	}
	client, err := llm.NewClient(ctx, c.LLMConfig(), c.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var svc extraction.Service = extraction.NewGeminiService(client, extraction.GeminiConfig{
		Tier:    c.Tier(),
		Timeout: c.ExtractionTimeout,
	}, log)
	if c.LocalForms {
		svc = &extraction.Layered{
			Primary:  extraction.NewAcroFormService(log),
			Fallback: svc,
			Log:      log,
		}
	}
	return svc, func() { _ = client.Close() }, nil
}

// controllerFactory builds wizard controllers over svc with the configured
// matcher and steps.
func controllerFactory(c *config.Config, svc extraction.Service, log zerolog.Logger) (func() (*wizard.Controller, error), error) {
	matcher, err := c.Matcher()
	if err != nil {
		return nil, err
	}
	steps := c.WizardSteps()
	return func() (*wizard.Controller, error) {
		return wizard.New(svc, reconcile.NewSession(matcher, log), steps, log)
	}, nil
}
