package extraction

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/llm"
	"github.com/jonathan/form-filler/internal/prompts"
	"github.com/jonathan/form-filler/internal/types"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// DefaultConcurrency bounds parallel per-document facts calls.
const DefaultConcurrency = 4

// GeminiConfig configures the model adapter.
type GeminiConfig struct {
	Tier        llm.ModelTier
	Timeout     time.Duration
	Concurrency int
}

// GeminiService extracts fields and facts by sending documents inline to
// the model along with the prompt for the mode.
type GeminiService struct {
	client llm.Client
	cfg    GeminiConfig
	log    zerolog.Logger
}

// NewGeminiService creates a service backed by client.
func NewGeminiService(client llm.Client, cfg GeminiConfig, log zerolog.Logger) *GeminiService {
	if cfg.Tier == "" {
		cfg.Tier = llm.TierStandard
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &GeminiService{client: client, cfg: cfg, log: log.With().Str("component", "gemini").Logger()}
}

// Extract implements Service. Schema mode sends all documents in one call;
// facts mode calls once per document so each document is its own source.
func (s *GeminiService) Extract(ctx context.Context, mode Mode, docs []types.Document) Result {
	if len(docs) == 0 {
		return Failure(mode, errors.NewValidationError("files", "no documents to extract from"))
	}

	switch mode {
	case ModeSchema:
		return s.extractSchema(ctx, docs)
	case ModeFacts:
		return s.extractFacts(ctx, docs)
	default:
		return Failure(mode, errors.NewValidationError("mode", "unsupported extraction mode"))
	}
}

func (s *GeminiService) extractSchema(ctx context.Context, docs []types.Document) Result {
	set, err := prompts.Extraction()
	if err != nil {
		return Failure(ModeSchema, err)
	}
	prompt, err := set.Get(prompts.KeyAnalyzeForm)
	if err != nil {
		return Failure(ModeSchema, err)
	}

	text, err := s.generate(ctx, prompt, docs)
	if err != nil {
		return Failure(ModeSchema, errors.NewExtractionError(string(ModeSchema), "model call failed", err))
	}

	fields := DecodeSchema(text, s.log)
	s.log.Info().Int("fields", len(fields)).Int("documents", len(docs)).Msg("form analyzed")
	return Success(Payload{Fields: fields})
}

func (s *GeminiService) extractFacts(ctx context.Context, docs []types.Document) Result {
	set, err := prompts.Extraction()
	if err != nil {
		return Failure(ModeFacts, err)
	}
	keys := make([]string, len(types.KnownFactKeys))
	for i, k := range types.KnownFactKeys {
		keys[i] = string(k)
	}
	sources := sourceNames(docs)

	results := make([]types.SourceFacts, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			prompt, err := set.Render(prompts.KeyExtractFacts, map[string]string{
				"Keys":   strings.Join(keys, ", "),
				"Source": sources[i],
			})
			if err != nil {
				return err
			}

			text, err := s.generate(gctx, prompt, []types.Document{doc})
			if err != nil {
				return errors.NewExtractionError(string(ModeFacts), "model call failed for "+doc.Name, err)
			}

			results[i] = types.SourceFacts{Source: sources[i], Facts: DecodeFacts(text, s.log)}
			s.log.Debug().Str("source", sources[i]).Int("facts", len(results[i].Facts)).Msg("facts extracted")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Failure(ModeFacts, err)
	}
	return Success(Payload{Facts: results})
}

func (s *GeminiService) generate(ctx context.Context, prompt string, docs []types.Document) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	attachments := make([]llm.Attachment, len(docs))
	for i, d := range docs {
		attachments[i] = llm.Attachment{MIMEType: d.MIMEType, Data: d.Data}
	}

	start := time.Now()
	text, err := s.client.GenerateFromDocuments(ctx, prompt, attachments, s.cfg.Tier)
	s.log.Debug().
		Str("model", s.client.GetModel(s.cfg.Tier)).
		Dur("elapsed", time.Since(start)).
		Bool("ok", err == nil).
		Msg("model call")
	return text, err
}
