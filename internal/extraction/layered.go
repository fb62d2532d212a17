package extraction

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jonathan/form-filler/internal/types"
)

// Layered tries Primary first and falls back to Fallback when the primary
// fails or, in schema mode, finds no fields.
type Layered struct {
	Primary  Service
	Fallback Service
	Log      zerolog.Logger
}

// Extract implements Service.
func (l *Layered) Extract(ctx context.Context, mode Mode, docs []types.Document) Result {
	if l.Primary == nil {
		return l.Fallback.Extract(ctx, mode, docs)
	}

	res := l.Primary.Extract(ctx, mode, docs)
	if l.Fallback == nil || ctx.Err() != nil {
		return res
	}

	switch {
	case res.Failed():
		l.Log.Debug().Err(res.Err).Str("mode", string(mode)).Msg("primary extractor failed, using fallback")
	case mode == ModeSchema && len(res.Payload.Fields) == 0:
		l.Log.Debug().Msg("primary extractor found no fields, using fallback")
	default:
		return res
	}
	return l.Fallback.Extract(ctx, mode, docs)
}
