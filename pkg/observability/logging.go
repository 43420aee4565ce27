package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/cardflow/pkg/domain"
)

// LoggingHooks logs every editor hint at debug level.
func LoggingHooks(logger *slog.Logger) domain.EditorHooks {
	return domain.EditorHooks{
		OnMarkChanged: func(ctx context.Context, e *domain.ChangeEvent) {
			logger.DebugContext(ctx, "mark_changed",
				"flow", e.FlowID,
				"card_id", e.CardID,
				"field", e.Field,
			)
		},
		OnLoadNode: func(ctx context.Context, e *domain.LoadNodeEvent) {
			logger.DebugContext(ctx, "load_node",
				"flow", e.FlowID,
				"card_id", e.CardID,
				"type", e.Definition.Type(),
			)
		},
	}
}
