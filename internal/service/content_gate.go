package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/cursada/planner-api/pkg/errors"
	"github.com/cursada/planner-api/pkg/moderation"
	"github.com/cursada/planner-api/pkg/profanity"
)

// ContentGate screens user-authored text before it is stored. The local
// profanity filter always runs first; the external moderator only sees text
// that passed it. Moderator failures let the text through.
type ContentGate struct {
	filter    *profanity.Filter
	moderator moderation.Moderator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewContentGate builds a gate. A nil moderator approves everything.
func NewContentGate(filter *profanity.Filter, moderator moderation.Moderator, metrics *MetricsService, logger *zap.Logger) *ContentGate {
	if filter == nil {
		filter = profanity.New()
	}
	if moderator == nil {
		moderator = moderation.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentGate{filter: filter, moderator: moderator, metrics: metrics, logger: logger}
}

// Check returns a validation error when text is rejected.
func (g *ContentGate) Check(ctx context.Context, text, author string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if term, hit := g.filter.Match(text); hit {
		g.metrics.RecordModeration("profanity")
		g.logger.Info("content rejected by profanity filter", zap.String("author", author), zap.String("term", term))
		return appErrors.Clone(appErrors.ErrValidation, "el texto contiene lenguaje inapropiado")
	}

	verdict, err := g.moderator.Review(ctx, text, author)
	if err != nil {
		g.metrics.RecordModeration("fail_open")
		g.logger.Warn("moderation unavailable, accepting content", zap.String("author", author), zap.Error(err))
		return nil
	}
	if !verdict.Approved {
		g.metrics.RecordModeration("rejected")
		reason := verdict.Reason
		if reason == "" {
			reason = "el contenido no cumple las normas de la comunidad"
		}
		return appErrors.Clone(appErrors.ErrValidation, reason)
	}
	g.metrics.RecordModeration("approved")
	return nil
}
