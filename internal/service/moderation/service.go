package moderation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"reflectio/internal/apperr"
	"reflectio/internal/domain/entitlement"
	"reflectio/internal/domain/moderation"
	"reflectio/internal/events"
)

type Classifier interface {
	Classify(ctx context.Context, text string) (moderation.Verdict, error)
}

type EntitlementReader interface {
	Entitlement(ctx context.Context, userID string) (entitlement.Entitlement, error)
}

type Config struct {
	TrustedLevel int
	// LogDecisions turns off per-decision logging when false.
	LogDecisions bool
}

type Service struct {
	ents       EntitlementReader
	classifier Classifier
	events     events.Publisher
	cfg        Config
	now        func() time.Time
	log        *slog.Logger
}

func NewService(ents EntitlementReader, classifier Classifier, pub events.Publisher, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		ents:       ents,
		classifier: classifier,
		events:     pub,
		cfg:        cfg,
		now:        time.Now,
		log:        log.With("component", "moderation"),
	}
}

// ShouldModerateContent never errors. If the author's tier can't be
// resolved the content is moderated.
func (s *Service) ShouldModerateContent(ctx context.Context, in moderation.Input) moderation.Decision {
	ent, err := s.ents.Entitlement(ctx, in.UserID)
	if err != nil {
		s.log.WarnContext(ctx, "trust tier unavailable, moderating", "user_id", in.UserID, "error", err)
		return moderation.Mandatory(entitlement.TierStandard)
	}
	return moderation.Decide(in, entitlement.TierFor(ent, s.cfg.TrustedLevel))
}

// Moderate runs the decision and, when required, the classifier. A
// classifier failure is returned as an Upstream error and the content must
// not be published.
func (s *Service) Moderate(ctx context.Context, in moderation.Input) (moderation.Result, error) {
	d := s.ShouldModerateContent(ctx, in)
	s.LogModerationDecision(ctx, d, in)

	if !d.ShouldModerate {
		return moderation.BypassResult(d), nil
	}

	v, err := s.classifier.Classify(ctx, in.Content)
	if err != nil {
		s.log.ErrorContext(ctx, "classifier failed", "user_id", in.UserID, "content_type", in.ContentType, "error", err)
		return moderation.Result{}, apperr.Upstream("content moderation unavailable", err)
	}

	r := moderation.MergeVerdict(d, v)
	if r.Flagged {
		s.publishFlagged(ctx, in, r)
	}
	return r, nil
}

// LogModerationDecision records the decision for audit. It has no effect on
// the outcome.
func (s *Service) LogModerationDecision(ctx context.Context, d moderation.Decision, in moderation.Input) {
	if !s.cfg.LogDecisions {
		return
	}
	attrs := []any{
		"user_id", in.UserID,
		"content_type", in.ContentType,
		"should_moderate", d.ShouldModerate,
		"moderation_type", d.ModerationType,
		"user_type", d.UserType,
	}
	if d.BypassReason != "" {
		attrs = append(attrs, "bypass_reason", d.BypassReason)
	}
	for k, v := range in.Context {
		attrs = append(attrs, "ctx_"+k, v)
	}
	s.log.InfoContext(ctx, "moderation decision", attrs...)
}

func (s *Service) publishFlagged(ctx context.Context, in moderation.Input, r moderation.Result) {
	if s.events == nil {
		return
	}
	data := map[string]string{
		"content_type": string(in.ContentType),
		"severity":     string(r.Severity),
		"categories":   strings.Join(r.Categories, ","),
	}
	for k, v := range in.Context {
		data[k] = v
	}
	e := events.Event{
		Type:       events.TypeContentFlagged,
		Key:        in.UserID,
		OccurredAt: s.now(),
		Data:       data,
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WarnContext(ctx, "publish event failed", "type", e.Type, "error", err)
	}
}
