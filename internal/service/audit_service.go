package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"movie-watchlist/internal/model"
	"movie-watchlist/internal/repository"
	"movie-watchlist/pkg/apierror"
)

const (
	auditStatusSuccess = "success"
	auditStatusFailed  = "failed"
)

// AuditService emits every audited outcome as a structured log record and keeps
// a queryable copy in the database. Persisting is best effort: a failed write is
// logged and never fails the audited operation.
type AuditService struct {
	repo   repository.AuditStore
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditService(repo repository.AuditStore, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{repo: repo, logger: logger, now: time.Now}
}

func (s *AuditService) Log(ctx context.Context, action string, actor model.AuditActor, status string, resource string, after any, errText string) {
	if s == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: s.now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		After:      after,
		Error:      errText,
	}

	level := slog.LevelInfo
	if status != auditStatusSuccess {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "audit",
		slog.String("action", action),
		slog.String("status", status),
		slog.String("resource", resource),
		slog.Int64("actor_id", actor.UserID),
		slog.String("actor_role", actor.Role),
		slog.String("actor_ip", actor.IP),
		slog.String("error", errText),
	)

	if s.repo == nil {
		return
	}
	// The request context may already be cancelled when a failure is recorded.
	if err := s.repo.Log(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("failed to persist audit entry", "action", action, "error", err)
	}
}

// Outcome records a success when err is nil and a failure carrying err otherwise.
func (s *AuditService) Outcome(ctx context.Context, action string, actor model.AuditActor, resource string, after any, err error) {
	if err != nil {
		s.Log(ctx, action, actor, auditStatusFailed, resource, nil, err.Error())
		return
	}
	s.Log(ctx, action, actor, auditStatusSuccess, resource, after, "")
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if _, err := parseOptionalAuditTime(query.From); err != nil {
		return nil, model.Meta{}, apierror.InvalidInput("invalid 'from' datetime format", query.From).Wrap(model.ErrInvalidInput)
	}
	if _, err := parseOptionalAuditTime(query.To); err != nil {
		return nil, model.Meta{}, apierror.InvalidInput("invalid 'to' datetime format", query.To).Wrap(model.ErrInvalidInput)
	}
	if actorID := strings.TrimSpace(query.ActorID); actorID != "" {
		if _, err := strconv.ParseInt(actorID, 10, 64); err != nil {
			return nil, model.Meta{}, apierror.InvalidInput("actor_id must be numeric", actorID).Wrap(model.ErrInvalidInput)
		}
	}

	return s.repo.Query(ctx, query)
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	if value, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return value.UTC(), nil
}
