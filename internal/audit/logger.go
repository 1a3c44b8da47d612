// Package audit records security events for accounts: login outcomes,
// refresh-token reuse detections, logouts, and password changes. Repeated
// ActionTokenReuse events for one account are the operator's theft signal.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	otellog "go.opentelemetry.io/otel/log"

	"vidtube/backend/internal/audit/domain"
	auditrepo "vidtube/backend/internal/audit/repository"
)

// Actions recorded by the auth service.
const (
	ActionRegister              = "register"
	ActionLoginSuccess          = "login_success"
	ActionLoginFailure          = "login_failure"
	ActionTokenReuse            = "token_reuse_detected"
	ActionLogout                = "logout"
	ActionPasswordChange        = "password_change"
	ActionPasswordChangeFailure = "password_change_failure"
)

// IPExtractor returns the client IP from the request context (set by the HTTP
// layer before the service is invoked).
type IPExtractor func(context.Context) string

// Recorder writes a single security event. LogEvent is best-effort: failures
// are logged and do not affect the caller.
type Recorder interface {
	LogEvent(ctx context.Context, accountID, action, metadata string)
}

// Logger implements Recorder using the event repository, an optional IP
// extractor, and an optional OpenTelemetry log emitter.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	otel        otellog.Logger
}

// NewLogger returns a Recorder that persists to repo. ipExtractor may be nil;
// then IP is recorded as "unknown". provider may be nil; then events are not
// mirrored to OpenTelemetry logs.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, provider otellog.LoggerProvider) *Logger {
	l := &Logger{repo: repo, ipExtractor: ipExtractor}
	if provider != nil {
		l.otel = provider.Logger("vidtube/backend/internal/audit")
	}
	return l
}

// LogEvent writes one security event. Best-effort: errors are logged and not
// returned.
func (l *Logger) LogEvent(ctx context.Context, accountID, action, metadata string) {
	ip := "unknown"
	if l.ipExtractor != nil {
		if got := l.ipExtractor(ctx); got != "" {
			ip = got
		}
	}
	now := time.Now().UTC()
	if l.otel != nil {
		var rec otellog.Record
		rec.SetTimestamp(now)
		rec.SetSeverity(otellog.SeverityInfo)
		rec.SetBody(otellog.StringValue(action))
		rec.AddAttributes(
			otellog.String("account_id", accountID),
			otellog.String("ip", ip),
			otellog.String("metadata", metadata),
		)
		l.otel.Emit(ctx, rec)
	}
	if l.repo == nil {
		return
	}
	event := &domain.SecurityEvent{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Action:    action,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err := l.repo.Create(ctx, event); err != nil {
		log.Printf("audit: failed to record %s: %v", action, err)
	}
}
