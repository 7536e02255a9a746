package app

import (
	"context"
	"strings"
	"time"

	"tendercomply/internal/util"
	"tendercomply/pkg/domain"
)

// AuditEvent is the recorder's input. Actor and tender are optional;
// system-level events carry neither.
type AuditEvent struct {
	ActorID    string
	TenderID   string
	Action     string
	Severity   domain.Severity
	Details    map[string]any
	RemoteAddr string
}

// AuditOutcome reports the append plus any downstream routing failure. A
// non-nil RoutingErr is a partial failure: the entry is durably recorded
// and the caller's request still succeeds.
type AuditOutcome struct {
	Entry      domain.AuditLogEntry
	RoutingErr error
}

// RecordAudit validates, durably appends, and routes one audit event. The
// append is authoritative: once it succeeds, no alert-routing failure rolls
// it back or fails the call. Routing errors surface only in the outcome.
func (a *App) RecordAudit(ctx context.Context, event AuditEvent) (AuditOutcome, error) {
	if strings.TrimSpace(event.Action) == "" {
		return AuditOutcome{}, validationError("action is required")
	}
	severity := event.Severity
	if severity == "" {
		severity = domain.SeverityInfo
	}
	if !domain.ValidSeverity(severity) {
		return AuditOutcome{}, validationError("unknown severity %q", event.Severity)
	}

	entry := domain.AuditLogEntry{
		ActorID:    event.ActorID,
		TenderID:   event.TenderID,
		Action:     event.Action,
		Severity:   severity,
		Details:    event.Details,
		RemoteAddr: event.RemoteAddr,
		CreatedAt:  time.Now().UTC(),
	}
	entry, err := a.store.AppendAuditLog(entry)
	if err != nil {
		return AuditOutcome{}, persistenceError(err)
	}

	outcome := AuditOutcome{Entry: entry}
	if err := a.route(ctx, entry); err != nil {
		util.LoggerFromContext(ctx).Warn("alert routing failed after audit append",
			"audit_id", entry.ID, "action", entry.Action, "severity", entry.Severity, "err", err)
		outcome.RoutingErr = routingError(err)
	}
	return outcome, nil
}
