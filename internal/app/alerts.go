package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"tendercomply/internal/util"
	"tendercomply/pkg/domain"
	"tendercomply/pkg/notify"
)

// alertPriority is the severity routing table. It answers, for one event
// severity, whether to create a user alert and whether to page operators.
// Keeping it a pure function keeps the routing independently testable.
func alertPriority(severity domain.Severity) (priority domain.AlertPriority, userAlert bool, page bool) {
	switch severity {
	case domain.SeverityWarn:
		return domain.PriorityMedium, true, false
	case domain.SeverityError:
		return domain.PriorityHigh, true, false
	case domain.SeverityCritical:
		return domain.PriorityHigh, true, true
	default:
		return "", false, false
	}
}

// route fans one recorded audit entry out to user alerts and operator
// paging. Each entry routes exactly once; failed deliveries are reported
// to the recorder, never retried here.
func (a *App) route(ctx context.Context, entry domain.AuditLogEntry) error {
	priority, userAlert, page := alertPriority(entry.Severity)
	if !userAlert && !page {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if userAlert {
		group.Go(func() error {
			a.createUserAlert(groupCtx, entry, priority)
			return nil
		})
	}
	if page {
		group.Go(func() error {
			return a.pageOperators(groupCtx, entry)
		})
	}
	return group.Wait()
}

// createUserAlert notifies the tender's owner. An event without a tender
// has no owner to notify — an accepted gap. An unresolvable tender or
// owner is logged and treated as a no-op, never an escalation failure.
func (a *App) createUserAlert(ctx context.Context, entry domain.AuditLogEntry, priority domain.AlertPriority) {
	logger := util.LoggerFromContext(ctx)
	if entry.TenderID == "" {
		return
	}
	ownerID, found, err := a.store.GetTenderOwner(entry.TenderID)
	if err != nil || !found {
		logger.Info("no resolvable owner for alert, skipping",
			"tender_id", entry.TenderID, "action", entry.Action, "err", err)
		return
	}
	alert := domain.Alert{
		UserID:    ownerID,
		TenderID:  entry.TenderID,
		Priority:  priority,
		Message:   fmt.Sprintf("Attention required on tender %s: %s", entry.TenderID, entry.Action),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := a.store.InsertAlert(alert); err != nil {
		logger.Warn("alert insert failed",
			"tender_id", entry.TenderID, "user_id", ownerID, "err", err)
	}
}

// pageOperators drives the system-level side channel for CRITICAL events.
// Best-effort: a failure is logged distinctly so operational gaps stay
// visible, and is reported upward as a routing error only.
func (a *App) pageOperators(ctx context.Context, entry domain.AuditLogEntry) error {
	logger := util.LoggerFromContext(ctx)
	if a.pager == nil {
		logger.Warn("no operator pager configured for critical event",
			"audit_id", entry.ID, "action", entry.Action)
		return nil
	}
	err := a.pager.Notify(ctx, notify.Page{
		Action:   entry.Action,
		TenderID: entry.TenderID,
		Severity: string(entry.Severity),
		Message:  fmt.Sprintf("Critical event %s recorded (audit %s)", entry.Action, entry.ID),
	})
	if err != nil {
		logger.Error("operator paging failed",
			"audit_id", entry.ID, "action", entry.Action, "err", err)
		return fmt.Errorf("page operators: %w", err)
	}
	return nil
}
