package store

import "tendercomply/pkg/domain"

// Store defines persistence for the compliance pipeline. Audit entries are
// append-only; tender documents upsert on their (tender, path) identity.
type Store interface {
	// tender documents
	UpsertTenderDocument(doc domain.TenderDocument) error
	GetTenderDocument(tenderID, storagePath string) (domain.TenderDocument, bool, error)
	ListTenderDocuments(tenderID string) ([]domain.TenderDocument, error)

	// compliance requirements
	ReplaceRequirements(tenderID string, reqs []domain.ComplianceRequirement) error
	ListRequirements(tenderID string) ([]domain.ComplianceRequirement, error)

	// company compliance documents (written outside this core)
	ListCompanyDocuments(companyID string) ([]domain.ComplianceDocument, error)

	// audit
	AppendAuditLog(entry domain.AuditLogEntry) (domain.AuditLogEntry, error)
	ListAuditLogs(limit int) ([]domain.AuditLogEntry, error)

	// alerts
	InsertAlert(alert domain.Alert) (domain.Alert, error)
	ListAlertsForUser(userID string) ([]domain.Alert, error)

	// collaborator data, read-only
	GetTenderOwner(tenderID string) (string, bool, error)
	GetCompanyProfile(companyID string) (domain.CompanyProfile, bool, error)
}
