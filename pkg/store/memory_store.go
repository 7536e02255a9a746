package store

import (
	"fmt"
	"sync"
	"time"

	"tendercomply/pkg/domain"
)

// MemoryStore keeps pipeline state in-process. It backs tests and local
// runs without Postgres, honoring the same upsert and append semantics as
// the GORM store.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]domain.TenderDocument // key: tenderID + "\x00" + storagePath
	docOrder  []string
	reqs      map[string][]domain.ComplianceRequirement // key: tenderID
	companies map[string][]domain.ComplianceDocument    // key: companyID
	audit     []domain.AuditLogEntry
	alerts    map[string][]domain.Alert // key: userID
	owners    map[string]string         // tenderID -> ownerID
	profiles  map[string]domain.CompanyProfile
	seq       int
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]domain.TenderDocument),
		reqs:      make(map[string][]domain.ComplianceRequirement),
		companies: make(map[string][]domain.ComplianceDocument),
		alerts:    make(map[string][]domain.Alert),
		owners:    make(map[string]string),
		profiles:  make(map[string]domain.CompanyProfile),
	}
}

func docKey(tenderID, storagePath string) string {
	return tenderID + "\x00" + storagePath
}

// UpsertTenderDocument creates or replaces the row at its identity.
func (m *MemoryStore) UpsertTenderDocument(doc domain.TenderDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := docKey(doc.TenderID, doc.StoragePath)
	if existing, ok := m.docs[key]; ok {
		doc.CreatedAt = existing.CreatedAt
	} else {
		m.docOrder = append(m.docOrder, key)
	}
	m.docs[key] = doc
	return nil
}

// GetTenderDocument retrieves the document at the given identity.
func (m *MemoryStore) GetTenderDocument(tenderID, storagePath string) (domain.TenderDocument, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[docKey(tenderID, storagePath)]
	return doc, ok, nil
}

// ListTenderDocuments returns the tender's documents in insertion order.
func (m *MemoryStore) ListTenderDocuments(tenderID string) ([]domain.TenderDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.TenderDocument, 0)
	for _, key := range m.docOrder {
		if doc, ok := m.docs[key]; ok && doc.TenderID == tenderID {
			res = append(res, doc)
		}
	}
	return res, nil
}

// ReplaceRequirements swaps the tender's full rule set.
func (m *MemoryStore) ReplaceRequirements(tenderID string, reqs []domain.ComplianceRequirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]domain.ComplianceRequirement, len(reqs))
	copy(copied, reqs)
	for i := range copied {
		if copied[i].ID == "" {
			m.seq++
			copied[i].ID = fmt.Sprintf("req-%d", m.seq)
		}
	}
	m.reqs[tenderID] = copied
	return nil
}

// ListRequirements returns the tender's rule set.
func (m *MemoryStore) ListRequirements(tenderID string) ([]domain.ComplianceRequirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ComplianceRequirement, len(m.reqs[tenderID]))
	copy(res, m.reqs[tenderID])
	return res, nil
}

// SeedCompanyDocuments installs compliance documents for a company.
func (m *MemoryStore) SeedCompanyDocuments(companyID string, docs []domain.ComplianceDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[companyID] = docs
}

// ListCompanyDocuments returns the company's compliance documents.
func (m *MemoryStore) ListCompanyDocuments(companyID string) ([]domain.ComplianceDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ComplianceDocument, len(m.companies[companyID]))
	copy(res, m.companies[companyID])
	return res, nil
}

// AppendAuditLog appends one immutable entry.
func (m *MemoryStore) AppendAuditLog(entry domain.AuditLogEntry) (domain.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		m.seq++
		entry.ID = fmt.Sprintf("audit-%d", m.seq)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.audit = append(m.audit, entry)
	return entry, nil
}

// ListAuditLogs returns the newest entries first.
func (m *MemoryStore) ListAuditLogs(limit int) ([]domain.AuditLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.audit) {
		limit = len(m.audit)
	}
	res := make([]domain.AuditLogEntry, 0, limit)
	for i := len(m.audit) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, m.audit[i])
	}
	return res, nil
}

// InsertAlert stores a new alert.
func (m *MemoryStore) InsertAlert(alert domain.Alert) (domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if alert.ID == "" {
		m.seq++
		alert.ID = fmt.Sprintf("alert-%d", m.seq)
	}
	m.alerts[alert.UserID] = append(m.alerts[alert.UserID], alert)
	return alert, nil
}

// ListAlertsForUser returns the user's alerts.
func (m *MemoryStore) ListAlertsForUser(userID string) ([]domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Alert, len(m.alerts[userID]))
	copy(res, m.alerts[userID])
	return res, nil
}

// SeedTenderOwner binds a tender to its owning user.
func (m *MemoryStore) SeedTenderOwner(tenderID, ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[tenderID] = ownerID
}

// GetTenderOwner resolves the owning user of a tender.
func (m *MemoryStore) GetTenderOwner(tenderID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.owners[tenderID]
	return owner, ok && owner != "", nil
}

// SeedCompanyProfile installs collaborator profile flags.
func (m *MemoryStore) SeedCompanyProfile(profile domain.CompanyProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.CompanyID] = profile
}

// GetCompanyProfile returns the collaborator-maintained profile flags.
func (m *MemoryStore) GetCompanyProfile(companyID string) (domain.CompanyProfile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[companyID]
	return profile, ok, nil
}
