package domain

import "time"

// Severity classifies an audit event.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// ValidSeverity reports whether s is one of the known severities.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityWarn, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// Tier is the coarse readiness classification for a tender.
type Tier string

const (
	TierRed   Tier = "RED"
	TierAmber Tier = "AMBER"
	TierGreen Tier = "GREEN"
)

// AlertPriority ranks a user-facing alert.
type AlertPriority string

const (
	PriorityHigh   AlertPriority = "HIGH"
	PriorityMedium AlertPriority = "MEDIUM"
)

// DocumentStatus is the lifecycle state of a company compliance document.
type DocumentStatus string

const (
	DocumentValid    DocumentStatus = "valid"
	DocumentExpiring DocumentStatus = "expiring"
	DocumentExpired  DocumentStatus = "expired"
)

// Requirement categories derived from tender documents.
const (
	CategoryCertificationGrade = "certification_grade"
	CategoryMandatoryDocument  = "mandatory_document"
	CategoryCompanyProfile     = "company_profile"
)

// TenderDocument is one uploaded file bound to a tender. Identity is the
// (TenderID, StoragePath) pair; writes to that identity are upserts.
type TenderDocument struct {
	TenderID      string            `json:"tenderId"`
	StoragePath   string            `json:"storagePath"`
	FileName      string            `json:"fileName"`
	ExtractedText string            `json:"extractedText,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Category      string            `json:"category,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// ComplianceRequirement is one rule derived for a tender. Veto rules
// disqualify a bid on failure regardless of aggregate score.
type ComplianceRequirement struct {
	ID          string         `json:"id"`
	TenderID    string         `json:"tenderId"`
	Category    string         `json:"category"`
	Target      map[string]any `json:"target,omitempty"`
	Description string         `json:"description"`
	Veto        bool           `json:"isKiller"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ComplianceDocument is held by a company and consumed read-only by the
// scorer. StoredStatus is advisory; effective status is recomputed from
// ExpiresAt at read time unless OverrideStatus is set.
type ComplianceDocument struct {
	ID             string            `json:"id"`
	CompanyID      string            `json:"companyId"`
	Category       string            `json:"category"`
	StoredStatus   DocumentStatus    `json:"status"`
	OverrideStatus DocumentStatus    `json:"overrideStatus,omitempty"`
	ExpiresAt      *time.Time        `json:"expiresAt,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ReadinessResult is a pure function of a tender's requirement set and a
// company's document set. It is recomputed on demand, never persisted.
type ReadinessResult struct {
	TenderID     string   `json:"tenderId"`
	CompanyID    string   `json:"companyId"`
	Score        int      `json:"score"`
	Tier         Tier     `json:"tier"`
	VetoFailed   bool     `json:"vetoFailed"`
	Unmet        []string `json:"unmet,omitempty"`
	ExpiringSoon []string `json:"expiringSoon,omitempty"`
}

// AuditLogEntry is an immutable record of a significant action.
type AuditLogEntry struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId,omitempty"`
	TenderID   string         `json:"tenderId,omitempty"`
	Action     string         `json:"action"`
	Severity   Severity       `json:"severity"`
	Details    map[string]any `json:"details,omitempty"`
	RemoteAddr string         `json:"remoteAddr,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Alert is a user-facing notification derived from an audit event.
type Alert struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	TenderID  string        `json:"tenderId"`
	Priority  AlertPriority `json:"priority"`
	Message   string        `json:"message"`
	Read      bool          `json:"read"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Tender is collaborator-owned data; this core only resolves the owner.
type Tender struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// CompanyProfile carries the completeness flags maintained by the
// profile surface outside this core.
type CompanyProfile struct {
	CompanyID       string `json:"companyId"`
	ProfileComplete bool   `json:"profileComplete"`
}
