package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type TenderDocumentModel struct {
	ID            string `gorm:"primaryKey"`
	TenderID      string `gorm:"not null;index;uniqueIndex:idx_tender_doc_identity"`
	StoragePath   string `gorm:"not null;uniqueIndex:idx_tender_doc_identity"`
	FileName      string
	ExtractedText string         `gorm:"type:text"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	Category      string
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (TenderDocumentModel) TableName() string { return "tender_documents" }

type ComplianceRequirementModel struct {
	ID          string         `gorm:"primaryKey"`
	TenderID    string         `gorm:"not null;index"`
	Category    string         `gorm:"not null"`
	Target      datatypes.JSON `gorm:"type:jsonb"`
	Description string
	IsKiller    bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (ComplianceRequirementModel) TableName() string { return "compliance_requirements" }

type ComplianceDocumentModel struct {
	ID             string `gorm:"primaryKey"`
	CompanyID      string `gorm:"not null;index"`
	Category       string `gorm:"not null"`
	Status         string `gorm:"not null"`
	OverrideStatus string
	ExpiresAt      *time.Time
	Metadata       datatypes.JSON `gorm:"type:jsonb"`
}

func (ComplianceDocumentModel) TableName() string { return "compliance_documents" }

type AuditLogModel struct {
	ID         string `gorm:"primaryKey"`
	ActorID    *string
	TenderID   *string        `gorm:"index"`
	Action     string         `gorm:"not null"`
	Severity   string         `gorm:"not null"`
	Details    datatypes.JSON `gorm:"type:jsonb"`
	RemoteAddr *string
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

type AlertModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	TenderID  string    `gorm:"not null"`
	Priority  string    `gorm:"not null"`
	Message   string    `gorm:"not null"`
	Read      bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (AlertModel) TableName() string { return "alerts" }

// TenderModel and CompanyProfileModel mirror collaborator-owned tables.
// This core reads them and never migrates or writes them.
type TenderModel struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string
	Title     string
	CreatedAt time.Time
}

func (TenderModel) TableName() string { return "tenders" }

type CompanyProfileModel struct {
	CompanyID       string `gorm:"primaryKey"`
	ProfileComplete bool
}

func (CompanyProfileModel) TableName() string { return "company_profiles" }
