package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"tendercomply/pkg/domain"
)

const migrateLockID int64 = 84218421

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations for the tables this
// core owns. Collaborator tables (tenders, company_profiles) are read but
// never migrated here.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&TenderDocumentModel{},
			&ComplianceRequirementModel{},
			&ComplianceDocumentModel{},
			&AuditLogModel{},
			&AlertModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// UpsertTenderDocument creates or overwrites the row identified by
// (tender_id, storage_path). Re-ingesting the same file converges to a
// single row reflecting the last write.
func (s *GormStore) UpsertTenderDocument(doc domain.TenderDocument) error {
	model, err := tenderDocumentToModel(doc)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tender_id"}, {Name: "storage_path"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_name", "extracted_text", "metadata", "category", "updated_at"}),
	}).Create(&model).Error
}

// GetTenderDocument retrieves the document at the given identity.
func (s *GormStore) GetTenderDocument(tenderID, storagePath string) (domain.TenderDocument, bool, error) {
	var model TenderDocumentModel
	err := s.db.Where("tender_id = ? AND storage_path = ?", tenderID, storagePath).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.TenderDocument{}, false, nil
		}
		return domain.TenderDocument{}, false, err
	}
	doc, err := tenderDocumentFromModel(model)
	if err != nil {
		return domain.TenderDocument{}, false, err
	}
	return doc, true, nil
}

// ListTenderDocuments returns a tender's documents ordered by creation.
func (s *GormStore) ListTenderDocuments(tenderID string) ([]domain.TenderDocument, error) {
	var models []TenderDocumentModel
	if err := s.db.Where("tender_id = ?", tenderID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.TenderDocument, 0, len(models))
	for _, m := range models {
		doc, err := tenderDocumentFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, doc)
	}
	return res, nil
}

// ReplaceRequirements swaps the tender's full rule set in one transaction.
// Re-extraction never partially patches an existing set.
func (s *GormStore) ReplaceRequirements(tenderID string, reqs []domain.ComplianceRequirement) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tender_id = ?", tenderID).Delete(&ComplianceRequirementModel{}).Error; err != nil {
			return err
		}
		for _, req := range reqs {
			model, err := requirementToModel(req)
			if err != nil {
				return err
			}
			if model.ID == "" {
				model.ID = uuid.NewString()
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRequirements returns a tender's rule set.
func (s *GormStore) ListRequirements(tenderID string) ([]domain.ComplianceRequirement, error) {
	var models []ComplianceRequirementModel
	if err := s.db.Where("tender_id = ?", tenderID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ComplianceRequirement, 0, len(models))
	for _, m := range models {
		req, err := requirementFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, req)
	}
	return res, nil
}

// ListCompanyDocuments returns the company's compliance documents.
func (s *GormStore) ListCompanyDocuments(companyID string) ([]domain.ComplianceDocument, error) {
	var models []ComplianceDocumentModel
	if err := s.db.Where("company_id = ?", companyID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ComplianceDocument, 0, len(models))
	for _, m := range models {
		doc, err := complianceDocumentFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, doc)
	}
	return res, nil
}

// AppendAuditLog durably appends one entry and returns it with its ID set.
func (s *GormStore) AppendAuditLog(entry domain.AuditLogEntry) (domain.AuditLogEntry, error) {
	model, err := auditLogToModel(entry)
	if err != nil {
		return domain.AuditLogEntry{}, err
	}
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.AuditLogEntry{}, err
	}
	entry.ID = model.ID
	return entry, nil
}

// ListAuditLogs returns the newest entries first.
func (s *GormStore) ListAuditLogs(limit int) ([]domain.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []AuditLogModel
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.AuditLogEntry, 0, len(models))
	for _, m := range models {
		entry, err := auditLogFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, entry)
	}
	return res, nil
}

// InsertAlert stores a new unread alert.
func (s *GormStore) InsertAlert(alert domain.Alert) (domain.Alert, error) {
	model := alertToModel(alert)
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Alert{}, err
	}
	alert.ID = model.ID
	return alert, nil
}

// ListAlertsForUser returns the user's alerts, newest first.
func (s *GormStore) ListAlertsForUser(userID string) ([]domain.Alert, error) {
	var models []AlertModel
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Alert, 0, len(models))
	for _, m := range models {
		res = append(res, alertFromModel(m))
	}
	return res, nil
}

// GetTenderOwner resolves the owning user of a tender.
func (s *GormStore) GetTenderOwner(tenderID string) (string, bool, error) {
	var model TenderModel
	if err := s.db.First(&model, "id = ?", tenderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return model.OwnerID, model.OwnerID != "", nil
}

// GetCompanyProfile returns the collaborator-maintained profile flags.
func (s *GormStore) GetCompanyProfile(companyID string) (domain.CompanyProfile, bool, error) {
	var model CompanyProfileModel
	if err := s.db.First(&model, "company_id = ?", companyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.CompanyProfile{}, false, nil
		}
		return domain.CompanyProfile{}, false, err
	}
	return domain.CompanyProfile{CompanyID: model.CompanyID, ProfileComplete: model.ProfileComplete}, true, nil
}

func tenderDocumentToModel(doc domain.TenderDocument) (TenderDocumentModel, error) {
	meta, err := toJSON(doc.Metadata)
	if err != nil {
		return TenderDocumentModel{}, err
	}
	return TenderDocumentModel{
		ID:            uuid.NewString(),
		TenderID:      doc.TenderID,
		StoragePath:   doc.StoragePath,
		FileName:      doc.FileName,
		ExtractedText: doc.ExtractedText,
		Metadata:      meta,
		Category:      doc.Category,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

func tenderDocumentFromModel(m TenderDocumentModel) (domain.TenderDocument, error) {
	var meta map[string]string
	if err := fromJSON(m.Metadata, &meta); err != nil {
		return domain.TenderDocument{}, err
	}
	return domain.TenderDocument{
		TenderID:      m.TenderID,
		StoragePath:   m.StoragePath,
		FileName:      m.FileName,
		ExtractedText: m.ExtractedText,
		Metadata:      meta,
		Category:      m.Category,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

func requirementToModel(req domain.ComplianceRequirement) (ComplianceRequirementModel, error) {
	target, err := toJSON(req.Target)
	if err != nil {
		return ComplianceRequirementModel{}, err
	}
	return ComplianceRequirementModel{
		ID:          req.ID,
		TenderID:    req.TenderID,
		Category:    req.Category,
		Target:      target,
		Description: req.Description,
		IsKiller:    req.Veto,
		CreatedAt:   req.CreatedAt,
	}, nil
}

func requirementFromModel(m ComplianceRequirementModel) (domain.ComplianceRequirement, error) {
	var target map[string]any
	if err := fromJSON(m.Target, &target); err != nil {
		return domain.ComplianceRequirement{}, err
	}
	return domain.ComplianceRequirement{
		ID:          m.ID,
		TenderID:    m.TenderID,
		Category:    m.Category,
		Target:      target,
		Description: m.Description,
		Veto:        m.IsKiller,
		CreatedAt:   m.CreatedAt,
	}, nil
}

func complianceDocumentFromModel(m ComplianceDocumentModel) (domain.ComplianceDocument, error) {
	var meta map[string]string
	if err := fromJSON(m.Metadata, &meta); err != nil {
		return domain.ComplianceDocument{}, err
	}
	return domain.ComplianceDocument{
		ID:             m.ID,
		CompanyID:      m.CompanyID,
		Category:       m.Category,
		StoredStatus:   domain.DocumentStatus(m.Status),
		OverrideStatus: domain.DocumentStatus(m.OverrideStatus),
		ExpiresAt:      m.ExpiresAt,
		Metadata:       meta,
	}, nil
}

func auditLogToModel(entry domain.AuditLogEntry) (AuditLogModel, error) {
	details, err := toJSON(entry.Details)
	if err != nil {
		return AuditLogModel{}, err
	}
	return AuditLogModel{
		ID:         entry.ID,
		ActorID:    nullable(entry.ActorID),
		TenderID:   nullable(entry.TenderID),
		Action:     entry.Action,
		Severity:   string(entry.Severity),
		Details:    details,
		RemoteAddr: nullable(entry.RemoteAddr),
		CreatedAt:  entry.CreatedAt,
	}, nil
}

func auditLogFromModel(m AuditLogModel) (domain.AuditLogEntry, error) {
	var details map[string]any
	if err := fromJSON(m.Details, &details); err != nil {
		return domain.AuditLogEntry{}, err
	}
	return domain.AuditLogEntry{
		ID:         m.ID,
		ActorID:    deref(m.ActorID),
		TenderID:   deref(m.TenderID),
		Action:     m.Action,
		Severity:   domain.Severity(m.Severity),
		Details:    details,
		RemoteAddr: deref(m.RemoteAddr),
		CreatedAt:  m.CreatedAt,
	}, nil
}

func alertToModel(a domain.Alert) AlertModel {
	return AlertModel{
		ID:        a.ID,
		UserID:    a.UserID,
		TenderID:  a.TenderID,
		Priority:  string(a.Priority),
		Message:   a.Message,
		Read:      a.Read,
		CreatedAt: a.CreatedAt,
	}
}

func alertFromModel(m AlertModel) domain.Alert {
	return domain.Alert{
		ID:        m.ID,
		UserID:    m.UserID,
		TenderID:  m.TenderID,
		Priority:  domain.AlertPriority(m.Priority),
		Message:   m.Message,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return datatypes.JSON(data), nil
}

func fromJSON(data datatypes.JSON, out any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
