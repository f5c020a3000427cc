package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
)

// AuditService writes append-only audit entries. Callers that mutate an
// entity inside a transaction use LogTx with the same transaction handle so
// the mutation and its audit entry commit or roll back together.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry outside any caller transaction
func (s *AuditService) Log(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// LogTx records an audit entry within the caller's transaction
func (s *AuditService) LogTx(tx *gorm.DB, entry *models.AuditLog) error {
	return tx.Create(entry).Error
}

// List retrieves audit entries for an agency, newest first
func (s *AuditService) List(ctx context.Context, agencyID uint, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("agency_id = ?", agencyID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := db.Preload("User").Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}

// StatusChangeEntry builds the audit entry for a single status transition
func StatusChangeEntry(agencyID uint, entityType string, entityID uint, oldStatus, newStatus string, userID *uint, metadata models.Metadata) *models.AuditLog {
	return &models.AuditLog{
		AgencyID:   agencyID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     models.AuditActionStatusChange,
		UserID:     userID,
		Changes: models.FieldChanges{
			"status": {Old: oldStatus, New: newStatus},
		},
		Metadata: metadata,
	}
}
