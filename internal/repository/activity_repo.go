package repository

import (
	"worklink/internal/models"

	"gorm.io/gorm"
)

// ActivityLogRepository writes the append-only activity trail. Non-authoritative:
// correctness decisions never read from it.
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(entry *models.ActivityLog) error {
	return r.db.Create(entry).Error
}

// CreateTx appends within an open transaction so the trail commits atomically
// with the financial mutation it describes.
func (r *ActivityLogRepository) CreateTx(tx *gorm.DB, entry *models.ActivityLog) error {
	return tx.Create(entry).Error
}

func (r *ActivityLogRepository) ListByUser(userID uint, limit, offset int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
