package repository

import (
	"time"

	"worklink/internal/domain"
	"worklink/internal/models"

	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(p *models.Project) error {
	return r.db.Create(p).Error
}

func (r *ProjectRepository) GetByID(id uint) (*models.Project, error) {
	var p models.Project
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) ListByUser(userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// LockForUpdate reads the project row under SELECT ... FOR UPDATE within tx.
// Always taken after the wallet lock (fixed lock order: wallet before project).
func (r *ProjectRepository) LockForUpdate(tx *gorm.DB, id uint) (*models.Project, error) {
	var p models.Project
	err := forUpdate(tx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPaid flips the project to paid and PAYMENT_CONFIRMED and records the
// status transition. Caller must hold the row lock and have verified
// is_paid == false.
func (r *ProjectRepository) MarkPaid(tx *gorm.DB, p *models.Project, referenceID string, paidAt time.Time) error {
	fromStatus := p.Status
	err := tx.Model(&models.Project{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"is_paid":              true,
		"paid_at":              paidAt,
		"payment_reference_id": referenceID,
		"status":               domain.ProjectStatusPaymentConfirmed,
	}).Error
	if err != nil {
		return err
	}
	return tx.Create(&models.ProjectStatusHistory{
		ProjectID:  p.ID,
		FromStatus: fromStatus,
		ToStatus:   domain.ProjectStatusPaymentConfirmed,
		Note:       "payment " + referenceID,
	}).Error
}

// UpdateStatus moves a project between non-payment statuses (e.g. quote
// acceptance) and records the transition.
func (r *ProjectRepository) UpdateStatus(projectID uint, fromStatus, toStatus, note string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", projectID, fromStatus).
			Update("status", toStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&models.ProjectStatusHistory{
			ProjectID:  projectID,
			FromStatus: fromStatus,
			ToStatus:   toStatus,
			Note:       note,
		}).Error
	})
}

func (r *ProjectRepository) StatusHistory(projectID uint) ([]models.ProjectStatusHistory, error) {
	var hist []models.ProjectStatusHistory
	err := r.db.Where("project_id = ?", projectID).Order("id ASC").Find(&hist).Error
	if err != nil {
		return nil, err
	}
	return hist, nil
}
