package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is a purchasable work item. Payment fields (IsPaid, PaidAt,
// PaymentReferenceID, the transition into PAYMENT_CONFIRMED) are mutated only by
// a successful transaction-service operation; IsPaid goes false->true exactly
// once.
type Project struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"not null;index" json:"user_id"` // owner (client who pays)
	Title              string         `gorm:"size:255;not null" json:"title"`
	Description        string         `gorm:"type:text" json:"description"`
	QuoteCents         int64          `gorm:"not null;default:0" json:"quote_cents"`
	Status             string         `gorm:"size:30;not null;index;default:'QUOTED'" json:"status"`
	IsPaid             bool           `gorm:"not null;default:false;index" json:"is_paid"`
	PaidAt             *time.Time     `json:"paid_at"`
	PaymentReferenceID string         `gorm:"size:128" json:"payment_reference_id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectStatusHistory records every status transition for dispute resolution.
type ProjectStatusHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"not null;index" json:"project_id"`
	FromStatus string    `gorm:"size:30;not null" json:"from_status"`
	ToStatus   string    `gorm:"size:30;not null" json:"to_status"`
	Note       string    `gorm:"size:255" json:"note"`
	CreatedAt  time.Time `json:"created_at"`

	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func (ProjectStatusHistory) TableName() string {
	return "project_status_histories"
}
