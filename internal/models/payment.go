package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment tracks one gateway charge from initiation to completion. The engine
// itself never creates these; handlers record them around gateway calls and the
// webhook flips them to COMPLETED before invoking the engine.
type Payment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	ProjectID      *uint          `gorm:"index" json:"project_id"` // nil for wallet top-ups
	AmountCents    int64          `gorm:"not null" json:"amount_cents"`
	Currency       string         `gorm:"size:3;default:'INR'" json:"currency"`
	Provider       string         `gorm:"size:50;not null" json:"provider"`
	ProviderRef    string         `gorm:"size:255;uniqueIndex" json:"provider_ref"`
	Status         string         `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED
	IdempotencyKey string         `gorm:"size:255;uniqueIndex" json:"-"`
	Metadata       string         `gorm:"type:text" json:"metadata"` // JSON: intent, wallet/gateway split
	CompletedAt    *time.Time     `json:"completed_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
