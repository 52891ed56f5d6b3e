package models

import "time"

// ActivityLog is the human-readable trail of successful wallet/payment
// operations. Append-only and non-authoritative: reconciliation uses
// wallet_transactions, never this table.
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Action      string    `gorm:"size:100;not null;index" json:"action"`
	Category    string    `gorm:"size:50;index" json:"category"` // WALLET | PAYMENT
	Description string    `gorm:"size:512" json:"description"`
	Metadata    string    `gorm:"type:text" json:"metadata"` // JSON
	CreatedAt   time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
