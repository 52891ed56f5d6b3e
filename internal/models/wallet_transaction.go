package models

import "time"

// WalletTransaction is one immutable ledger entry against a wallet. Amounts are
// positive magnitudes; Direction says which way the money moved. Rows are never
// updated or deleted, so sum(credits) - sum(debits) over WALLET-funded entries
// must always equal the wallet's balance. GATEWAY-funded entries record money
// charged externally and never move the balance.
type WalletTransaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletID      uint      `gorm:"not null;index" json:"wallet_id"`
	AmountCents   int64     `gorm:"not null" json:"amount_cents"`
	Direction     string    `gorm:"size:10;not null;index" json:"direction"` // CREDIT | DEBIT
	Type          string    `gorm:"size:30;not null;index" json:"type"`      // TOPUP, PROJECT_PAYMENT, PARTIAL
	FundingSource string    `gorm:"size:10;not null;default:'WALLET'" json:"funding_source"` // WALLET | GATEWAY
	Description   string    `gorm:"size:255" json:"description"`
	Reference     string    `gorm:"size:128;index" json:"reference"` // gateway payment id or project id
	Metadata      string    `gorm:"type:text" json:"metadata"`       // JSON
	CreatedAt     time.Time `json:"created_at"`

	Wallet Wallet `gorm:"foreignKey:WalletID" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
