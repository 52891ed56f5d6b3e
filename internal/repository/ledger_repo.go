package repository

import (
	"worklink/internal/domain"
	"worklink/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository writes and reads the append-only wallet_transactions log.
// Entries are never updated or deleted.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts one ledger entry. Must run in the same transaction as the
// balance write it records.
func (r *LedgerRepository) Append(tx *gorm.DB, entry *models.WalletTransaction) error {
	return tx.Create(entry).Error
}

func (r *LedgerRepository) ListByWallet(walletID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	err := r.db.Where("wallet_id = ?", walletID).
		Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// NetCents returns sum(credits) - sum(debits) over WALLET-funded entries. Used
// by reconciliation: the result must equal the wallet's balance_cents.
// GATEWAY-funded audit entries never moved the balance and are excluded.
func (r *LedgerRepository) NetCents(walletID uint) (int64, error) {
	var net *int64
	err := r.db.Model(&models.WalletTransaction{}).
		Select("SUM(CASE WHEN direction = ? THEN amount_cents ELSE -amount_cents END)", domain.DirectionCredit).
		Where("wallet_id = ? AND funding_source = ?", walletID, domain.FundingWallet).
		Scan(&net).Error
	if err != nil {
		return 0, err
	}
	if net == nil {
		return 0, nil
	}
	return *net, nil
}
