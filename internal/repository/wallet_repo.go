package repository

import (
	"worklink/internal/models"

	"gorm.io/gorm"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) Create(w *models.Wallet) error {
	return r.db.Create(w).Error
}

// LockForUpdate reads the wallet row under SELECT ... FOR UPDATE. Must be called
// with an open transaction; the lock is held until that transaction commits or
// rolls back.
func (r *WalletRepository) LockForUpdate(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := forUpdate(tx).Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// SetBalance writes the balance unconditionally. Only ever called while holding
// the row lock from LockForUpdate inside the same transaction.
func (r *WalletRepository) SetBalance(tx *gorm.DB, walletID uint, balanceCents int64) error {
	return tx.Model(&models.Wallet{}).Where("id = ?", walletID).
		Update("balance_cents", balanceCents).Error
}
