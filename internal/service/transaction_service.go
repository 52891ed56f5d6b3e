package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"worklink/internal/domain"
	"worklink/internal/models"
	"worklink/internal/repository"

	"gorm.io/gorm"
)

// TransactionService is the only entry point allowed to mutate wallet balances
// or project payment state. Every operation is one atomic unit: take the
// per-wallet lease, open a transaction, lock rows (wallet before project),
// validate, mutate, append ledger + activity entries, commit. Any failure rolls
// the whole unit back.
type TransactionService struct {
	db       *gorm.DB
	wallets  *repository.WalletRepository
	ledger   *repository.LedgerRepository
	projects *repository.ProjectRepository
	activity *repository.ActivityLogRepository
	locks    *walletLocks
	lockWait time.Duration
}

func NewTransactionService(
	db *gorm.DB,
	wallets *repository.WalletRepository,
	ledger *repository.LedgerRepository,
	projects *repository.ProjectRepository,
	activity *repository.ActivityLogRepository,
	lockWait time.Duration,
) *TransactionService {
	return &TransactionService{
		db:       db,
		wallets:  wallets,
		ledger:   ledger,
		projects: projects,
		activity: activity,
		locks:    newWalletLocks(),
		lockWait: lockWait,
	}
}

// TransactionResult is returned by every successful operation.
type TransactionResult struct {
	TransactionID   uint  `json:"transaction_id"`
	OldBalanceCents int64 `json:"old_balance_cents"`
	NewBalanceCents int64 `json:"new_balance_cents"`
	ProjectID       uint  `json:"project_id,omitempty"`
}

// Topup credits a wallet with funds confirmed by the payment gateway.
func (s *TransactionService) Topup(userID uint, amountCents int64, gatewayOrderID, gatewayPaymentID string) (*TransactionResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.locks.acquire(userID, s.lockWait); err != nil {
		return nil, err
	}
	defer s.locks.release(userID)

	var res TransactionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		w, err := s.lockWallet(tx, userID)
		if err != nil {
			return err
		}
		oldBalance := w.BalanceCents
		newBalance := oldBalance + amountCents
		if err := s.wallets.SetBalance(tx, w.ID, newBalance); err != nil {
			return err
		}
		meta := mustJSON(map[string]interface{}{
			"gateway_order_id":   gatewayOrderID,
			"gateway_payment_id": gatewayPaymentID,
		})
		entry := &models.WalletTransaction{
			WalletID:      w.ID,
			AmountCents:   amountCents,
			Direction:     domain.DirectionCredit,
			Type:          domain.TxTypeTopup,
			FundingSource: domain.FundingWallet,
			Description:   "wallet top-up",
			Reference:     gatewayPaymentID,
			Metadata:      meta,
		}
		if err := s.ledger.Append(tx, entry); err != nil {
			return err
		}
		if err := s.activity.CreateTx(tx, &models.ActivityLog{
			UserID:      userID,
			Action:      "wallet_topup",
			Category:    domain.ActivityCategoryWallet,
			Description: fmt.Sprintf("topped up %d cents via gateway payment %s", amountCents, gatewayPaymentID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
		res = TransactionResult{TransactionID: entry.ID, OldBalanceCents: oldBalance, NewBalanceCents: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GatewayFundedProjectPayment marks a project paid from an external gateway
// charge. The wallet is only the ledger owner here; its balance is untouched.
func (s *TransactionService) GatewayFundedProjectPayment(userID, projectID uint, amountCents int64, gatewayOrderID, gatewayPaymentID string) (*TransactionResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.locks.acquire(userID, s.lockWait); err != nil {
		return nil, err
	}
	defer s.locks.release(userID)

	var res TransactionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		w, err := s.lockWallet(tx, userID)
		if err != nil {
			return err
		}
		p, err := s.lockProject(tx, userID, projectID)
		if err != nil {
			return err
		}
		if amountCents != p.QuoteCents {
			return ErrAmountMismatch
		}
		meta := mustJSON(map[string]interface{}{
			"project_id":         projectID,
			"gateway_order_id":   gatewayOrderID,
			"gateway_payment_id": gatewayPaymentID,
			"gateway_cents":      amountCents,
		})
		entry := &models.WalletTransaction{
			WalletID:      w.ID,
			AmountCents:   amountCents,
			Direction:     domain.DirectionDebit,
			Type:          domain.TxTypeProjectPayment,
			FundingSource: domain.FundingGateway,
			Description:   fmt.Sprintf("gateway payment for project #%d", projectID),
			Reference:     gatewayPaymentID,
			Metadata:      meta,
		}
		if err := s.ledger.Append(tx, entry); err != nil {
			return err
		}
		if err := s.projects.MarkPaid(tx, p, gatewayPaymentID, time.Now()); err != nil {
			return err
		}
		if err := s.activity.CreateTx(tx, &models.ActivityLog{
			UserID:      userID,
			Action:      "project_payment_gateway",
			Category:    domain.ActivityCategoryPayment,
			Description: fmt.Sprintf("paid %d cents for project #%d via gateway payment %s", amountCents, projectID, gatewayPaymentID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
		res = TransactionResult{
			TransactionID:   entry.ID,
			OldBalanceCents: w.BalanceCents,
			NewBalanceCents: w.BalanceCents,
			ProjectID:       projectID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// WalletFundedProjectPayment pays for a project entirely from the wallet
// balance.
func (s *TransactionService) WalletFundedProjectPayment(userID, projectID uint, amountCents int64) (*TransactionResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.locks.acquire(userID, s.lockWait); err != nil {
		return nil, err
	}
	defer s.locks.release(userID)

	var res TransactionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		w, err := s.lockWallet(tx, userID)
		if err != nil {
			return err
		}
		p, err := s.lockProject(tx, userID, projectID)
		if err != nil {
			return err
		}
		// The charge must settle the full quote, never a client-chosen amount.
		if amountCents != p.QuoteCents {
			return ErrAmountMismatch
		}
		if w.BalanceCents < amountCents {
			return &InsufficientBalanceError{AvailableCents: w.BalanceCents, RequiredCents: amountCents}
		}
		oldBalance := w.BalanceCents
		newBalance := oldBalance - amountCents
		if err := s.wallets.SetBalance(tx, w.ID, newBalance); err != nil {
			return err
		}
		meta := mustJSON(map[string]interface{}{
			"project_id":   projectID,
			"wallet_cents": amountCents,
		})
		reference := fmt.Sprintf("project-%d", projectID)
		entry := &models.WalletTransaction{
			WalletID:      w.ID,
			AmountCents:   amountCents,
			Direction:     domain.DirectionDebit,
			Type:          domain.TxTypeProjectPayment,
			FundingSource: domain.FundingWallet,
			Description:   fmt.Sprintf("wallet payment for project #%d", projectID),
			Reference:     reference,
			Metadata:      meta,
		}
		if err := s.ledger.Append(tx, entry); err != nil {
			return err
		}
		if err := s.projects.MarkPaid(tx, p, reference, time.Now()); err != nil {
			return err
		}
		if err := s.activity.CreateTx(tx, &models.ActivityLog{
			UserID:      userID,
			Action:      "project_payment_wallet",
			Category:    domain.ActivityCategoryPayment,
			Description: fmt.Sprintf("paid %d cents for project #%d from wallet", amountCents, projectID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
		res = TransactionResult{
			TransactionID:   entry.ID,
			OldBalanceCents: oldBalance,
			NewBalanceCents: newBalance,
			ProjectID:       projectID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SplitPayment pays for a project partly from the wallet and partly from a
// gateway charge. The single ledger entry carries the wallet portion; the
// gateway portion lives in its metadata for reconciliation.
func (s *TransactionService) SplitPayment(userID, projectID uint, totalCents, walletCents, gatewayCents int64, gatewayOrderID, gatewayPaymentID string) (*TransactionResult, error) {
	if walletCents < 0 || gatewayCents < 0 {
		return nil, ErrInvalidAmount
	}
	if walletCents+gatewayCents != totalCents {
		return nil, ErrAmountMismatch
	}
	if walletCents == 0 {
		return s.GatewayFundedProjectPayment(userID, projectID, gatewayCents, gatewayOrderID, gatewayPaymentID)
	}
	if err := s.locks.acquire(userID, s.lockWait); err != nil {
		return nil, err
	}
	defer s.locks.release(userID)

	var res TransactionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		w, err := s.lockWallet(tx, userID)
		if err != nil {
			return err
		}
		p, err := s.lockProject(tx, userID, projectID)
		if err != nil {
			return err
		}
		if totalCents != p.QuoteCents {
			return ErrAmountMismatch
		}
		if w.BalanceCents < walletCents {
			return &InsufficientBalanceError{AvailableCents: w.BalanceCents, RequiredCents: walletCents}
		}
		oldBalance := w.BalanceCents
		newBalance := oldBalance - walletCents
		if err := s.wallets.SetBalance(tx, w.ID, newBalance); err != nil {
			return err
		}
		meta := mustJSON(map[string]interface{}{
			"project_id":         projectID,
			"total_cents":        totalCents,
			"wallet_cents":       walletCents,
			"gateway_cents":      gatewayCents,
			"gateway_order_id":   gatewayOrderID,
			"gateway_payment_id": gatewayPaymentID,
		})
		entry := &models.WalletTransaction{
			WalletID:      w.ID,
			AmountCents:   walletCents,
			Direction:     domain.DirectionDebit,
			Type:          domain.TxTypePartial,
			FundingSource: domain.FundingWallet,
			Description:   fmt.Sprintf("split payment for project #%d (%d wallet + %d gateway)", projectID, walletCents, gatewayCents),
			Reference:     gatewayPaymentID,
			Metadata:      meta,
		}
		if err := s.ledger.Append(tx, entry); err != nil {
			return err
		}
		if err := s.projects.MarkPaid(tx, p, gatewayPaymentID, time.Now()); err != nil {
			return err
		}
		if err := s.activity.CreateTx(tx, &models.ActivityLog{
			UserID:      userID,
			Action:      "project_payment_split",
			Category:    domain.ActivityCategoryPayment,
			Description: fmt.Sprintf("paid %d cents for project #%d (%d from wallet, %d via gateway payment %s)", totalCents, projectID, walletCents, gatewayCents, gatewayPaymentID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
		res = TransactionResult{
			TransactionID:   entry.ID,
			OldBalanceCents: oldBalance,
			NewBalanceCents: newBalance,
			ProjectID:       projectID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *TransactionService) lockWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	w, err := s.wallets.LockForUpdate(tx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

// lockProject locks the project row and runs the ownership and double-payment
// checks shared by every payment path.
func (s *TransactionService) lockProject(tx *gorm.DB, userID, projectID uint) (*models.Project, error) {
	p, err := s.projects.LockForUpdate(tx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrUnauthorized
	}
	if p.IsPaid {
		return nil, ErrAlreadyPaid
	}
	return p, nil
}

func mustJSON(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
