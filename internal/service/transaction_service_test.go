package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"worklink/internal/database"
	"worklink/internal/domain"
	"worklink/internal/models"
	"worklink/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	svc      *TransactionService
	wallets  *repository.WalletRepository
	ledger   *repository.LedgerRepository
	projects *repository.ProjectRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every in-memory sqlite connection is its own database; keep one.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	wallets := repository.NewWalletRepository(db)
	ledger := repository.NewLedgerRepository(db)
	projects := repository.NewProjectRepository(db)
	activity := repository.NewActivityLogRepository(db)
	svc := NewTransactionService(db, wallets, ledger, projects, activity, 30*time.Second)
	return &testEnv{db: db, svc: svc, wallets: wallets, ledger: ledger, projects: projects}
}

func (e *testEnv) createUserWithWallet(t *testing.T, email string, balanceCents int64) *models.User {
	t.Helper()
	u := &models.User{Email: email, Username: email, Role: domain.RoleClient}
	require.NoError(t, e.db.Create(u).Error)
	w := &models.Wallet{UserID: u.ID, BalanceCents: balanceCents, Currency: "INR"}
	require.NoError(t, e.db.Create(w).Error)
	return u
}

func (e *testEnv) createProject(t *testing.T, userID uint, quoteCents int64) *models.Project {
	t.Helper()
	p := &models.Project{
		UserID:     userID,
		Title:      "literature review",
		QuoteCents: quoteCents,
		Status:     domain.ProjectStatusPaymentPending,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) balance(t *testing.T, userID uint) int64 {
	t.Helper()
	w, err := e.wallets.GetByUserID(userID)
	require.NoError(t, err)
	return w.BalanceCents
}

// requireReconciled asserts the ledger's net over balance-moving entries equals
// the wallet's balance.
func (e *testEnv) requireReconciled(t *testing.T, userID uint) {
	t.Helper()
	w, err := e.wallets.GetByUserID(userID)
	require.NoError(t, err)
	net, err := e.ledger.NetCents(w.ID)
	require.NoError(t, err)
	require.Equal(t, w.BalanceCents, net, "ledger does not reconcile with balance")
}

func (e *testEnv) ledgerCount(t *testing.T, userID uint) int64 {
	t.Helper()
	w, err := e.wallets.GetByUserID(userID)
	require.NoError(t, err)
	var n int64
	require.NoError(t, e.db.Model(&models.WalletTransaction{}).Where("wallet_id = ?", w.ID).Count(&n).Error)
	return n
}

func TestTopupThenSpend(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 0)
	p := e.createProject(t, u.ID, 400)

	res, err := e.svc.Topup(u.ID, 1000, "order-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.OldBalanceCents)
	assert.Equal(t, int64(1000), res.NewBalanceCents)
	assert.NotZero(t, res.TransactionID)
	assert.Equal(t, int64(1000), e.balance(t, u.ID))

	res, err = e.svc.WalletFundedProjectPayment(u.ID, p.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.OldBalanceCents)
	assert.Equal(t, int64(600), res.NewBalanceCents)
	assert.Equal(t, p.ID, res.ProjectID)

	got, err := e.projects.GetByID(p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.NotNil(t, got.PaidAt)
	assert.Equal(t, domain.ProjectStatusPaymentConfirmed, got.Status)

	// Paying the same project again must not move any money.
	_, err = e.svc.WalletFundedProjectPayment(u.ID, p.ID, 400)
	require.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, int64(600), e.balance(t, u.ID))
	assert.Equal(t, int64(2), e.ledgerCount(t, u.ID))
	e.requireReconciled(t, u.ID)

	hist, err := e.projects.StatusHistory(p.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, domain.ProjectStatusPaymentPending, hist[0].FromStatus)
	assert.Equal(t, domain.ProjectStatusPaymentConfirmed, hist[0].ToStatus)

	var activities int64
	require.NoError(t, e.db.Model(&models.ActivityLog{}).Where("user_id = ?", u.ID).Count(&activities).Error)
	assert.Equal(t, int64(2), activities)
}

func TestTopupValidation(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 0)

	_, err := e.svc.Topup(u.ID, 0, "order-1", "pay-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = e.svc.Topup(u.ID, -50, "order-1", "pay-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, int64(0), e.ledgerCount(t, u.ID))
}

func TestTopupWalletNotFound(t *testing.T) {
	e := newTestEnv(t)
	u := &models.User{Email: "nowallet@example.com", Username: "nowallet", Role: domain.RoleClient}
	require.NoError(t, e.db.Create(u).Error)

	_, err := e.svc.Topup(u.ID, 1000, "order-1", "pay-1")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWalletFundedInsufficientBalance(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 300)
	p := e.createProject(t, u.ID, 500)

	_, err := e.svc.WalletFundedProjectPayment(u.ID, p.ID, 500)
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(300), insufficient.AvailableCents)
	assert.Equal(t, int64(500), insufficient.RequiredCents)

	// No partial state survives the failure.
	assert.Equal(t, int64(300), e.balance(t, u.ID))
	assert.Equal(t, int64(0), e.ledgerCount(t, u.ID))
	got, err := e.projects.GetByID(p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid)
}

func TestWalletFundedOwnershipChecks(t *testing.T) {
	e := newTestEnv(t)
	owner := e.createUserWithWallet(t, "owner@example.com", 1000)
	other := e.createUserWithWallet(t, "other@example.com", 1000)
	p := e.createProject(t, owner.ID, 500)

	_, err := e.svc.WalletFundedProjectPayment(other.ID, p.ID, 500)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(1000), e.balance(t, other.ID))

	_, err = e.svc.WalletFundedProjectPayment(owner.ID, p.ID+999, 500)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestPaymentAmountMustMatchQuote(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 1000)
	p := e.createProject(t, u.ID, 500)

	// Underpaying or overpaying never settles a project.
	_, err := e.svc.WalletFundedProjectPayment(u.ID, p.ID, 100)
	assert.ErrorIs(t, err, ErrAmountMismatch)
	_, err = e.svc.GatewayFundedProjectPayment(u.ID, p.ID, 600, "order-1", "pay-1")
	assert.ErrorIs(t, err, ErrAmountMismatch)

	assert.Equal(t, int64(1000), e.balance(t, u.ID))
	assert.Equal(t, int64(0), e.ledgerCount(t, u.ID))
	got, err := e.projects.GetByID(p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid)
}

func TestGatewayFundedPayment(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 250)
	p := e.createProject(t, u.ID, 800)

	res, err := e.svc.GatewayFundedProjectPayment(u.ID, p.ID, 800, "order-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.OldBalanceCents)
	assert.Equal(t, int64(250), res.NewBalanceCents)

	// Balance untouched, project paid, audit entry excluded from reconciliation.
	assert.Equal(t, int64(250), e.balance(t, u.ID))
	got, err := e.projects.GetByID(p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, "pay-1", got.PaymentReferenceID)
	assert.Equal(t, int64(1), e.ledgerCount(t, u.ID))
	e.requireReconciled(t, u.ID)

	w, err := e.wallets.GetByUserID(u.ID)
	require.NoError(t, err)
	entries, err := e.ledger.ListByWallet(w.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.FundingGateway, entries[0].FundingSource)
	assert.Equal(t, domain.DirectionDebit, entries[0].Direction)
	assert.Equal(t, int64(800), entries[0].AmountCents)

	_, err = e.svc.GatewayFundedProjectPayment(u.ID, p.ID, 800, "order-2", "pay-2")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, int64(1), e.ledgerCount(t, u.ID))
}

func TestSplitPayment(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 250)
	p := e.createProject(t, u.ID, 500)

	res, err := e.svc.SplitPayment(u.ID, p.ID, 500, 200, 300, "order-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.OldBalanceCents)
	assert.Equal(t, int64(50), res.NewBalanceCents)
	assert.Equal(t, int64(50), e.balance(t, u.ID))

	got, err := e.projects.GetByID(p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)

	w, err := e.wallets.GetByUserID(u.ID)
	require.NoError(t, err)
	entries, err := e.ledger.ListByWallet(w.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.TxTypePartial, entries[0].Type)
	assert.Equal(t, int64(200), entries[0].AmountCents)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entries[0].Metadata), &meta))
	assert.Equal(t, float64(300), meta["gateway_cents"])
	assert.Equal(t, float64(200), meta["wallet_cents"])
	e.requireReconciled(t, u.ID)
}

func TestSplitPaymentAmountMismatch(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 1000)
	p := e.createProject(t, u.ID, 500)

	_, err := e.svc.SplitPayment(u.ID, p.ID, 500, 100, 300, "order-1", "pay-1")
	assert.ErrorIs(t, err, ErrAmountMismatch)

	// Rejected before any mutation: no side effects at all.
	assert.Equal(t, int64(1000), e.balance(t, u.ID))
	assert.Equal(t, int64(0), e.ledgerCount(t, u.ID))
	got, err := e.projects.GetByID(p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid)

	_, err = e.svc.SplitPayment(u.ID, p.ID, 500, -100, 600, "order-1", "pay-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSplitPaymentZeroWalletBehavesAsGatewayFunded(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 100)
	p := e.createProject(t, u.ID, 500)

	_, err := e.svc.SplitPayment(u.ID, p.ID, 500, 0, 500, "order-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), e.balance(t, u.ID))

	w, err := e.wallets.GetByUserID(u.ID)
	require.NoError(t, err)
	entries, err := e.ledger.ListByWallet(w.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.FundingGateway, entries[0].FundingSource)
}

func TestSplitPaymentInsufficientWalletPortion(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 150)
	p := e.createProject(t, u.ID, 500)

	_, err := e.svc.SplitPayment(u.ID, p.ID, 500, 200, 300, "order-1", "pay-1")
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(150), insufficient.AvailableCents)
	assert.Equal(t, int64(200), insufficient.RequiredCents)
	assert.Equal(t, int64(150), e.balance(t, u.ID))
	got, err := e.projects.GetByID(p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid)
}

func TestExactlyOncePaymentConcurrent(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 1000)
	p := e.createProject(t, u.ID, 400)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.WalletFundedProjectPayment(u.ID, p.ID, 400)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyPaid)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(600), e.balance(t, u.ID))
	assert.Equal(t, int64(1), e.ledgerCount(t, u.ID))
	e.requireReconciled(t, u.ID)
}

func TestSerializationUnderConcurrency(t *testing.T) {
	e := newTestEnv(t)
	const (
		amount     = int64(100)
		affordable = 30
		attempts   = 50
	)
	u := e.createUserWithWallet(t, "client@example.com", amount*affordable)
	projectIDs := make([]uint, attempts)
	for i := range projectIDs {
		projectIDs[i] = e.createProject(t, u.ID, amount).ID
	}

	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.WalletFundedProjectPayment(u.ID, projectIDs[i], amount)
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			var ib *InsufficientBalanceError
			require.ErrorAs(t, err, &ib)
			insufficient++
		}
	}
	assert.Equal(t, affordable, succeeded)
	assert.Equal(t, attempts-affordable, insufficient)
	assert.Equal(t, int64(0), e.balance(t, u.ID))
	assert.Equal(t, int64(affordable), e.ledgerCount(t, u.ID))
	e.requireReconciled(t, u.ID)
}

func TestReconciliationAfterMixedOperations(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 0)

	_, err := e.svc.Topup(u.ID, 2500, "order-t1", "pay-t1")
	require.NoError(t, err)
	_, err = e.svc.Topup(u.ID, 700, "order-t2", "pay-t2")
	require.NoError(t, err)

	// 5000 exceeds the balance and must bounce without touching it.
	for _, quote := range []int64{900, 5000, 1300, 400} {
		p := e.createProject(t, u.ID, quote)
		_, err := e.svc.WalletFundedProjectPayment(u.ID, p.ID, quote)
		if quote == 5000 {
			var ib *InsufficientBalanceError
			require.ErrorAs(t, err, &ib)
			continue
		}
		require.NoError(t, err)
	}
	gw := e.createProject(t, u.ID, 1200)
	_, err = e.svc.GatewayFundedProjectPayment(u.ID, gw.ID, 1200, "order-g", "pay-g")
	require.NoError(t, err)

	sp := e.createProject(t, u.ID, 800)
	_, err = e.svc.SplitPayment(u.ID, sp.ID, 800, 300, 500, "order-s", "pay-s")
	require.NoError(t, err)

	assert.Equal(t, int64(2500+700-900-1300-400-300), e.balance(t, u.ID))
	e.requireReconciled(t, u.ID)
	assert.GreaterOrEqual(t, e.balance(t, u.ID), int64(0))
}

func TestConcurrencyConflictSurfacesInsteadOfHanging(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 1000)

	// Hold the wallet lease so the operation cannot take it in time.
	svc := NewTransactionService(e.db, e.wallets, e.ledger, e.projects, repository.NewActivityLogRepository(e.db), 20*time.Millisecond)
	require.NoError(t, svc.locks.acquire(u.ID, time.Second))
	defer svc.locks.release(u.ID)

	_, err := svc.Topup(u.ID, 500, "order-1", "pay-1")
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, int64(1000), e.balance(t, u.ID))
}

func TestWalletLeaseBlocksAndReleases(t *testing.T) {
	locks := newWalletLocks()
	require.NoError(t, locks.acquire(1, time.Second))

	errCh := make(chan error, 1)
	go func() { errCh <- locks.acquire(1, 2*time.Second) }()

	select {
	case <-errCh:
		t.Fatal("second acquire should block while lease is held")
	case <-time.After(50 * time.Millisecond):
	}
	locks.release(1)
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second acquire should succeed after release")
	}
	locks.release(1)

	// Different wallets never contend.
	require.NoError(t, locks.acquire(2, 10*time.Millisecond))
	locks.release(2)
}

func TestResultCarriesBalances(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 0)
	for i := 1; i <= 3; i++ {
		res, err := e.svc.Topup(u.ID, 100, fmt.Sprintf("order-%d", i), fmt.Sprintf("pay-%d", i))
		require.NoError(t, err)
		assert.Equal(t, int64((i-1)*100), res.OldBalanceCents)
		assert.Equal(t, int64(i*100), res.NewBalanceCents)
	}
}

func TestFailedOperationLeavesNoActivity(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUserWithWallet(t, "client@example.com", 100)
	p := e.createProject(t, u.ID, 500)

	_, err := e.svc.WalletFundedProjectPayment(u.ID, p.ID, 500)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrAlreadyPaid))

	var activities int64
	require.NoError(t, e.db.Model(&models.ActivityLog{}).Where("user_id = ?", u.ID).Count(&activities).Error)
	assert.Equal(t, int64(0), activities)
}
