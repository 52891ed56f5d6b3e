package handler

import (
	"fmt"
	"net/http"

	"worklink/config"
	"worklink/internal/domain"
	"worklink/internal/middleware"
	"worklink/internal/models"
	"worklink/internal/repository"
	"worklink/internal/service"
	"worklink/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WalletHandler struct {
	cfg         *config.Config
	walletRepo  *repository.WalletRepository
	ledgerRepo  *repository.LedgerRepository
	paymentRepo *repository.PaymentRepository
	txSvc       *service.TransactionService
	provider    payment.Provider
}

func NewWalletHandler(
	cfg *config.Config,
	walletRepo *repository.WalletRepository,
	ledgerRepo *repository.LedgerRepository,
	paymentRepo *repository.PaymentRepository,
	txSvc *service.TransactionService,
	provider payment.Provider,
) *WalletHandler {
	return &WalletHandler{
		cfg:         cfg,
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		paymentRepo: paymentRepo,
		txSvc:       txSvc,
		provider:    provider,
	}
}

// GetBalance returns the current user's wallet balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.walletRepo.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance_cents": w.BalanceCents,
		"currency":      w.Currency,
	})
}

// GetTransactions returns the wallet's ledger history, newest first.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.walletRepo.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		return
	}
	entries, err := h.ledgerRepo.ListByWallet(w.ID, 50, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

// InitiateTopup creates a pending payment record and a gateway order for a
// wallet top-up. The wallet is credited when the gateway webhook confirms the
// charge.
func (h *WalletHandler) InitiateTopup(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		AmountCents int64 `json:"amount_cents" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.walletRepo.GetByUserID(userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		return
	}
	orderID := fmt.Sprintf("wl-topup-%s", uuid.New().String())
	pay := &models.Payment{
		UserID:         userID,
		AmountCents:    req.AmountCents,
		Currency:       "INR",
		Provider:       "razorpay",
		ProviderRef:    orderID,
		Status:         domain.PaymentStatusPending,
		IdempotencyKey: orderID,
		Metadata:       fmt.Sprintf(`{"intent":%q}`, domain.PaymentIntentTopup),
	}
	if err := h.paymentRepo.Create(pay); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment create failed"})
		return
	}
	resp, err := h.provider.CreateOrder(c.Request.Context(), payment.OrderRequest{
		OrderID:     orderID,
		AmountCents: req.AmountCents,
		Currency:    "INR",
		CallbackURL: h.cfg.Gateway.WebhookBaseURL + "/api/v1/webhooks/payment",
		Description: "wallet top-up",
	})
	if err != nil {
		pay.Status = domain.PaymentStatusFailed
		_ = h.paymentRepo.Update(pay)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "gateway order failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order_id":         orderID,
		"gateway_order_id": resp.GatewayOrderID,
		"amount_cents":     req.AmountCents,
		"status":           domain.PaymentStatusPending,
	})
}

// PayProject pays for a project entirely from the wallet balance.
func (h *WalletHandler) PayProject(c *gin.Context) {
	userID := middleware.GetUserID(c)
	projectID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		AmountCents int64 `json:"amount_cents" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.txSvc.WalletFundedProjectPayment(userID, projectID, req.AmountCents)
	if err != nil {
		respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transaction_id":    res.TransactionID,
		"project_id":        res.ProjectID,
		"old_balance_cents": res.OldBalanceCents,
		"new_balance_cents": res.NewBalanceCents,
		"payment_status":    "COMPLETED",
	})
}
