package handler

import (
	"encoding/json"
	"fmt"
	"log"
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

// paymentMeta is the JSON stored on a pending gateway payment so the webhook
// knows how to settle it.
type paymentMeta struct {
	Intent       string `json:"intent"` // TOPUP | PROJECT
	ProjectID    uint   `json:"project_id,omitempty"`
	TotalCents   int64  `json:"total_cents,omitempty"`
	WalletCents  int64  `json:"wallet_cents,omitempty"`
	GatewayCents int64  `json:"gateway_cents,omitempty"`
}

type PaymentHandler struct {
	cfg         *config.Config
	paymentRepo *repository.PaymentRepository
	projectRepo *repository.ProjectRepository
	txSvc       *service.TransactionService
	provider    payment.Provider
}

func NewPaymentHandler(
	cfg *config.Config,
	paymentRepo *repository.PaymentRepository,
	projectRepo *repository.ProjectRepository,
	txSvc *service.TransactionService,
	provider payment.Provider,
) *PaymentHandler {
	return &PaymentHandler{
		cfg:         cfg,
		paymentRepo: paymentRepo,
		projectRepo: projectRepo,
		txSvc:       txSvc,
		provider:    provider,
	}
}

// Initiate starts a project payment: wallet-only (settled immediately),
// gateway-only, or wallet + gateway split. The quote amount is read from the
// project, never from the client. For gateway-backed payments nothing moves
// until the webhook confirms the charge; the split is settled atomically then.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		ProjectID         uint  `json:"project_id" binding:"required"`
		WalletAmountCents int64 `json:"wallet_amount_cents"` // optional: portion to draw from wallet
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	project, err := h.projectRepo.GetByID(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if project.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if project.IsPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "project already paid"})
		return
	}
	totalCents := project.QuoteCents
	if totalCents <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project has no quote"})
		return
	}
	walletCents := req.WalletAmountCents
	if walletCents < 0 {
		walletCents = 0
	}
	if walletCents > totalCents {
		walletCents = totalCents
	}
	gatewayCents := totalCents - walletCents

	// Wallet covers everything: settle now, no gateway round-trip.
	if gatewayCents == 0 {
		res, err := h.txSvc.WalletFundedProjectPayment(userID, req.ProjectID, totalCents)
		if err != nil {
			respondTransactionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transaction_id":    res.TransactionID,
			"project_id":        res.ProjectID,
			"new_balance_cents": res.NewBalanceCents,
			"payment_status":    "COMPLETED",
		})
		return
	}

	orderID := fmt.Sprintf("wl-%s", uuid.New().String())
	meta, _ := json.Marshal(paymentMeta{
		Intent:       domain.PaymentIntentProject,
		ProjectID:    req.ProjectID,
		TotalCents:   totalCents,
		WalletCents:  walletCents,
		GatewayCents: gatewayCents,
	})
	pay := &models.Payment{
		UserID:         userID,
		ProjectID:      &req.ProjectID,
		AmountCents:    totalCents,
		Currency:       "INR",
		Provider:       "razorpay",
		ProviderRef:    orderID,
		Status:         domain.PaymentStatusPending,
		IdempotencyKey: orderID,
		Metadata:       string(meta),
	}
	if err := h.paymentRepo.Create(pay); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment create failed"})
		return
	}
	log.Printf("[GATEWAY] Initiate order_id=%s project_id=%d total=%d wallet=%d gateway=%d", orderID, req.ProjectID, totalCents, walletCents, gatewayCents)
	resp, err := h.provider.CreateOrder(c.Request.Context(), payment.OrderRequest{
		OrderID:     orderID,
		AmountCents: gatewayCents,
		Currency:    "INR",
		CallbackURL: h.cfg.Gateway.WebhookBaseURL + "/api/v1/webhooks/payment",
		Description: fmt.Sprintf("Payment for project #%d", req.ProjectID),
		Notes:       map[string]string{"project_id": fmt.Sprintf("%d", req.ProjectID)},
	})
	if err != nil {
		log.Printf("[GATEWAY] CreateOrder error: %v", err)
		pay.Status = domain.PaymentStatusFailed
		_ = h.paymentRepo.Update(pay)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "gateway order failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order_id":         orderID,
		"gateway_order_id": resp.GatewayOrderID,
		"total_cents":      totalCents,
		"wallet_cents":     walletCents,
		"gateway_cents":    gatewayCents,
		"payment_status":   domain.PaymentStatusPending,
		"message":          "Complete the gateway payment to confirm your project.",
	})
}
