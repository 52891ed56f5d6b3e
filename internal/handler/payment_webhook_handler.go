package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"worklink/internal/domain"
	"worklink/internal/repository"
	"worklink/internal/service"

	"github.com/gin-gonic/gin"
)

// GatewayCallback is the webhook payload from the payment gateway after a
// charge resolves. Signature verification happens upstream of this handler.
type GatewayCallback struct {
	Event            string `json:"event"`
	OrderID          string `json:"order_id"` // our order id (gateway receipt)
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	AmountCents      int64  `json:"amount_cents"`
	Currency         string `json:"currency"`
	Status           string `json:"status"` // captured | failed
}

type PaymentWebhookHandler struct {
	paymentRepo *repository.PaymentRepository
	txSvc       *service.TransactionService
}

func NewPaymentWebhookHandler(paymentRepo *repository.PaymentRepository, txSvc *service.TransactionService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{paymentRepo: paymentRepo, txSvc: txSvc}
}

// Handle processes the gateway callback. On a captured charge it runs exactly
// one engine operation chosen from the pending payment's metadata: a wallet
// top-up, a gateway-funded project payment, or a split settlement. Duplicate
// callbacks are acknowledged without re-applying (the COMPLETED short-circuit
// plus the engine's already-paid check).
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var payload GatewayCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[GATEWAY callback] json unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	log.Printf("[GATEWAY callback] order_id=%s payment_id=%s status=%s amount=%d", payload.OrderID, payload.GatewayPaymentID, payload.Status, payload.AmountCents)
	if payload.OrderID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	p, err := h.paymentRepo.GetByProviderRef(payload.OrderID)
	if err != nil {
		log.Printf("[GATEWAY callback] payment not found for order_id=%s", payload.OrderID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if p.Status == domain.PaymentStatusCompleted {
		log.Printf("[GATEWAY callback] payment %d already COMPLETED for order_id=%s", p.ID, payload.OrderID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if payload.Status != "captured" {
		log.Printf("[GATEWAY callback] non-captured status=%s for order_id=%s", payload.Status, payload.OrderID)
		if p.Status == domain.PaymentStatusPending {
			p.Status = domain.PaymentStatusFailed
			_ = h.paymentRepo.Update(p)
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var meta paymentMeta
	if p.Metadata != "" {
		_ = json.Unmarshal([]byte(p.Metadata), &meta)
	}

	var txErr error
	switch meta.Intent {
	case domain.PaymentIntentTopup:
		_, txErr = h.txSvc.Topup(p.UserID, p.AmountCents, payload.OrderID, payload.GatewayPaymentID)
	case domain.PaymentIntentProject:
		if meta.WalletCents > 0 {
			_, txErr = h.txSvc.SplitPayment(p.UserID, meta.ProjectID, meta.TotalCents, meta.WalletCents, meta.GatewayCents, payload.OrderID, payload.GatewayPaymentID)
		} else {
			_, txErr = h.txSvc.GatewayFundedProjectPayment(p.UserID, meta.ProjectID, p.AmountCents, payload.OrderID, payload.GatewayPaymentID)
		}
	default:
		log.Printf("[GATEWAY callback] payment %d has no intent, acknowledging", p.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// AlreadyPaid means a concurrent path settled the project first; the charge
	// itself is fine, so the payment record still completes.
	if txErr != nil && !errors.Is(txErr, service.ErrAlreadyPaid) {
		log.Printf("[GATEWAY callback] settlement failed for payment %d order_id=%s: %v", p.ID, payload.OrderID, txErr)
		p.Status = domain.PaymentStatusFailed
		_ = h.paymentRepo.Update(p)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	now := time.Now()
	p.Status = domain.PaymentStatusCompleted
	p.CompletedAt = &now
	if err := h.paymentRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	log.Printf("[GATEWAY callback] payment %d COMPLETED for order_id=%s", p.ID, payload.OrderID)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
