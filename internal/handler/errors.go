package handler

import (
	"errors"
	"log"
	"net/http"

	"worklink/internal/service"

	"github.com/gin-gonic/gin"
)

// respondTransactionError maps engine errors to HTTP responses.
// InsufficientBalance and AlreadyPaid are expected user-facing outcomes; the
// rest indicate caller bugs or contention.
func respondTransactionError(c *gin.Context, err error) {
	var insufficient *service.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "insufficient wallet balance",
			"available_cents": insufficient.AvailableCents,
			"required_cents":  insufficient.RequiredCents,
		})
	case errors.Is(err, service.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "project already paid"})
	case errors.Is(err, service.ErrAmountMismatch), errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrProjectNotFound), errors.Is(err, service.ErrWalletNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "wallet busy, try again"})
	default:
		log.Printf("[payment] transaction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment failed"})
	}
}
