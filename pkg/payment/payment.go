package payment

import "context"

// OrderRequest asks the gateway to create a charge for the client to complete.
type OrderRequest struct {
	OrderID     string // our internal order id, echoed back in the webhook
	AmountCents int64
	Currency    string
	CallbackURL string
	Description string
	Notes       map[string]string
}

// OrderResponse is the gateway's handle for a created order.
type OrderResponse struct {
	GatewayOrderID string
	Status         string
	CheckoutURL    string
}

// Provider creates orders against an external payment gateway. Webhook
// verification and charge capture happen gateway-side; the engine only sees
// confirmed amounts and reference ids.
type Provider interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error)
}
