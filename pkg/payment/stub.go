package payment

import (
	"context"
	"fmt"
)

// StubProvider accepts every order. Used in development and tests.
type StubProvider struct{}

func NewStubProvider() *StubProvider { return &StubProvider{} }

func (p *StubProvider) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	return &OrderResponse{
		GatewayOrderID: "stub_" + req.OrderID,
		Status:         "created",
		CheckoutURL:    fmt.Sprintf("https://gateway.invalid/checkout/%s", req.OrderID),
	}, nil
}
