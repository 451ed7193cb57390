package checkoutpay

import (
	"context"
)

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

// Credentials as kept in the vault. When the vault has no entry the
// statically configured key pair is used instead.
type Credentials struct {
	KeyID     string
	KeySecret string
}

const credentialsVaultKey = "credentials_razorpay"

type CreateOrderRequest struct {
	AmountInCents int64  `json:"amount"`
	Currency      string `json:"currency"`
	Receipt       string `json:"receipt"`
}

type CreateOrderResponse struct {
	OrderRef string `json:"id"`
	Status   string `json:"status"`
}

//go:generate mockgen -source=api.go -package checkoutpay -destination payer_mock.go Payer
type Payer interface {
	// CreateOrder registers the amount-to-collect with the payment gateway
	// and returns the order token the hosted widget needs
	CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error)
	UseCredentials(keyID string, keySecret string)
}
