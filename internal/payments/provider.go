package payments

import (
	"context"
	"errors"
	"time"
)

// ErrPaymentFailed is returned when the PSP rejects the intent creation.
var ErrPaymentFailed = errors.New("payments: intent creation failed")

// IntentRequest captures the payload required to create a payment intent.
// Amount is expressed in minor currency units.
type IntentRequest struct {
	Amount         int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// Intent is the PSP handle returned to the client. The client secret is what
// the card/wallet widget needs to complete the payment.
type Intent struct {
	ID           string
	Provider     string
	ClientSecret string
	Status       string
	CreatedAt    time.Time
}

// Provider defines the contract for PSP adapters to implement.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}
