// internal/services/payment_service.go
package services

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/sapphirus/sapphirus-backend/internal/config"
)

// PaymentService wraps the Stripe client. Amounts cross this boundary as
// decimal currency units and convert to minor units exactly once, here.
type PaymentService struct {
	config *config.Config
}

func NewPaymentService(cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey
	return &PaymentService{config: cfg}
}

type PaymentIntentResult struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

// PublicConfig is what the storefront needs to mount the payment form.
type PublicConfig struct {
	PublishableKey string `json:"publishable_key"`
	Currency       string `json:"currency"`
}

func (s *PaymentService) PublicConfig() PublicConfig {
	return PublicConfig{
		PublishableKey: s.config.Payment.StripePublishableKey,
		Currency:       s.config.Payment.Currency,
	}
}

func (s *PaymentService) CreatePaymentIntent(amount float64, currency string, metadata map[string]string) (*PaymentIntentResult, error) {
	if currency == "" {
		currency = s.config.Payment.Currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"intent_id": intent.ID,
		"amount":    amount,
		"currency":  currency,
	}).Info("Payment intent created")

	return &PaymentIntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *PaymentService) CancelPaymentIntent(intentID string) error {
	if _, err := paymentintent.Cancel(intentID, nil); err != nil {
		return fmt.Errorf("failed to cancel payment intent: %w", err)
	}
	return nil
}

// RefundPayment refunds the full captured amount of a payment intent.
func (s *PaymentService) RefundPayment(intentID, reason string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	logrus.WithField("intent_id", intentID).Info("Refund created")
	return nil
}

// VerifyWebhook checks the signature before any payload field is trusted.
func (s *PaymentService) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.config.Payment.StripeWebhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return event, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
