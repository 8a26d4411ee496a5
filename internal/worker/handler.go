package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dataqueue/dataqueue/internal/dto"
)

// HandlerFunc executes one job's payload. The queue core never interprets
// payloads; handlers own deserialization and validation per job type.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Registry maps a job type to its handler.
type Registry map[string]HandlerFunc

// DefaultRegistry wires the built-in demo handlers.
func DefaultRegistry() Registry {
	return Registry{
		"send_email":      SendEmailHandler,
		"process_payment": ProcessPaymentHandler,
		"send_webhook":    SendWebhookHandler,
	}
}

// SendEmailHandler simulates sending an email
func SendEmailHandler(ctx context.Context, payload json.RawMessage) error {
	var email dto.SendEmailPayload
	if err := json.Unmarshal(payload, &email); err != nil {
		return fmt.Errorf("unmarshal email payload: %w", err)
	}

	// Simulate email sending delay
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	log.Printf("📧 Sent email to %s: %s", email.To, email.Subject)
	return nil
}

// ProcessPaymentHandler simulates payment processing
func ProcessPaymentHandler(ctx context.Context, payload json.RawMessage) error {
	var payment dto.ProcessPaymentPayload
	if err := json.Unmarshal(payload, &payment); err != nil {
		return fmt.Errorf("unmarshal payment payload: %w", err)
	}

	// Simulate payment gateway delay
	select {
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	log.Printf("💳 Processed payment %s: %.2f %s", payment.PaymentID, payment.Amount, payment.Currency)
	return nil
}

// SendWebhookHandler simulates an HTTP webhook delivery
func SendWebhookHandler(ctx context.Context, payload json.RawMessage) error {
	var webhook dto.SendWebhookPayload
	if err := json.Unmarshal(payload, &webhook); err != nil {
		return fmt.Errorf("unmarshal webhook payload: %w", err)
	}

	delay := time.Duration(webhook.Timeout) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return fmt.Errorf("webhook cancelled or timeout: %w", ctx.Err())
	}

	log.Printf("🔔 Delivered webhook %s %s", webhook.Method, webhook.URL)
	return nil
}
