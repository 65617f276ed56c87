package domain

import (
	"context"
	"errors"
	"net/http"
)

// PaymentAdapter verifies and parses raw provider webhooks.
type PaymentAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}

// AdapterFactory builds an adapter for its provider from config.
type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (PaymentAdapter, error)
}

type AdapterConfig struct {
	SecretKey string
}

type Service interface {
	// IngestWebhook verifies the signature, parses the payload and hands
	// the canonical event to ProcessEvent.
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
	ProcessEvent(ctx context.Context, event *PaymentEvent) error
}

var (
	ErrInvalidProvider       = errors.New("invalid_provider")
	ErrProviderNotFound      = errors.New("provider_not_found")
	ErrInvalidConfig         = errors.New("invalid_config")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
)
