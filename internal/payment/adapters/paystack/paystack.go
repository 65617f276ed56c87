// Package paystack implements webhook verification and parsing for Paystack.
package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/rentfold/rentfold/internal/payment/domain"
	subscriptiondomain "github.com/rentfold/rentfold/internal/subscription/domain"
)

const SignatureHeader = "x-paystack-signature"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "paystack"
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.PaymentAdapter, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return &Adapter{secretKey: secret}, nil
}

type Adapter struct {
	secretKey string
}

// Verify checks the HMAC-SHA512 of the raw body against the signature
// header. Paystack signs with the account secret key.
func (a *Adapter) Verify(_ context.Context, payload []byte, headers http.Header) error {
	signature := strings.TrimSpace(headers.Get(SignatureHeader))
	if signature == "" {
		return paymentdomain.ErrInvalidSignature
	}

	mac := hmac.New(sha512.New, []byte(a.secretKey))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

type paystackEvent struct {
	Event string       `json:"event"`
	Data  paystackData `json:"data"`
}

type paystackData struct {
	ID                   json.Number      `json:"id"`
	Reference            string           `json:"reference"`
	OfflineReference     string           `json:"offline_reference"`
	RequestCode          string           `json:"request_code"`
	TransactionReference string           `json:"transaction_reference"`
	SubscriptionCode     string           `json:"subscription_code"`
	Status               string           `json:"status"`
	Description          string           `json:"description"`
	Amount               int64            `json:"amount"`
	Currency             string           `json:"currency"`
	PaidAt               string           `json:"paid_at"`
	NextPaymentDate      string           `json:"next_payment_date"`
	Customer             paystackCustomer `json:"customer"`
	Plan                 paystackPlan     `json:"plan"`
	Subscription         struct {
		SubscriptionCode string `json:"subscription_code"`
	} `json:"subscription"`
	Metadata struct {
		InvoiceID string `json:"invoice_id"`
	} `json:"metadata"`
}

type paystackCustomer struct {
	CustomerCode string `json:"customer_code"`
}

type paystackPlan struct {
	PlanCode string `json:"plan_code"`
	Interval string `json:"interval"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (a *Adapter) Parse(_ context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var event paystackEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	name := strings.TrimSpace(event.Event)
	if name == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	switch name {
	case "charge.success", "paymentrequest.success":
		return a.parsePayment(name, event.Data, payload, paymentdomain.EventTypePaymentSucceeded)
	case "paymentrequest.pending":
		return a.parsePayment(name, event.Data, payload, paymentdomain.EventTypePaymentPending)
	case "invoice.payment_failed":
		return a.parsePaymentFailed(name, event.Data, payload)
	case "subscription.create", "subscription.not_renew", "subscription.disable":
		return a.parseSubscription(name, event.Data, payload)
	case "refund.processed":
		return a.parseRefund(name, event.Data, payload)
	default:
		return nil, paymentdomain.ErrEventIgnored
	}
}

func (a *Adapter) parsePayment(name string, data paystackData, payload []byte, eventType string) (*paymentdomain.PaymentEvent, error) {
	reference := firstNonEmpty(data.Reference, data.OfflineReference, data.RequestCode)
	if reference == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	return &paymentdomain.PaymentEvent{
		Provider:         "paystack",
		ProviderEventID:  eventID(name, data, reference),
		Type:             eventType,
		ProviderRef:      reference,
		InvoiceReference: firstNonEmpty(data.Metadata.InvoiceID, data.RequestCode),
		CustomerCode:     data.Customer.CustomerCode,
		Amount:           data.Amount,
		Currency:         strings.ToUpper(data.Currency),
		OccurredAt:       parseTime(data.PaidAt),
		RawPayload:       payload,
	}, nil
}

func (a *Adapter) parsePaymentFailed(name string, data paystackData, payload []byte) (*paymentdomain.PaymentEvent, error) {
	reason := data.Description
	if reason == "" {
		reason = "charge attempt failed"
	}
	return &paymentdomain.PaymentEvent{
		Provider:        "paystack",
		ProviderEventID: eventID(name, data, data.Subscription.SubscriptionCode),
		Type:            paymentdomain.EventTypePaymentFailed,
		CustomerCode:    data.Customer.CustomerCode,
		FailureReason:   reason,
		RawPayload:      payload,
		Subscription: &subscriptiondomain.ProviderUpdate{
			EventType:        "invoice.payment_failed",
			CustomerCode:     data.Customer.CustomerCode,
			SubscriptionCode: data.Subscription.SubscriptionCode,
			FailureReason:    reason,
		},
	}, nil
}

func (a *Adapter) parseSubscription(name string, data paystackData, payload []byte) (*paymentdomain.PaymentEvent, error) {
	code := firstNonEmpty(data.SubscriptionCode, data.Subscription.SubscriptionCode)
	if code == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	update := &subscriptiondomain.ProviderUpdate{
		EventType:        name,
		CustomerCode:     data.Customer.CustomerCode,
		SubscriptionCode: code,
		Status:           strings.ToLower(strings.TrimSpace(data.Status)),
		PlanCode:         data.Plan.PlanCode,
		Amount:           firstPositive(data.Amount, data.Plan.Amount),
		Currency:         strings.ToUpper(firstNonEmpty(data.Currency, data.Plan.Currency)),
		Interval:         data.Plan.Interval,
	}
	if next := parseTime(data.NextPaymentDate); !next.IsZero() {
		update.NextPaymentAt = &next
	}

	return &paymentdomain.PaymentEvent{
		Provider:        "paystack",
		ProviderEventID: eventID(name, data, code),
		Type:            paymentdomain.EventTypeSubscriptionUpdate,
		CustomerCode:    data.Customer.CustomerCode,
		RawPayload:      payload,
		Subscription:    update,
	}, nil
}

func (a *Adapter) parseRefund(name string, data paystackData, payload []byte) (*paymentdomain.PaymentEvent, error) {
	reference := firstNonEmpty(data.TransactionReference, data.Reference)
	if reference == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}
	return &paymentdomain.PaymentEvent{
		Provider:        "paystack",
		ProviderEventID: eventID(name, data, reference),
		Type:            paymentdomain.EventTypeRefunded,
		ProviderRef:     reference,
		CustomerCode:    data.Customer.CustomerCode,
		Amount:          data.Amount,
		Currency:        strings.ToUpper(data.Currency),
		RawPayload:      payload,
	}, nil
}

// eventID builds a deterministic dedup key. Paystack does not ship a
// top-level event ID, so replays of the same event produce the same key.
func eventID(name string, data paystackData, fallback string) string {
	if id := data.ID.String(); id != "" && id != "0" {
		return fmt.Sprintf("%s:%s", name, id)
	}
	return fmt.Sprintf("%s:%s", name, fallback)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstPositive(values ...int64) int64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
