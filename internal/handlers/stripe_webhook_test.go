package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/internal/storage"
)

const webhookSecret = "whsec_test"

// stubPayments mirrors the transactional claim: an event id is only marked
// applied when the whole call succeeds, and an injected failure leaves it
// unclaimed.
type stubPayments struct {
	failNext error
	applied  map[string]int

	lastDoctor string
	lastPlan   model.Plan
	lastAmount int64
}

func newStubPayments() *stubPayments {
	return &stubPayments{applied: make(map[string]int)}
}

func (s *stubPayments) ApplyProviderPayment(_ context.Context, _, eventID, _, doctorID string, plan model.Plan, amountCents int64) (model.SubscriptionRecord, error) {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return model.SubscriptionRecord{}, err
	}
	if s.applied[eventID] > 0 {
		return model.SubscriptionRecord{}, storage.ErrDuplicateProviderEvent
	}
	s.applied[eventID]++
	s.lastDoctor = doctorID
	s.lastPlan = plan
	s.lastAmount = amountCents
	return model.SubscriptionRecord{
		DoctorID:  doctorID,
		Status:    model.SubscriptionActive,
		Plan:      plan,
		ExpiresAt: time.Now().UTC().Add(30 * 24 * time.Hour),
	}, nil
}

func newWebhookHandler(payments *stubPayments) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		Payments:      payments,
		Logger:        slog.New(slog.DiscardHandler),
		SigningSecret: webhookSecret,
	}
}

func signedEventRequest(t *testing.T, eventID, eventType string, object map[string]any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"data":        map[string]any{"object": object},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func paymentIntent(amount int64) map[string]any {
	return map[string]any{
		"id":     "pi_1",
		"object": "payment_intent",
		"amount": amount,
		"metadata": map[string]any{
			"doctor_id": "doc-1",
			"plan":      "monthly",
		},
	}
}

func webhookStatus(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body["status"]
}

func TestStripeWebhookAppliesPayment(t *testing.T) {
	payments := newStubPayments()
	h := newWebhookHandler(payments)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedEventRequest(t, "evt_1", "payment_intent.succeeded", paymentIntent(4900)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if got := webhookStatus(t, rec); got != "applied" {
		t.Fatalf("status field = %q, want applied", got)
	}
	if payments.lastDoctor != "doc-1" || payments.lastPlan != model.PlanMonthly || payments.lastAmount != 4900 {
		t.Fatalf("applied payment = (%s, %s, %d)", payments.lastDoctor, payments.lastPlan, payments.lastAmount)
	}
}

func TestStripeWebhookDuplicateAcknowledged(t *testing.T) {
	payments := newStubPayments()
	h := newWebhookHandler(payments)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedEventRequest(t, "evt_1", "payment_intent.succeeded", paymentIntent(4900)))
	if rec.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Handle(rec, signedEventRequest(t, "evt_1", "payment_intent.succeeded", paymentIntent(4900)))
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", rec.Code)
	}
	if got := webhookStatus(t, rec); got != "already processed" {
		t.Fatalf("status field = %q, want already processed", got)
	}
	if payments.applied["evt_1"] != 1 {
		t.Fatalf("payment applied %d times, want 1", payments.applied["evt_1"])
	}
}

// A transient failure must not burn the event id: Stripe redelivers on 5xx,
// and that retry has to apply the payment.
func TestStripeWebhookRetryAfterFailureApplies(t *testing.T) {
	payments := newStubPayments()
	payments.failNext = errors.New("connection reset")
	h := newWebhookHandler(payments)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedEventRequest(t, "evt_1", "payment_intent.succeeded", paymentIntent(4900)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("failed delivery status = %d, want 500", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Handle(rec, signedEventRequest(t, "evt_1", "payment_intent.succeeded", paymentIntent(4900)))
	if rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if got := webhookStatus(t, rec); got != "applied" {
		t.Fatalf("retry status field = %q, want applied", got)
	}
	if payments.applied["evt_1"] != 1 {
		t.Fatalf("payment applied %d times, want 1", payments.applied["evt_1"])
	}
}

func TestStripeWebhookRejectedPaymentAcknowledged(t *testing.T) {
	payments := newStubPayments()
	payments.failNext = model.ErrValidation
	h := newWebhookHandler(payments)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedEventRequest(t, "evt_1", "payment_intent.succeeded", paymentIntent(100)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := webhookStatus(t, rec); got != "rejected" {
		t.Fatalf("status field = %q, want rejected", got)
	}
}

func TestStripeWebhookUnknownDoctorAcknowledged(t *testing.T) {
	payments := newStubPayments()
	payments.failNext = model.ErrNotFound
	h := newWebhookHandler(payments)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedEventRequest(t, "evt_1", "payment_intent.succeeded", paymentIntent(4900)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := webhookStatus(t, rec); got != "rejected" {
		t.Fatalf("status field = %q, want rejected", got)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	payments := newStubPayments()
	h := newWebhookHandler(payments)

	body, _ := json.Marshal(map[string]any{"id": "evt_1", "type": "payment_intent.succeeded"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/stripe/webhook", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")

	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(payments.applied) != 0 {
		t.Fatal("payment applied despite invalid signature")
	}
}

func TestStripeWebhookIgnoresOtherEvents(t *testing.T) {
	payments := newStubPayments()
	h := newWebhookHandler(payments)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedEventRequest(t, "evt_1", "charge.refunded", map[string]any{"id": "ch_1"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := webhookStatus(t, rec); got != "ignored" {
		t.Fatalf("status field = %q, want ignored", got)
	}
	if len(payments.applied) != 0 {
		t.Fatal("payment applied for an unrelated event type")
	}
}
