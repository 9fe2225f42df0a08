package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/internal/storage"
)

const maxWebhookBody = 64 * 1024

// PaymentApplier applies a provider payment with webhook-level idempotency:
// the event id claim and the subscription change commit together, and a
// replayed event id surfaces storage.ErrDuplicateProviderEvent.
type PaymentApplier interface {
	ApplyProviderPayment(ctx context.Context, provider, eventID, eventType, doctorID string, plan model.Plan, amountCents int64) (model.SubscriptionRecord, error)
}

// StripeWebhookHandler turns verified payment_intent.succeeded events into
// subscription payments. Metadata on the intent carries doctor_id and plan.
type StripeWebhookHandler struct {
	Payments      PaymentApplier
	Logger        *slog.Logger
	SigningSecret string
}

func (h *StripeWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "failed to read body"})
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.SigningSecret)
	if err != nil {
		h.Logger.WarnContext(r.Context(), "stripe signature verification failed", "err", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid signature"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed event payload"})
			return
		}
		doctorID := intent.Metadata["doctor_id"]
		plan := model.Plan(intent.Metadata["plan"])
		if doctorID == "" || plan == "" {
			h.Logger.WarnContext(r.Context(), "payment intent missing metadata", "event_id", event.ID)
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}

		// Claim and apply commit together. Stripe retries deliveries: a
		// duplicate of an applied event must be acknowledged without
		// extending the subscription twice, while a failed apply must leave
		// the event id unclaimed so the retry can succeed.
		rec, err := h.Payments.ApplyProviderPayment(r.Context(), "stripe", event.ID, string(event.Type), doctorID, plan, intent.Amount)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrDuplicateProviderEvent):
				writeJSON(w, http.StatusOK, map[string]string{"status": "already processed"})
			case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrNotFound):
				// A mismatched amount or unknown doctor is a provider
				// configuration problem, not a retryable failure.
				// Acknowledge so Stripe stops redelivering.
				h.Logger.ErrorContext(r.Context(), "payment rejected", "event_id", event.ID, "err", err)
				writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
			default:
				writeDomainError(r.Context(), w, h.Logger, err)
			}
			return
		}
		h.Logger.InfoContext(r.Context(), "subscription payment applied",
			"event_id", event.ID,
			"doctor_id", doctorID,
			"expires_at", rec.ExpiresAt,
		)
		writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})

	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}
