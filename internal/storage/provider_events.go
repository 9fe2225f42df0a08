package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrDuplicateProviderEvent means this provider event id was already
// processed; webhook retries must be acknowledged without reapplying.
var ErrDuplicateProviderEvent = errors.New("provider event already processed")

// claimProviderEvent inserts the provider-assigned event id inside the
// caller's transaction. The claim holds only if that transaction commits, so
// a rolled-back apply leaves the id free for the provider's retry. The
// primary key makes the claim atomic across concurrent deliveries.
func claimProviderEvent(ctx context.Context, tx pgx.Tx, provider, eventID, eventType string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO provider_events (provider, event_id, event_type)
		VALUES ($1, $2, $3)
	`, provider, eventID, eventType)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateProviderEvent
		}
		return err
	}
	return nil
}
