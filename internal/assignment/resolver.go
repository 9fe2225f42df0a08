package assignment

import (
	"context"
	"fmt"

	"github.com/arefin-anik/docmarket/internal/model"
)

// Store exposes the three historical places an assistant-to-doctor link can
// live. Each lookup reports (doctorID, found); absence is not an error.
type Store interface {
	// ClinicDoctor follows assistant -> clinic -> clinic's doctor.
	ClinicDoctor(ctx context.Context, assistantID string) (string, bool, error)
	// LegacyAssignedDoctor reads the old assigned_doctor_id profile field.
	LegacyAssignedDoctor(ctx context.Context, assistantID string) (string, bool, error)
	// JoinTableDoctor reads the assistant/doctor join table.
	JoinTableDoctor(ctx context.Context, assistantID string) (string, bool, error)
}

// Strategy is one tier of the lookup chain. The tiers exist because each
// represents a different historical data-entry path; they are consulted in a
// fixed priority order and must not be collapsed into a single table.
type Strategy struct {
	Name   string
	Lookup func(ctx context.Context, assistantID string) (string, bool, error)
}

type Resolver struct {
	strategies []Strategy
}

func NewResolver(store Store) *Resolver {
	return &Resolver{
		strategies: []Strategy{
			{Name: "clinic", Lookup: store.ClinicDoctor},
			{Name: "legacy_profile", Lookup: store.LegacyAssignedDoctor},
			{Name: "join_table", Lookup: store.JoinTableDoctor},
		},
	}
}

// ResolveAssignedDoctor returns the doctor the assistant acts for, trying
// each strategy in priority order; the first match wins. ok=false means the
// assistant has no working scope and every doctor-scoped operation must fail
// with model.ErrNotAuthorized.
func (r *Resolver) ResolveAssignedDoctor(ctx context.Context, assistantID string) (string, bool, error) {
	if assistantID == "" {
		return "", false, fmt.Errorf("%w: assistant id is required", model.ErrValidation)
	}
	for _, s := range r.strategies {
		doctorID, ok, err := s.Lookup(ctx, assistantID)
		if err != nil {
			return "", false, fmt.Errorf("assignment lookup %s: %w", s.Name, err)
		}
		if ok && doctorID != "" {
			return doctorID, true, nil
		}
	}
	return "", false, nil
}
