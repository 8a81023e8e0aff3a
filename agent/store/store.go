package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contractx "github.com/careloop/crm/agent/contract"
)

const defaultInteractionType = "consultation"

// Store is the persistence contract shared by the business tools and the
// API surface. Mutating operations are atomic per call and refresh the
// record's updated timestamp.
type Store interface {
	CreateInteraction(ctx context.Context, rec *Interaction) (*Interaction, error)
	LatestInteraction(ctx context.Context) (*Interaction, error)
	InteractionByID(ctx context.Context, id string) (*Interaction, error)
	UpdateInteraction(ctx context.Context, id string, patch InteractionPatch) (*Interaction, error)
	ListInteractions(ctx context.Context) ([]Interaction, error)
	ListProviders(ctx context.Context) ([]ProviderProfile, error)
}

// BunStore implements Store on top of a bun.DB (Postgres or SQLite).
type BunStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ Store = (*BunStore)(nil)

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db, now: time.Now}
}

// CreateInteraction inserts a new record, generating its identifier and
// timestamps. The passed record is returned with those fields filled.
func (s *BunStore) CreateInteraction(ctx context.Context, rec *Interaction) (*Interaction, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: interaction is nil", contractx.ErrValidation)
	}

	now := s.now().UTC()
	rec.ID = uuid.NewString()
	if rec.InteractionType == "" {
		rec.InteractionType = defaultInteractionType
	}
	if rec.InteractionDate.IsZero() {
		rec.InteractionDate = now
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: insert interaction: %v", contractx.ErrStorage, err)
	}
	return rec, nil
}

// LatestInteraction returns the most recently created record.
func (s *BunStore) LatestInteraction(ctx context.Context) (*Interaction, error) {
	rec := new(Interaction)
	err := s.db.NewSelect().Model(rec).Order("created_at DESC").Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contractx.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select latest interaction: %v", contractx.ErrStorage, err)
	}
	return rec, nil
}

func (s *BunStore) InteractionByID(ctx context.Context, id string) (*Interaction, error) {
	rec := new(Interaction)
	err := s.db.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contractx.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select interaction id=%s: %v", contractx.ErrStorage, id, err)
	}
	return rec, nil
}

// UpdateInteraction applies the non-nil fields of patch to the identified
// record inside one transaction and refreshes its updated timestamp.
func (s *BunStore) UpdateInteraction(ctx context.Context, id string, patch InteractionPatch) (*Interaction, error) {
	rec := new(Interaction)

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return contractx.ErrNotFound
			}
			return fmt.Errorf("%w: select interaction id=%s: %v", contractx.ErrStorage, id, err)
		}

		if patch.Diagnosis != nil {
			rec.Diagnosis = patch.Diagnosis
		}
		if patch.Prescription != nil {
			rec.Prescription = patch.Prescription
		}
		if patch.FollowUpDate != nil {
			rec.FollowUpDate = patch.FollowUpDate
		}
		if patch.IsCompliant != nil {
			rec.IsCompliant = *patch.IsCompliant
		}
		rec.UpdatedAt = s.now().UTC()

		if _, err := tx.NewUpdate().Model(rec).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("%w: update interaction id=%s: %v", contractx.ErrStorage, id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListInteractions returns all records, newest first.
func (s *BunStore) ListInteractions(ctx context.Context) ([]Interaction, error) {
	var recs []Interaction
	if err := s.db.NewSelect().Model(&recs).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list interactions: %v", contractx.ErrStorage, err)
	}
	return recs, nil
}

func (s *BunStore) ListProviders(ctx context.Context) ([]ProviderProfile, error) {
	var profiles []ProviderProfile
	if err := s.db.NewSelect().Model(&profiles).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list providers: %v", contractx.ErrStorage, err)
	}
	return profiles, nil
}
