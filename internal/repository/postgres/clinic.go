package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `
		SELECT id, name, location, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`
	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, id); err != nil {
		return nil, mapError("failed to get clinic", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) List(ctx context.Context) ([]*model.Clinic, error) {
	query := `
		SELECT id, name, location, created_at, updated_at
		FROM clinics
		ORDER BY name
	`
	var clinics []*model.Clinic
	if err := r.db.SelectContext(ctx, &clinics, query); err != nil {
		return nil, mapError("failed to list clinics", err)
	}
	return clinics, nil
}

func (r *clinicRepository) SeedIfEmpty(ctx context.Context, clinics []*model.Clinic) (int, error) {
	inserted := 0
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Serialize concurrent seeders so two replicas booting together
		// cannot both see an empty table.
		if _, err := tx.ExecContext(ctx, `LOCK TABLE clinics IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM clinics`); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, c := range clinics {
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
			c.CreatedAt, c.UpdatedAt = now, now
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO clinics (id, name, location, created_at, updated_at)
				VALUES (:id, :name, :location, :created_at, :updated_at)
			`, c); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, mapError("failed to seed clinics", err)
	}
	return inserted, nil
}
