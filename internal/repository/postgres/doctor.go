package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

// doctorRow adds the array column that model.Doctor keeps as a plain slice.
type doctorRow struct {
	model.Doctor
	AllTime pq.StringArray `db:"all_time"`
}

func (row *doctorRow) toModel() *model.Doctor {
	d := row.Doctor
	d.AllTime = []string(row.AllTime)
	return &d
}

const selectDoctors = `
	SELECT a.id, a.email, a.password_hash, a.role, a.created_at, a.updated_at,
		d.clinic_id, d.specialty, d.all_time
	FROM doctors d
	JOIN accounts a ON a.id = d.account_id
`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	doctor.Role = model.RoleDoctor
	stampAccount(&doctor.Account)
	if len(doctor.AllTime) == 0 {
		doctor.AllTime = model.NewSlotCatalog()
	}

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertAccount, &doctor.Account); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doctors (account_id, clinic_id, specialty, all_time)
			VALUES ($1, $2, $3, $4)
		`, doctor.ID, doctor.ClinicID, doctor.Specialty, pq.Array(doctor.AllTime))
		return err
	})
	return mapError("failed to create doctor", err)
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var row doctorRow
	if err := r.db.GetContext(ctx, &row, selectDoctors+" WHERE d.account_id = $1", id); err != nil {
		return nil, mapError("failed to get doctor", err)
	}
	return row.toModel(), nil
}

func (r *doctorRepository) List(ctx context.Context, filters model.DoctorFilters) ([]*model.Doctor, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters.ClinicID != uuid.Nil {
		args = append(args, filters.ClinicID)
		conds = append(conds, "d.clinic_id = ?")
	}
	if filters.Specialty != "" {
		args = append(args, filters.Specialty)
		conds = append(conds, "d.specialty = ?")
	}

	query := selectDoctors
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.email"

	var rows []doctorRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, mapError("failed to list doctors", err)
	}

	doctors := make([]*model.Doctor, 0, len(rows))
	for i := range rows {
		doctors = append(doctors, rows[i].toModel())
	}
	return doctors, nil
}
