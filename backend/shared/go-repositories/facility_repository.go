package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

type FacilityRepository interface {
	Create(ctx context.Context, f *models.Facility) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Facility, error)
	ListByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*models.Facility, error)
	ListAll(ctx context.Context) ([]*models.Facility, error)

	UpdateIfVersion(ctx context.Context, f *models.Facility, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Facility) error) error

	// SoftDeleteIfVacant marks the facility and all of its units deleted in
	// one transaction. It fails with ErrFacilityOccupied when any unit is
	// not VACANT and with pgx.ErrNoRows when the facility is gone.
	SoftDeleteIfVacant(ctx context.Context, id uuid.UUID) error
}

type facilityRepo struct {
	*BaseVersionedRepo[*models.Facility]
	db DB
}

func NewFacilityRepository(db DB) FacilityRepository {
	r := &facilityRepo{db: db}
	selectStmt := baseSelectFacility() + " WHERE id=$1 AND deleted_at IS NULL"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanFacility)
	return r
}

/* ---------- create ---------- */

func (r *facilityRepo) Create(ctx context.Context, f *models.Facility) error {
	settings, err := json.Marshal(f.Settings)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO facilities (
			id, company_id, manager_id, name,
			street, city, state, zip_code,
			contact_email, contact_phone, status, settings,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, NOW(), NOW(), 1)
	`,
		f.ID, f.CompanyID, f.ManagerID, f.Name,
		f.Address.Street, f.Address.City, f.Address.State, f.Address.ZipCode,
		f.Contact.Email, f.Contact.PhoneNumber, f.Status, settings,
	)
	if err != nil {
		return mapWriteError(err)
	}
	f.RowVersion = 1
	return nil
}

/* ---------- reads ---------- */

func (r *facilityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Facility, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *facilityRepo) ListByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*models.Facility, error) {
	rows, err := r.db.Query(ctx,
		baseSelectFacility()+" WHERE company_id=$1 AND deleted_at IS NULL ORDER BY name", companyID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, r.scanFacility)
}

func (r *facilityRepo) ListAll(ctx context.Context) ([]*models.Facility, error) {
	rows, err := r.db.Query(ctx, baseSelectFacility()+" WHERE deleted_at IS NULL ORDER BY name")
	if err != nil {
		return nil, err
	}
	return scanAll(rows, r.scanFacility)
}

/* ---------- update / delete ---------- */

func (r *facilityRepo) UpdateIfVersion(ctx context.Context, f *models.Facility, expected int64) (pgconn.CommandTag, error) {
	settings, err := json.Marshal(f.Settings)
	if err != nil {
		return nil, err
	}
	// company_id is immutable.
	return r.db.Exec(ctx, `
		UPDATE facilities
		SET name=$1, manager_id=$2,
		    street=$3, city=$4, state=$5, zip_code=$6,
		    contact_email=$7, contact_phone=$8, status=$9, settings=$10,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$11 AND row_version=$12 AND deleted_at IS NULL
	`,
		f.Name, f.ManagerID,
		f.Address.Street, f.Address.City, f.Address.State, f.Address.ZipCode,
		f.Contact.Email, f.Contact.PhoneNumber, f.Status, settings,
		f.ID, expected,
	)
}

func (r *facilityRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Facility) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *facilityRepo) SoftDeleteIfVacant(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT TRUE FROM facilities WHERE id=$1 AND deleted_at IS NULL FOR UPDATE
		`, id).Scan(&exists); err != nil {
			return err
		}

		// Lock the units so no move-in can slip in between the check and the delete.
		var occupied int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM (
				SELECT status FROM units
				WHERE facility_id=$1 AND deleted_at IS NULL
				FOR UPDATE
			) u WHERE u.status <> $2
		`, id, models.UnitStatusVacant).Scan(&occupied); err != nil {
			return err
		}
		if occupied > 0 {
			return ErrFacilityOccupied
		}

		if _, err := tx.Exec(ctx, `
			UPDATE units SET deleted_at=NOW(), updated_at=NOW(), row_version=row_version+1
			WHERE facility_id=$1 AND deleted_at IS NULL
		`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE facilities SET deleted_at=NOW(), updated_at=NOW(), row_version=row_version+1
			WHERE id=$1
		`, id)
		return err
	})
}

/* ---------- internals ---------- */

func baseSelectFacility() string {
	return `
		SELECT id, company_id, manager_id, name,
		       street, city, state, zip_code,
		       contact_email, contact_phone, status, settings,
		       created_at, updated_at, deleted_at, row_version
		FROM facilities`
}

func (r *facilityRepo) scanFacility(row pgx.Row) (*models.Facility, error) {
	var (
		f         models.Facility
		settings  []byte
		deletedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&f.ID, &f.CompanyID, &f.ManagerID, &f.Name,
		&f.Address.Street, &f.Address.City, &f.Address.State, &f.Address.ZipCode,
		&f.Contact.Email, &f.Contact.PhoneNumber, &f.Status, &settings,
		&f.CreatedAt, &f.UpdatedAt, &deletedAt, &f.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(settings) > 0 {
		_ = json.Unmarshal(settings, &f.Settings)
	}
	f.DeletedAt = timePtr(deletedAt)
	return &f, nil
}
