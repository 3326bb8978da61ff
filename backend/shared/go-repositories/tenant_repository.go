package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

// TenantRepository has no Create: tenants are only inserted through
// UnitRepository.SaveOccupancy so the unit binding lands with them.
type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListByFacilityID(ctx context.Context, facilityID uuid.UUID, includeArchived bool) ([]*models.Tenant, error)
	UpdateIfVersion(ctx context.Context, t *models.Tenant, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Tenant) error) error
}

type tenantRepo struct {
	*BaseVersionedRepo[*models.Tenant]
	db DB
}

func NewTenantRepository(db DB) TenantRepository {
	r := &tenantRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectTenant()+" WHERE id=$1", scanTenant)
	return r
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *tenantRepo) ListByFacilityID(ctx context.Context, facilityID uuid.UUID, includeArchived bool) ([]*models.Tenant, error) {
	q := baseSelectTenant() + " WHERE facility_id=$1"
	if !includeArchived {
		q += " AND archived_at IS NULL"
	}
	rows, err := r.db.Query(ctx, q+" ORDER BY last_name, first_name", facilityID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanTenant)
}

func (r *tenantRepo) UpdateIfVersion(ctx context.Context, t *models.Tenant, expected int64) (pgconn.CommandTag, error) {
	return updateTenant(ctx, r.db, t, expected)
}

func (r *tenantRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Tenant) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

/* ---------- internals ---------- */

func insertTenant(ctx context.Context, db DB, t *models.Tenant) error {
	_, err := db.Exec(ctx, `
		INSERT INTO tenants (
			id, facility_id, company_id, first_name, last_name,
			contact_email, contact_phone, street, city, state, zip_code,
			unit_ids, created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::uuid[], NOW(), NOW(), 1)
	`,
		t.ID, t.FacilityID, t.CompanyID, t.FirstName, t.LastName,
		t.Contact.Email, t.Contact.PhoneNumber,
		t.Address.Street, t.Address.City, t.Address.State, t.Address.ZipCode,
		uuidStrings(t.UnitIDs),
	)
	return err
}

func updateTenant(ctx context.Context, db DB, t *models.Tenant, expected int64) (pgconn.CommandTag, error) {
	return db.Exec(ctx, `
		UPDATE tenants
		SET first_name=$1, last_name=$2, contact_email=$3, contact_phone=$4,
		    street=$5, city=$6, state=$7, zip_code=$8,
		    unit_ids=$9::uuid[], archived_at=$10,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$11 AND row_version=$12
	`,
		t.FirstName, t.LastName, t.Contact.Email, t.Contact.PhoneNumber,
		t.Address.Street, t.Address.City, t.Address.State, t.Address.ZipCode,
		uuidStrings(t.UnitIDs), t.ArchivedAt,
		t.ID, expected,
	)
}

func baseSelectTenant() string {
	return `
		SELECT id, facility_id, company_id, first_name, last_name,
		       contact_email, contact_phone, street, city, state, zip_code,
		       unit_ids::text[], created_at, updated_at, archived_at, row_version
		FROM tenants`
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var (
		t          models.Tenant
		unitIDs    []string
		archivedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&t.ID, &t.FacilityID, &t.CompanyID, &t.FirstName, &t.LastName,
		&t.Contact.Email, &t.Contact.PhoneNumber,
		&t.Address.Street, &t.Address.City, &t.Address.State, &t.Address.ZipCode,
		&unitIDs, &t.CreatedAt, &t.UpdatedAt, &archivedAt, &t.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	ids, err := parseUUIDs(unitIDs)
	if err != nil {
		return nil, err
	}
	t.UnitIDs = ids
	t.ArchivedAt = timePtr(archivedAt)
	return &t, nil
}
