package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

/* ───────────── public interface ───────────── */

// OccupancyChange is a unit write plus the matching tenant write. Both are
// applied in one transaction, each guarded by its expected row_version.
type OccupancyChange struct {
	Unit                *models.Unit
	ExpectedUnitVersion int64

	Tenant                *models.Tenant
	ExpectedTenantVersion int64
	CreateTenant          bool // insert Tenant instead of updating it
	DeleteTenant          bool // hard-delete Tenant instead of updating it
}

type UnitRepository interface {
	Create(ctx context.Context, u *models.Unit) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	ListByFacilityID(ctx context.Context, facilityID uuid.UUID) ([]*models.Unit, error)

	UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error
	SoftDeleteIfVacant(ctx context.Context, id uuid.UUID) error

	// SaveOccupancy writes a unit/tenant binding change atomically. A stale
	// version on either side yields utils.ErrRowVersionConflict and nothing
	// is written.
	SaveOccupancy(ctx context.Context, ch *OccupancyChange) error
}

/* ───────────── implementation ───────────── */

type unitRepo struct {
	*BaseVersionedRepo[*models.Unit]
	db DB
}

func NewUnitRepository(db DB) UnitRepository {
	r := &unitRepo{db: db}
	selectStmt := baseSelectUnit() + " WHERE id=$1 AND deleted_at IS NULL"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanUnit)
	return r
}

/* ---------- create ---------- */

func (r *unitRepo) Create(ctx context.Context, u *models.Unit) error {
	specs, err := json.Marshal(u.Specifications)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO units (
			id, facility_id, company_id, unit_number, unit_type, specifications,
			status, availability, tenant_id,
			price_per_month, balance, prepaid_credit,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, NOW(), NOW(), 1)
	`,
		u.ID, u.FacilityID, u.CompanyID, u.UnitNumber, u.UnitType, specs,
		u.Status, u.Availability, u.TenantID,
		u.PaymentInfo.PricePerMonth, u.PaymentInfo.Balance, u.PaymentInfo.PrepaidCredit,
	)
	if err != nil {
		return mapWriteError(err)
	}
	u.RowVersion = 1
	return nil
}

/* ---------- reads ---------- */

func (r *unitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *unitRepo) ListByFacilityID(ctx context.Context, facilityID uuid.UUID) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx,
		baseSelectUnit()+" WHERE facility_id=$1 AND deleted_at IS NULL ORDER BY unit_number", facilityID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, r.scanUnit)
}

/* ---------- update / delete ---------- */

func (r *unitRepo) UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	return updateUnit(ctx, r.db, u, expected)
}

func (r *unitRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *unitRepo) SoftDeleteIfVacant(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE units SET deleted_at=NOW(), updated_at=NOW(), row_version=row_version+1
		WHERE id=$1 AND deleted_at IS NULL AND status=$2
	`, id, models.UnitStatusVacant)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return pgx.ErrNoRows
	}
	return ErrUnitOccupied
}

func (r *unitRepo) SaveOccupancy(ctx context.Context, ch *OccupancyChange) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := updateUnit(ctx, tx, ch.Unit, ch.ExpectedUnitVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return utils.ErrRowVersionConflict
		}

		if ch.Tenant == nil {
			return nil
		}
		switch {
		case ch.CreateTenant:
			return insertTenant(ctx, tx, ch.Tenant)
		case ch.DeleteTenant:
			tag, err = tx.Exec(ctx,
				`DELETE FROM tenants WHERE id=$1 AND row_version=$2`,
				ch.Tenant.ID, ch.ExpectedTenantVersion)
		default:
			tag, err = updateTenant(ctx, tx, ch.Tenant, ch.ExpectedTenantVersion)
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return utils.ErrRowVersionConflict
		}
		return nil
	})
	if err != nil {
		return mapWriteError(err)
	}

	ch.Unit.RowVersion = ch.ExpectedUnitVersion + 1
	if ch.Tenant != nil {
		if ch.CreateTenant {
			ch.Tenant.RowVersion = 1
		} else {
			ch.Tenant.RowVersion = ch.ExpectedTenantVersion + 1
		}
	}
	return nil
}

/* ---------- internals ---------- */

func updateUnit(ctx context.Context, db DB, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	specs, err := json.Marshal(u.Specifications)
	if err != nil {
		return nil, err
	}
	tag, err := db.Exec(ctx, `
		UPDATE units
		SET unit_number=$1, unit_type=$2, specifications=$3,
		    status=$4, availability=$5, tenant_id=$6,
		    price_per_month=$7, balance=$8, prepaid_credit=$9,
		    last_move_in_date=$10, last_move_out_date=$11,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$12 AND row_version=$13 AND deleted_at IS NULL
	`,
		u.UnitNumber, u.UnitType, specs,
		u.Status, u.Availability, u.TenantID,
		u.PaymentInfo.PricePerMonth, u.PaymentInfo.Balance, u.PaymentInfo.PrepaidCredit,
		u.LastMoveInDate, u.LastMoveOutDate,
		u.ID, expected,
	)
	return tag, mapWriteError(err)
}

func baseSelectUnit() string {
	return `
		SELECT id, facility_id, company_id, unit_number, unit_type, specifications,
		       status, availability, tenant_id,
		       price_per_month, balance, prepaid_credit,
		       last_move_in_date, last_move_out_date,
		       created_at, updated_at, deleted_at, row_version
		FROM units`
}

func (r *unitRepo) scanUnit(row pgx.Row) (*models.Unit, error) {
	var (
		u         models.Unit
		specs     []byte
		moveIn    pgtype.Timestamptz
		moveOut   pgtype.Timestamptz
		deletedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&u.ID, &u.FacilityID, &u.CompanyID, &u.UnitNumber, &u.UnitType, &specs,
		&u.Status, &u.Availability, &u.TenantID,
		&u.PaymentInfo.PricePerMonth, &u.PaymentInfo.Balance, &u.PaymentInfo.PrepaidCredit,
		&moveIn, &moveOut,
		&u.CreatedAt, &u.UpdatedAt, &deletedAt, &u.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(specs) > 0 {
		_ = json.Unmarshal(specs, &u.Specifications)
	}
	u.LastMoveInDate = timePtr(moveIn)
	u.LastMoveOutDate = timePtr(moveOut)
	u.DeletedAt = timePtr(deletedAt)
	return &u, nil
}
