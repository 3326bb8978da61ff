package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*models.User, error)

	// Optimistic‑lock helpers
	UpdateIfVersion(ctx context.Context, u *models.User, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error

	SoftDelete(ctx context.Context, id uuid.UUID) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type userRepo struct {
	*BaseVersionedRepo[*models.User]
	db DB
}

func NewUserRepository(db DB) UserRepository {
	r := &userRepo{db: db}
	selectStmt := baseSelectUser() + " WHERE id=$1 AND deleted_at IS NULL"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanUserOrNil)
	return r
}

/* ---------- Create ---------- */

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			role, company_id, facility_ids, account_status,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::uuid[],$9, NOW(), NOW(), 1)
	`,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName,
		u.Role, u.CompanyID, uuidStrings(u.FacilityIDs), u.AccountStatus,
	)
	if err != nil {
		return mapWriteError(err)
	}
	u.RowVersion = 1
	return nil
}

/* ---------- Reads ---------- */

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRow(ctx,
		baseSelectUser()+" WHERE email=$1 AND deleted_at IS NULL", strings.ToLower(email))
	return r.scanUserOrNil(row)
}

func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, baseSelectUser()+" WHERE deleted_at IS NULL ORDER BY email")
	if err != nil {
		return nil, err
	}
	return scanAll(rows, r.scanUser)
}

func (r *userRepo) ListByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*models.User, error) {
	rows, err := r.db.Query(ctx,
		baseSelectUser()+" WHERE company_id=$1 AND deleted_at IS NULL ORDER BY email", companyID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, r.scanUser)
}

/* ---------- Updates ---------- */

func (r *userRepo) UpdateIfVersion(ctx context.Context, u *models.User, expected int64) (pgconn.CommandTag, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET email=$1, password_hash=$2, first_name=$3, last_name=$4,
		    role=$5, company_id=$6, facility_ids=$7::uuid[], account_status=$8,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$9 AND row_version=$10 AND deleted_at IS NULL
	`,
		strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName,
		u.Role, u.CompanyID, uuidStrings(u.FacilityIDs), u.AccountStatus,
		u.ID, expected,
	)
	return tag, mapWriteError(err)
}

func (r *userRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *userRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET deleted_at=NOW(), updated_at=NOW(), row_version=row_version+1
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

/* ---------- internals ---------- */

func baseSelectUser() string {
	return `
		SELECT id, email, password_hash, first_name, last_name,
		       role, company_id, facility_ids::text[], account_status,
		       row_version, created_at, updated_at, deleted_at
		FROM users`
}

func (r *userRepo) scanUser(row pgx.Row) (*models.User, error) {
	var (
		u           models.User
		facilityIDs []string
		deletedAt   pgtype.Timestamptz
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.CompanyID, &facilityIDs, &u.AccountStatus,
		&u.RowVersion, &u.CreatedAt, &u.UpdatedAt, &deletedAt,
	)
	if err != nil {
		// The caller is responsible for interpreting the error (e.g., pgx.ErrNoRows).
		return nil, err
	}
	if u.FacilityIDs, err = parseUUIDs(facilityIDs); err != nil {
		return nil, err
	}
	u.DeletedAt = timePtr(deletedAt)
	return &u, nil
}

func (r *userRepo) scanUserOrNil(row pgx.Row) (*models.User, error) {
	u, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}
