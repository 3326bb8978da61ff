package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

type CompanyRepository interface {
	Create(ctx context.Context, c *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	UpdateIfVersion(ctx context.Context, c *models.Company, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Company) error) error
}

type companyRepo struct {
	*BaseVersionedRepo[*models.Company]
	db DB
}

func NewCompanyRepository(db DB) CompanyRepository {
	r := &companyRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectCompany()+" WHERE id=$1", r.scanCompany)
	return r
}

func (r *companyRepo) Create(ctx context.Context, c *models.Company) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO companies (
			id, name, contact_email, contact_phone,
			street, city, state, zip_code, status,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, NOW(), NOW(), 1)
	`,
		c.ID, c.Name, c.Contact.Email, c.Contact.PhoneNumber,
		c.Address.Street, c.Address.City, c.Address.State, c.Address.ZipCode, c.Status,
	)
	if err != nil {
		return mapWriteError(err)
	}
	c.RowVersion = 1
	return nil
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *companyRepo) List(ctx context.Context) ([]*models.Company, error) {
	rows, err := r.db.Query(ctx, baseSelectCompany()+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	return scanAll(rows, r.scanCompany)
}

func (r *companyRepo) UpdateIfVersion(ctx context.Context, c *models.Company, expected int64) (pgconn.CommandTag, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE companies
		SET name=$1, contact_email=$2, contact_phone=$3,
		    street=$4, city=$5, state=$6, zip_code=$7, status=$8,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$9 AND row_version=$10
	`,
		c.Name, c.Contact.Email, c.Contact.PhoneNumber,
		c.Address.Street, c.Address.City, c.Address.State, c.Address.ZipCode, c.Status,
		c.ID, expected,
	)
	return tag, mapWriteError(err)
}

func (r *companyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Company) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func baseSelectCompany() string {
	return `
		SELECT id, name, contact_email, contact_phone,
		       street, city, state, zip_code, status,
		       created_at, updated_at, row_version
		FROM companies`
}

func (r *companyRepo) scanCompany(row pgx.Row) (*models.Company, error) {
	var c models.Company
	if err := row.Scan(
		&c.ID, &c.Name, &c.Contact.Email, &c.Contact.PhoneNumber,
		&c.Address.Street, &c.Address.City, &c.Address.State, &c.Address.ZipCode, &c.Status,
		&c.CreatedAt, &c.UpdatedAt, &c.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
