package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

// NoteRepository is append-only.
type NoteRepository interface {
	Create(ctx context.Context, n *models.Note) error
	ListByTarget(ctx context.Context, targetType models.NoteTargetType, targetID uuid.UUID) ([]*models.Note, error)
}

type noteRepo struct {
	db DB
}

func NewNoteRepository(db DB) NoteRepository {
	return &noteRepo{db: db}
}

func (r *noteRepo) Create(ctx context.Context, n *models.Note) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO notes (
			id, target_type, target_id, facility_id, company_id,
			message, created_by, required_response, response_date, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, NOW())
		RETURNING created_at
	`,
		n.ID, n.TargetType, n.TargetID, n.FacilityID, n.CompanyID,
		n.Message, n.CreatedBy, n.RequiredResponse, n.ResponseDate,
	).Scan(&n.CreatedAt)
}

func (r *noteRepo) ListByTarget(ctx context.Context, targetType models.NoteTargetType, targetID uuid.UUID) ([]*models.Note, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, target_type, target_id, facility_id, company_id,
		       message, created_by, required_response, response_date, created_at
		FROM notes
		WHERE target_type=$1 AND target_id=$2
		ORDER BY created_at
	`, targetType, targetID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanNote)
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var (
		n            models.Note
		responseDate pgtype.Timestamptz
	)
	if err := row.Scan(
		&n.ID, &n.TargetType, &n.TargetID, &n.FacilityID, &n.CompanyID,
		&n.Message, &n.CreatedBy, &n.RequiredResponse, &responseDate, &n.CreatedAt,
	); err != nil {
		return nil, err
	}
	n.ResponseDate = timePtr(responseDate)
	return &n, nil
}
