// backend/shared/go-repositories/domain_event_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

// DomainEventRepository is append-only: there is no update or delete.
type DomainEventRepository interface {
	Create(ctx context.Context, e *models.DomainEvent) error
	List(ctx context.Context, filter models.EventFilter) ([]*models.DomainEvent, error)
}

type domainEventRepo struct {
	db DB
}

func NewDomainEventRepository(db DB) DomainEventRepository {
	return &domainEventRepo{db: db}
}

func (r *domainEventRepo) Create(ctx context.Context, e *models.DomainEvent) error {
	q := `
        INSERT INTO domain_events (
            id, event_type, event_name, actor_id,
            company_id, facility_id, target_id, message, details, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        RETURNING created_at
    `
	return r.db.QueryRow(ctx, q,
		e.ID,
		e.EventType,
		e.EventName,
		e.ActorID,
		e.CompanyID,
		e.FacilityID,
		e.TargetID,
		e.Message,
		e.Details,
	).Scan(&e.CreatedAt)
}

func (r *domainEventRepo) List(ctx context.Context, filter models.EventFilter) ([]*models.DomainEvent, error) {
	var (
		qb   strings.Builder
		args []any
		idx  = 1
	)

	qb.WriteString(`
        SELECT id, event_type, event_name, actor_id,
               company_id, facility_id, target_id, message, details, created_at
        FROM domain_events
        WHERE TRUE`)

	add := func(clause string, v any) {
		qb.WriteString(" AND ")
		qb.WriteString(clause)
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, v)
		idx++
	}

	if filter.CompanyID != nil {
		add("company_id = $", *filter.CompanyID)
	}
	if filter.FacilityID != nil {
		add("facility_id = $", *filter.FacilityID)
	}
	if filter.EventType != nil {
		add("event_type = $", *filter.EventType)
	}
	if filter.From != nil {
		add("created_at >= $", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $", *filter.To)
	}

	qb.WriteString(" ORDER BY created_at, id")

	rows, err := r.db.Query(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.DomainEvent
	for rows.Next() {
		var (
			e       models.DomainEvent
			details []byte
		)
		if err := rows.Scan(
			&e.ID, &e.EventType, &e.EventName, &e.ActorID,
			&e.CompanyID, &e.FacilityID, &e.TargetID, &e.Message, &details, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			raw := json.RawMessage(details)
			e.Details = &raw
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
