// Package memory is an in-process implementation of the repository
// interfaces. Every read and write copies the entity, so callers never
// share state with the store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	repos "github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// Operation names accepted by FailNext.
const (
	OpSaveOccupancyTenant = "save_occupancy.tenant"
	OpCreateEvent         = "event.create"
	OpUpdateUnit          = "unit.update"
)

var (
	tagUpdated = pgconn.CommandTag("UPDATE 1")
	tagMissed  = pgconn.CommandTag("UPDATE 0")
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	companies  map[uuid.UUID]models.Company
	facilities map[uuid.UUID]models.Facility
	units      map[uuid.UUID]models.Unit
	tenants    map[uuid.UUID]models.Tenant
	users      map[uuid.UUID]models.User
	notes      []models.Note
	events     []models.DomainEvent

	faults map[string]error
	// beforeUpdate runs under the lock before a versioned unit update;
	// tests use it to simulate a concurrent writer.
	beforeUpdate func(u *models.Unit)
}

func NewStore() *Store {
	return &Store{
		now:        time.Now,
		companies:  map[uuid.UUID]models.Company{},
		facilities: map[uuid.UUID]models.Facility{},
		units:      map[uuid.UUID]models.Unit{},
		tenants:    map[uuid.UUID]models.Tenant{},
		users:      map[uuid.UUID]models.User{},
		faults:     map[string]error{},
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext makes the next call of op return err. The fault fires once.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// BumpUnitVersion simulates a concurrent writer touching the unit.
func (s *Store) BumpUnitVersion(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.units[id]; ok {
		u.RowVersion++
		s.units[id] = u
	}
}

// OnUnitUpdate installs a hook that runs before each versioned unit update.
func (s *Store) OnUnitUpdate(fn func(u *models.Unit)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeUpdate = fn
}

func (s *Store) fault(op string) error {
	err := s.faults[op]
	delete(s.faults, op)
	return err
}

func (s *Store) Companies() repos.CompanyRepository { return &companyRepo{s} }
func (s *Store) Facilities() repos.FacilityRepository { return &facilityRepo{s} }
func (s *Store) Units() repos.UnitRepository { return &unitRepo{s} }
func (s *Store) Tenants() repos.TenantRepository { return &tenantRepo{s} }
func (s *Store) Users() repos.UserRepository { return &userRepo{s} }
func (s *Store) Notes() repos.NoteRepository { return &noteRepo{s} }
func (s *Store) Events() repos.DomainEventRepository { return &eventRepo{s} }

/* ---------- clone helpers ---------- */

func cloneUUIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	return append([]uuid.UUID(nil), ids...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneFacility(f models.Facility) *models.Facility {
	f.ManagerID = cloneID(f.ManagerID)
	f.Settings.Amenities = append([]string(nil), f.Settings.Amenities...)
	f.DeletedAt = cloneTime(f.DeletedAt)
	return &f
}

func cloneUnit(u models.Unit) *models.Unit {
	u.TenantID = cloneID(u.TenantID)
	u.LastMoveInDate = cloneTime(u.LastMoveInDate)
	u.LastMoveOutDate = cloneTime(u.LastMoveOutDate)
	u.DeletedAt = cloneTime(u.DeletedAt)
	return &u
}

func cloneTenant(t models.Tenant) *models.Tenant {
	t.UnitIDs = cloneUUIDs(t.UnitIDs)
	t.ArchivedAt = cloneTime(t.ArchivedAt)
	return &t
}

func cloneUser(u models.User) *models.User {
	u.CompanyID = cloneID(u.CompanyID)
	u.FacilityIDs = cloneUUIDs(u.FacilityIDs)
	u.DeletedAt = cloneTime(u.DeletedAt)
	return &u
}

/* ---------- companies ---------- */

type companyRepo struct{ s *Store }

func (r *companyRepo) Create(_ context.Context, c *models.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[c.ID]; ok {
		return repos.ErrDuplicate
	}
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt, c.RowVersion = now, now, 1
	r.s.companies[c.ID] = *c
	return nil
}

func (r *companyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *companyRepo) List(_ context.Context) ([]*models.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Company, 0, len(r.s.companies))
	for _, c := range r.s.companies {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *companyRepo) UpdateIfVersion(_ context.Context, c *models.Company, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.companies[c.ID]
	if !ok || cur.RowVersion != expected {
		return tagMissed, nil
	}
	next := *c
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	next.RowVersion = expected + 1
	r.s.companies[c.ID] = next
	return tagUpdated, nil
}

func (r *companyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Company) error) error {
	return repos.WithRetry(ctx, repos.DefaultMaxRetries, id.String(),
		func(ctx context.Context, _ string) (*models.Company, error) { return r.GetByID(ctx, id) },
		r.UpdateIfVersion, mutate)
}

/* ---------- facilities ---------- */

type facilityRepo struct{ s *Store }

func (r *facilityRepo) Create(_ context.Context, f *models.Facility) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.facilities[f.ID]; ok {
		return repos.ErrDuplicate
	}
	now := r.s.now()
	f.CreatedAt, f.UpdatedAt, f.RowVersion = now, now, 1
	r.s.facilities[f.ID] = *cloneFacility(*f)
	return nil
}

func (r *facilityRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Facility, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.facilities[id]
	if !ok || f.DeletedAt != nil {
		return nil, nil
	}
	return cloneFacility(f), nil
}

func (r *facilityRepo) ListByCompanyID(_ context.Context, companyID uuid.UUID) ([]*models.Facility, error) {
	return r.list(func(f models.Facility) bool { return f.CompanyID == companyID }), nil
}

func (r *facilityRepo) ListAll(_ context.Context) ([]*models.Facility, error) {
	return r.list(func(models.Facility) bool { return true }), nil
}

func (r *facilityRepo) list(keep func(models.Facility) bool) []*models.Facility {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Facility
	for _, f := range r.s.facilities {
		if f.DeletedAt == nil && keep(f) {
			out = append(out, cloneFacility(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *facilityRepo) UpdateIfVersion(_ context.Context, f *models.Facility, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.facilities[f.ID]
	if !ok || cur.DeletedAt != nil || cur.RowVersion != expected {
		return tagMissed, nil
	}
	next := cloneFacility(*f)
	next.CompanyID = cur.CompanyID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	next.RowVersion = expected + 1
	r.s.facilities[f.ID] = *next
	return tagUpdated, nil
}

func (r *facilityRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Facility) error) error {
	return repos.WithRetry(ctx, repos.DefaultMaxRetries, id.String(),
		func(ctx context.Context, _ string) (*models.Facility, error) { return r.GetByID(ctx, id) },
		r.UpdateIfVersion, mutate)
}

func (r *facilityRepo) SoftDeleteIfVacant(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.facilities[id]
	if !ok || f.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	for _, u := range r.s.units {
		if u.FacilityID == id && u.DeletedAt == nil && u.Status != models.UnitStatusVacant {
			return repos.ErrFacilityOccupied
		}
	}
	now := r.s.now()
	for uid, u := range r.s.units {
		if u.FacilityID == id && u.DeletedAt == nil {
			u.DeletedAt = &now
			u.RowVersion++
			r.s.units[uid] = u
		}
	}
	f.DeletedAt = &now
	f.RowVersion++
	r.s.facilities[id] = f
	return nil
}

/* ---------- units ---------- */

type unitRepo struct{ s *Store }

func (r *unitRepo) Create(_ context.Context, u *models.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.units {
		if other.DeletedAt == nil && other.FacilityID == u.FacilityID &&
			strings.EqualFold(other.UnitNumber, u.UnitNumber) {
			return repos.ErrDuplicate
		}
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt, u.RowVersion = now, now, 1
	r.s.units[u.ID] = *cloneUnit(*u)
	return nil
}

func (r *unitRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.units[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	return cloneUnit(u), nil
}

func (r *unitRepo) ListByFacilityID(_ context.Context, facilityID uuid.UUID) ([]*models.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Unit
	for _, u := range r.s.units {
		if u.DeletedAt == nil && u.FacilityID == facilityID {
			out = append(out, cloneUnit(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitNumber < out[j].UnitNumber })
	return out, nil
}

func (r *unitRepo) UpdateIfVersion(_ context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpUpdateUnit); err != nil {
		return nil, err
	}
	return r.update(u, expected)
}

// update must be called with the lock held.
func (r *unitRepo) update(u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	if r.s.beforeUpdate != nil {
		if cur, ok := r.s.units[u.ID]; ok {
			r.s.beforeUpdate(&cur)
			r.s.units[u.ID] = cur
		}
	}
	cur, ok := r.s.units[u.ID]
	if !ok || cur.DeletedAt != nil || cur.RowVersion != expected {
		return tagMissed, nil
	}
	for id, other := range r.s.units {
		if id != u.ID && other.DeletedAt == nil && other.FacilityID == cur.FacilityID &&
			strings.EqualFold(other.UnitNumber, u.UnitNumber) {
			return nil, repos.ErrDuplicate
		}
	}
	next := cloneUnit(*u)
	next.FacilityID = cur.FacilityID
	next.CompanyID = cur.CompanyID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	next.RowVersion = expected + 1
	r.s.units[u.ID] = *next
	return tagUpdated, nil
}

func (r *unitRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error {
	return repos.WithRetry(ctx, repos.DefaultMaxRetries, id.String(),
		func(ctx context.Context, _ string) (*models.Unit, error) { return r.GetByID(ctx, id) },
		r.UpdateIfVersion, mutate)
}

func (r *unitRepo) SoftDeleteIfVacant(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.units[id]
	if !ok || u.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	if u.Status != models.UnitStatusVacant {
		return repos.ErrUnitOccupied
	}
	now := r.s.now()
	u.DeletedAt = &now
	u.RowVersion++
	r.s.units[id] = u
	return nil
}

// SaveOccupancy stages both writes on copies and only publishes them when
// every check and injected fault has passed.
func (r *unitRepo) SaveOccupancy(_ context.Context, ch *repos.OccupancyChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	units := make(map[uuid.UUID]models.Unit, len(r.s.units))
	for k, v := range r.s.units {
		units[k] = v
	}
	staged := &Store{now: r.s.now, units: units, beforeUpdate: r.s.beforeUpdate}
	tag, err := (&unitRepo{staged}).update(ch.Unit, ch.ExpectedUnitVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return utils.ErrRowVersionConflict
	}

	tenants := r.s.tenants
	if ch.Tenant != nil {
		if err := r.s.fault(OpSaveOccupancyTenant); err != nil {
			return err
		}
		tenants = make(map[uuid.UUID]models.Tenant, len(r.s.tenants)+1)
		for k, v := range r.s.tenants {
			tenants[k] = v
		}
		cur, exists := tenants[ch.Tenant.ID]
		now := r.s.now()
		switch {
		case ch.CreateTenant:
			if exists {
				return repos.ErrDuplicate
			}
			t := cloneTenant(*ch.Tenant)
			t.CreatedAt, t.UpdatedAt, t.RowVersion = now, now, 1
			tenants[t.ID] = *t
		case !exists || cur.RowVersion != ch.ExpectedTenantVersion:
			return utils.ErrRowVersionConflict
		case ch.DeleteTenant:
			delete(tenants, ch.Tenant.ID)
		default:
			t := cloneTenant(*ch.Tenant)
			t.CreatedAt = cur.CreatedAt
			t.UpdatedAt = now
			t.RowVersion = ch.ExpectedTenantVersion + 1
			tenants[t.ID] = *t
		}
	}

	r.s.units = units
	r.s.tenants = tenants

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

/* ---------- tenants ---------- */

type tenantRepo struct{ s *Store }

func (r *tenantRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, nil
	}
	return cloneTenant(t), nil
}

func (r *tenantRepo) ListByFacilityID(_ context.Context, facilityID uuid.UUID, includeArchived bool) ([]*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Tenant
	for _, t := range r.s.tenants {
		if t.FacilityID != facilityID || (!includeArchived && t.ArchivedAt != nil) {
			continue
		}
		out = append(out, cloneTenant(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *tenantRepo) UpdateIfVersion(_ context.Context, t *models.Tenant, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.tenants[t.ID]
	if !ok || cur.RowVersion != expected {
		return tagMissed, nil
	}
	next := cloneTenant(*t)
	next.FacilityID = cur.FacilityID
	next.CompanyID = cur.CompanyID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	next.RowVersion = expected + 1
	r.s.tenants[t.ID] = *next
	return tagUpdated, nil
}

func (r *tenantRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Tenant) error) error {
	return repos.WithRetry(ctx, repos.DefaultMaxRetries, id.String(),
		func(ctx context.Context, _ string) (*models.Tenant, error) { return r.GetByID(ctx, id) },
		r.UpdateIfVersion, mutate)
}

/* ---------- users ---------- */

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.DeletedAt == nil && strings.EqualFold(other.Email, u.Email) {
			return repos.ErrDuplicate
		}
	}
	now := r.s.now()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt, u.UpdatedAt, u.RowVersion = now, now, 1
	r.s.users[u.ID] = *cloneUser(*u)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *userRepo) List(_ context.Context) ([]*models.User, error) {
	return r.list(func(models.User) bool { return true }), nil
}

func (r *userRepo) ListByCompanyID(_ context.Context, companyID uuid.UUID) ([]*models.User, error) {
	return r.list(func(u models.User) bool { return u.BelongsTo(companyID) }), nil
}

func (r *userRepo) list(keep func(models.User) bool) []*models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, u := range r.s.users {
		if u.DeletedAt == nil && keep(u) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (r *userRepo) UpdateIfVersion(_ context.Context, u *models.User, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok || cur.DeletedAt != nil || cur.RowVersion != expected {
		return tagMissed, nil
	}
	for id, other := range r.s.users {
		if id != u.ID && other.DeletedAt == nil && strings.EqualFold(other.Email, u.Email) {
			return nil, repos.ErrDuplicate
		}
	}
	next := cloneUser(*u)
	next.Email = strings.ToLower(next.Email)
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	next.RowVersion = expected + 1
	r.s.users[u.ID] = *next
	return tagUpdated, nil
}

func (r *userRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return repos.WithRetry(ctx, repos.DefaultMaxRetries, id.String(),
		func(ctx context.Context, _ string) (*models.User, error) { return r.GetByID(ctx, id) },
		r.UpdateIfVersion, mutate)
}

func (r *userRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := r.s.now()
	u.DeletedAt = &now
	u.RowVersion++
	r.s.users[id] = u
	return nil
}

/* ---------- notes ---------- */

type noteRepo struct{ s *Store }

func (r *noteRepo) Create(_ context.Context, n *models.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.CreatedAt = r.s.now()
	cp := *n
	cp.ResponseDate = cloneTime(n.ResponseDate)
	r.s.notes = append(r.s.notes, cp)
	return nil
}

func (r *noteRepo) ListByTarget(_ context.Context, targetType models.NoteTargetType, targetID uuid.UUID) ([]*models.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Note
	for _, n := range r.s.notes {
		if n.TargetType == targetType && n.TargetID == targetID {
			n := n
			n.ResponseDate = cloneTime(n.ResponseDate)
			out = append(out, &n)
		}
	}
	return out, nil
}

/* ---------- domain events ---------- */

type eventRepo struct{ s *Store }

func (r *eventRepo) Create(_ context.Context, e *models.DomainEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpCreateEvent); err != nil {
		return err
	}
	e.CreatedAt = r.s.now()
	r.s.events = append(r.s.events, *e)
	return nil
}

func (r *eventRepo) List(_ context.Context, f models.EventFilter) ([]*models.DomainEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DomainEvent
	for _, e := range r.s.events {
		switch {
		case f.CompanyID != nil && (e.CompanyID == nil || *e.CompanyID != *f.CompanyID),
			f.FacilityID != nil && (e.FacilityID == nil || *e.FacilityID != *f.FacilityID),
			f.EventType != nil && e.EventType != *f.EventType,
			f.From != nil && e.CreatedAt.Before(*f.From),
			f.To != nil && e.CreatedAt.After(*f.To):
			continue
		}
		e := e
		out = append(out, &e)
	}
	return out, nil
}
