package access

import (
	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
)

type Kind string

const (
	KindCompany  Kind = "company"
	KindFacility Kind = "facility"
	KindUnit     Kind = "unit"
	KindTenant   Kind = "tenant"
	KindNote     Kind = "note"
	KindEvent    Kind = "event"
	KindUser     Kind = "user"
)

// Resource is what the resolver needs to know about a target: its kind,
// its id and the company/facility it hangs off.
type Resource struct {
	Kind       Kind
	ID         uuid.UUID
	CompanyID  *uuid.UUID
	FacilityID *uuid.UUID
}

func CompanyResource(c *models.Company) Resource {
	id := c.ID
	return Resource{Kind: KindCompany, ID: c.ID, CompanyID: &id}
}

// FacilityResource uses the facility's own id for the facility check.
func FacilityResource(f *models.Facility) Resource {
	cid, fid := f.CompanyID, f.ID
	return Resource{Kind: KindFacility, ID: f.ID, CompanyID: &cid, FacilityID: &fid}
}

func UnitResource(u *models.Unit) Resource {
	cid, fid := u.CompanyID, u.FacilityID
	return Resource{Kind: KindUnit, ID: u.ID, CompanyID: &cid, FacilityID: &fid}
}

func TenantResource(t *models.Tenant) Resource {
	cid, fid := t.CompanyID, t.FacilityID
	return Resource{Kind: KindTenant, ID: t.ID, CompanyID: &cid, FacilityID: &fid}
}

func NoteResource(n *models.Note) Resource {
	cid, fid := n.CompanyID, n.FacilityID
	return Resource{Kind: KindNote, ID: n.ID, CompanyID: &cid, FacilityID: &fid}
}

func EventResource(e *models.DomainEvent) Resource {
	return Resource{Kind: KindEvent, ID: e.ID, CompanyID: e.CompanyID, FacilityID: e.FacilityID}
}

func UserResource(u *models.User) Resource {
	return Resource{Kind: KindUser, ID: u.ID, CompanyID: u.CompanyID}
}
