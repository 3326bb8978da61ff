package dtos

import (
	"time"

	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// User is the public view of a staff account, omitting the password hash.
type User struct {
	ID            string                   `json:"id"`
	Email         string                   `json:"email"`
	FirstName     string                   `json:"first_name"`
	LastName      string                   `json:"last_name"`
	Role          models.RoleKind          `json:"role"`
	CompanyID     *string                  `json:"company_id,omitempty"`
	FacilityIDs   []string                 `json:"facility_ids"`
	AccountStatus models.AccountStatusType `json:"account_status"`
	RowVersion    int64                    `json:"row_version"`
	CreatedAt     time.Time                `json:"created_at"`
}

func NewUserFromModel(u models.User) User {
	out := User{
		ID:            u.ID.String(),
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		FacilityIDs:   make([]string, 0, len(u.FacilityIDs)),
		AccountStatus: u.AccountStatus,
		RowVersion:    u.RowVersion,
		CreatedAt:     u.CreatedAt,
	}
	if u.CompanyID != nil {
		cid := u.CompanyID.String()
		out.CompanyID = &cid
	}
	for _, id := range u.FacilityIDs {
		out.FacilityIDs = append(out.FacilityIDs, id.String())
	}
	return out
}

// NewUserPage maps a page of stored users to their public view.
func NewUserPage(p *utils.PageResult[*models.User]) *utils.PageResult[User] {
	out := &utils.PageResult[User]{
		Data:     make([]User, 0, len(p.Data)),
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
	for _, u := range p.Data {
		out.Data = append(out.Data, NewUserFromModel(*u))
	}
	return out
}
