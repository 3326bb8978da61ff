package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/access"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/dtos"
	go_dtos "github.com/stowpoint/mono-repo/backend/shared/go-dtos"
	"github.com/stowpoint/mono-repo/backend/shared/go-models"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

var userColumns = []utils.Column[*models.User]{
	{Key: "email", Value: func(u *models.User) any { return u.Email }, Searchable: true},
	{Key: "first_name", Value: func(u *models.User) any { return u.FirstName }, Searchable: true},
	{Key: "last_name", Value: func(u *models.User) any { return u.LastName }, Searchable: true},
	{Key: "role", Value: func(u *models.User) any { return string(u.Role) }, Searchable: true},
	{Key: "account_status", Value: func(u *models.User) any { return string(u.AccountStatus) }},
	{Key: "created_at", Value: func(u *models.User) any { return u.CreatedAt }},
}

type UserService struct {
	userRepo     repositories.UserRepository
	companyRepo  repositories.CompanyRepository
	facilityRepo repositories.FacilityRepository
	events       *EventService
}

func NewUserService(
	userRepo repositories.UserRepository,
	companyRepo repositories.CompanyRepository,
	facilityRepo repositories.FacilityRepository,
	events *EventService,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		companyRepo:  companyRepo,
		facilityRepo: facilityRepo,
		events:       events,
	}
}

// LoadActor implements middleware.ActorLoader. Deleted and disabled
// users yield (nil, nil).
func (s *UserService) LoadActor(ctx context.Context, userID uuid.UUID) (*models.Actor, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.AccountStatus != models.AccountStatusActive {
		return nil, nil
	}
	return models.NewActorFromUser(u), nil
}

func (s *UserService) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, utils.NewInternalError("Failed to load user", err)
	}
	if u == nil {
		return nil, utils.NewNotFoundError("user not found")
	}
	return u, nil
}

// checkAssignment enforces the role/company/facility invariants of a user
// record about to be written.
func (s *UserService) checkAssignment(ctx context.Context, u *models.User) error {
	if !u.Role.Valid() {
		return utils.NewValidationError("unknown role %q", u.Role)
	}
	if u.Role.IsSystem() {
		if u.CompanyID != nil {
			return utils.NewValidationError("%s accounts cannot belong to a company", u.Role)
		}
		if len(u.FacilityIDs) > 0 {
			return utils.NewValidationError("%s accounts cannot be assigned facilities", u.Role)
		}
		return nil
	}

	if u.CompanyID == nil {
		return utils.NewValidationError("%s accounts require a company_id", u.Role)
	}
	company, err := s.companyRepo.GetByID(ctx, *u.CompanyID)
	if err != nil {
		return utils.NewInternalError("Failed to load company", err)
	}
	if company == nil {
		return utils.NewValidationError("company %s does not exist", *u.CompanyID)
	}

	if u.Role == models.RoleCompanyAdmin {
		if len(u.FacilityIDs) > 0 {
			return utils.NewValidationError("COMPANY_ADMIN accounts see every facility; facility_ids must be empty")
		}
		return nil
	}
	if len(u.FacilityIDs) == 0 {
		return nil
	}
	owned, err := s.facilityRepo.ListByCompanyID(ctx, *u.CompanyID)
	if err != nil {
		return utils.NewInternalError("Failed to list facilities", err)
	}
	if !access.FacilitiesOwned(u.FacilityIDs, owned) {
		return utils.NewValidationError("facility_ids must belong to the user's company")
	}
	return nil
}

func (s *UserService) logUser(ctx context.Context, actor *models.Actor, name, msg string, u *models.User, details any) {
	if details == nil {
		details = go_dtos.NewUserFromModel(*u)
	}
	s.events.log(ctx, actor, eventInput{
		Type:      models.EventTypeUser,
		Name:      name,
		CompanyID: u.CompanyID,
		TargetID:  u.ID,
		Message:   msg,
		Details:   details,
	})
}

// Register creates a staff account. Company actors register into their
// own company when no company_id is given.
func (s *UserService) Register(ctx context.Context, actor *models.Actor, req dtos.RegisterUserRequest) (*go_dtos.User, error) {
	scope := access.Resolve(actor)
	companyID := req.CompanyID
	if companyID == nil && req.Role.IsCompany() && !scope.Global() {
		companyID = actor.CompanyID
	}
	if err := scope.GuardUserMutation(nil, access.UserChange{Role: &req.Role, CompanyID: companyID}); err != nil {
		return nil, err
	}
	if blank(req.Email) || blank(req.Password) {
		return nil, utils.NewValidationError("email and password are required")
	}

	u := &models.User{
		ID:            uuid.New(),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Role:          req.Role,
		CompanyID:     companyID,
		FacilityIDs:   req.FacilityIDs,
		AccountStatus: models.AccountStatusActive,
	}
	if u.FacilityIDs == nil {
		u.FacilityIDs = []uuid.UUID{}
	}
	if err := s.checkAssignment(ctx, u); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, utils.NewInternalError("Failed to hash password", err)
	}
	u.PasswordHash = hashed

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.NewConflictError("email already in use")
		}
		return nil, repoError(err, "user", "create")
	}

	s.logUser(ctx, actor, models.EventUserRegistered, "User "+u.Email+" registered", u, nil)
	out := go_dtos.NewUserFromModel(*u)
	return &out, nil
}

// Update edits another user's account at the caller's row_version.
func (s *UserService) Update(ctx context.Context, actor *models.Actor, req dtos.UpdateUserRequest) (*go_dtos.User, error) {
	scope := access.Resolve(actor)
	u, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	ch := access.UserChange{
		Role:         req.Role,
		Status:       req.AccountStatus,
		CompanyID:    req.CompanyID,
		ClearCompany: req.ClearCompany,
	}
	if req.FacilityIDs != nil {
		ch.FacilityIDs = *req.FacilityIDs
	}
	if err := scope.GuardUserMutation(u, ch); err != nil {
		return nil, err
	}
	if u.RowVersion != req.RowVersion {
		return nil, utils.NewRowVersionConflictError("user")
	}

	changed := false
	if req.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*req.Email)); email != u.Email {
			u.Email, changed = email, true
		}
	}
	if req.FirstName != nil && *req.FirstName != u.FirstName {
		u.FirstName, changed = *req.FirstName, true
	}
	if req.LastName != nil && *req.LastName != u.LastName {
		u.LastName, changed = *req.LastName, true
	}
	if req.Role != nil && *req.Role != u.Role {
		u.Role, changed = *req.Role, true
	}
	if req.AccountStatus != nil && *req.AccountStatus != u.AccountStatus {
		if *req.AccountStatus != models.AccountStatusActive && *req.AccountStatus != models.AccountStatusDisabled {
			return nil, utils.NewValidationError("unknown account_status %q", *req.AccountStatus)
		}
		u.AccountStatus, changed = *req.AccountStatus, true
	}
	switch {
	case req.ClearCompany:
		if u.CompanyID != nil {
			u.CompanyID, changed = nil, true
		}
	case req.CompanyID != nil && (u.CompanyID == nil || *u.CompanyID != *req.CompanyID):
		u.CompanyID, changed = req.CompanyID, true
	}
	if req.FacilityIDs != nil && !sameIDs(*req.FacilityIDs, u.FacilityIDs) {
		u.FacilityIDs, changed = *req.FacilityIDs, true
	}
	// Dropping to a role without facility assignments drops the assignments.
	if u.Role != models.RoleCompanyUser && req.FacilityIDs == nil && len(u.FacilityIDs) > 0 {
		u.FacilityIDs, changed = []uuid.UUID{}, true
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, utils.NewInternalError("Failed to hash password", err)
		}
		u.PasswordHash, changed = hashed, true
	}
	if !changed {
		out := go_dtos.NewUserFromModel(*u)
		return &out, nil
	}
	if err := s.checkAssignment(ctx, u); err != nil {
		return nil, err
	}

	tag, err := s.userRepo.UpdateIfVersion(ctx, u, req.RowVersion)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.NewConflictError("email already in use")
		}
		return nil, repoError(err, "user", "update")
	}
	if tag.RowsAffected() != 1 {
		return nil, utils.NewRowVersionConflictError("user")
	}
	u.RowVersion = req.RowVersion + 1

	s.logUser(ctx, actor, models.EventUserUpdated, "User "+u.Email+" updated", u, nil)
	out := go_dtos.NewUserFromModel(*u)
	return &out, nil
}

// sameIDs compares two id lists as sets.
func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !slices.Contains(b, id) {
			return false
		}
	}
	return true
}

// Delete soft-deletes another user's account.
func (s *UserService) Delete(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Resolve(actor).GuardUserMutation(u, access.UserChange{}); err != nil {
		return err
	}
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return repoError(err, "user", "delete")
	}
	s.logUser(ctx, actor, models.EventUserDeleted, "User "+u.Email+" deleted", u,
		map[string]any{"id": u.ID, "email": u.Email})
	return nil
}

func (s *UserService) List(ctx context.Context, actor *models.Actor, q utils.TableQuery) (*utils.PageResult[go_dtos.User], error) {
	scope := access.Resolve(actor)

	var (
		users []*models.User
		err   error
	)
	switch {
	case scope.Global():
		users, err = s.userRepo.List(ctx)
	case actor.CompanyID != nil:
		users, err = s.userRepo.ListByCompanyID(ctx, *actor.CompanyID)
	default:
		var me *models.User
		if me, err = s.userRepo.GetByID(ctx, actor.ID); me != nil {
			users = []*models.User{me}
		}
	}
	if err != nil {
		return nil, utils.NewInternalError("Failed to list users", err)
	}

	users = access.Filter(scope, users, access.UserResource)
	page, err := utils.ApplyTableQuery(users, userColumns, q)
	if err != nil {
		return nil, err
	}
	return go_dtos.NewUserPage(page), nil
}

// Me returns the authenticated user's own record.
func (s *UserService) Me(ctx context.Context, actor *models.Actor) (*go_dtos.User, error) {
	u, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	out := go_dtos.NewUserFromModel(*u)
	return &out, nil
}
