package routes

const (
	// Health
	Health  = "/health"
	Metrics = "/metrics"

	// Auth
	AuthLogin  = "/auth/login"
	AuthLogout = "/auth/logout"

	// Facilities
	Facilities            = "/facilities"
	Facility              = "/facilities/{id}"
	FacilitiesCreate      = "/facilities/create"
	FacilitiesUpdate      = "/facilities/update"
	FacilitiesUpdateState = "/facilities/update/status"
	FacilitiesDelete      = "/facilities/delete"
	FacilitiesDeploy      = "/facilities/deploy"

	// Units, scoped by facility
	Units             = "/facilities/{facilityId}/units"
	Unit              = "/facilities/{facilityId}/units/{unitId}"
	UnitMoveIn        = "/facilities/{facilityId}/units/{unitId}/move-in"
	UnitMoveOut       = "/facilities/{facilityId}/units/{unitId}/move-out"
	UnitMissPayment   = "/facilities/{facilityId}/units/{unitId}/miss-payment"
	UnitSettleBalance = "/facilities/{facilityId}/units/{unitId}/settle-balance"
	UnitPayments      = "/facilities/{facilityId}/units/{unitId}/payments"
	UnitNotes         = "/facilities/{facilityId}/units/{unitId}/notes"

	// Tenants, scoped by facility
	Tenants     = "/facilities/{facilityId}/tenants"
	Tenant      = "/facilities/{facilityId}/tenants/{id}"
	TenantNotes = "/facilities/{facilityId}/tenants/{id}/notes"

	// Users
	Users         = "/users"
	UsersMe       = "/users/me"
	UsersRegister = "/users/register"
	UsersUpdate   = "/users/update"
	UsersDelete   = "/users/delete"

	// Companies
	Companies       = "/companies"
	Company         = "/companies/{id}"
	CompaniesCreate = "/companies/create"
	CompaniesUpdate = "/companies/update"

	// Domain event log
	Events = "/events"
)
