package app

import (
	"crypto/rsa"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/controllers"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/routes"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
)

const metricsPrefix = "facility_service"

// Repos is the full repository set the service runs on.
type Repos struct {
	Companies  repositories.CompanyRepository
	Facilities repositories.FacilityRepository
	Units      repositories.UnitRepository
	Tenants    repositories.TenantRepository
	Users      repositories.UserRepository
	Notes      repositories.NoteRepository
	Events     repositories.DomainEventRepository
}

// NewRepos builds the Postgres repositories on db.
func NewRepos(db repositories.DB) Repos {
	return Repos{
		Companies:  repositories.NewCompanyRepository(db),
		Facilities: repositories.NewFacilityRepository(db),
		Units:      repositories.NewUnitRepository(db),
		Tenants:    repositories.NewTenantRepository(db),
		Users:      repositories.NewUserRepository(db),
		Notes:      repositories.NewNoteRepository(db),
		Events:     repositories.NewDomainEventRepository(db),
	}
}

type RouterOptions struct {
	Repos    Repos
	Policy   services.Policy
	Health   controllers.Pinger
	Registry *prometheus.Registry

	PrivateKey       *rsa.PrivateKey
	PublicKey        *rsa.PublicKey
	TokenExpiry      time.Duration
	APIKey           string
	ServiceActorID   uuid.UUID
	CORSHighSecurity bool
}

// NewRouter wires services and controllers and registers every endpoint.
func NewRouter(opts RouterOptions) *mux.Router {
	r := opts.Repos

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	metrics := services.NewMetrics(opts.Registry, metricsPrefix)
	eventService := services.NewEventService(r.Events)
	facilityService := services.NewFacilityService(r.Facilities, r.Companies, r.Users, eventService, metrics)
	unitService := services.NewUnitService(r.Units, r.Tenants, r.Facilities, eventService, metrics, opts.Policy)
	tenantService := services.NewTenantService(r.Tenants, r.Facilities, eventService)
	noteService := services.NewNoteService(r.Notes, r.Units, r.Tenants, eventService)
	userService := services.NewUserService(r.Users, r.Companies, r.Facilities, eventService)
	companyService := services.NewCompanyService(r.Companies, eventService)
	authService := services.NewAuthService(r.Users, opts.PrivateKey, opts.TokenExpiry)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	healthController := controllers.NewHealthController(opts.Health)
	authController := controllers.NewAuthController(authService, opts.TokenExpiry, opts.CORSHighSecurity)
	facilityController := controllers.NewFacilityController(facilityService)
	unitController := controllers.NewUnitController(unitService, noteService)
	tenantController := controllers.NewTenantController(tenantService, noteService)
	userController := controllers.NewUserController(userService)
	companyController := controllers.NewCompanyController(companyService)
	eventController := controllers.NewEventController(eventService)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()
	router.Use(middleware.NewHTTPMetrics(opts.Registry, metricsPrefix).Middleware)

	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc(routes.AuthLogin, authController.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.AuthLogout, authController.LogoutHandler).Methods(http.MethodPost)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(middleware.AuthOptions{
		PublicKey:      opts.PublicKey,
		Loader:         userService,
		APIKey:         opts.APIKey,
		ServiceActorID: opts.ServiceActorID,
	}))

	// Facilities. Literal paths are registered before {id}.
	secured.HandleFunc(routes.Facilities, facilityController.ListFacilitiesHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.FacilitiesCreate, facilityController.CreateFacilityHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.FacilitiesUpdateState, facilityController.UpdateFacilityStatusHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.FacilitiesUpdate, facilityController.UpdateFacilityHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.FacilitiesDelete, facilityController.DeleteFacilityHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.FacilitiesDeploy, facilityController.DeployFacilityHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.Facility, facilityController.GetFacilityHandler).Methods(http.MethodGet)

	// Units
	secured.HandleFunc(routes.Units, unitController.ListUnitsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Units, unitController.CreateUnitHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Unit, unitController.GetUnitHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Unit, unitController.UpdateUnitHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.Unit, unitController.DeleteUnitHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.UnitMoveIn, unitController.MoveInHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitMoveOut, unitController.MoveOutHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitMissPayment, unitController.MissPaymentHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitSettleBalance, unitController.SettleBalanceHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitPayments, unitController.RecordPaymentHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitNotes, unitController.AddUnitNoteHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitNotes, unitController.ListUnitNotesHandler).Methods(http.MethodGet)

	// Tenants
	secured.HandleFunc(routes.Tenants, tenantController.ListTenantsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Tenant, tenantController.GetTenantHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Tenant, tenantController.UpdateTenantHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.TenantNotes, tenantController.AddTenantNoteHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.TenantNotes, tenantController.ListTenantNotesHandler).Methods(http.MethodGet)

	// Users
	secured.HandleFunc(routes.Users, userController.ListUsersHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.UsersMe, userController.MeHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.UsersRegister, userController.RegisterUserHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UsersUpdate, userController.UpdateUserHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.UsersDelete, userController.DeleteUserHandler).Methods(http.MethodDelete)

	// Companies
	secured.HandleFunc(routes.Companies, companyController.ListCompaniesHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.CompaniesCreate, companyController.CreateCompanyHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.CompaniesUpdate, companyController.UpdateCompanyHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.Company, companyController.GetCompanyHandler).Methods(http.MethodGet)

	// Domain event log
	secured.HandleFunc(routes.Events, eventController.ListEventsHandler).Methods(http.MethodGet)

	return router
}
