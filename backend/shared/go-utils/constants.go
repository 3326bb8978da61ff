package utils

const (
	OrganizationName                      = "Stowpoint"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// ServiceActorName labels requests authenticated with the static API key.
	ServiceActorName = "service"

	DefaultPageSize = 25
	MaxPageSize     = 200
)
