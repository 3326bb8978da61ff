package services

import "github.com/stowpoint/mono-repo/backend/shared/go-models"

// Policy holds the business switches that change occupancy behaviour.
type Policy struct {
	// AllowMoveOutWithBalance lets an explicit override move a tenant out
	// while the unit still carries a balance.
	AllowMoveOutWithBalance bool

	// TenantRetention decides what happens to a tenant that no longer
	// occupies any unit.
	TenantRetention models.TenantRetentionMode
}

func DefaultPolicy() Policy {
	return Policy{TenantRetention: models.TenantRetentionArchive}
}
