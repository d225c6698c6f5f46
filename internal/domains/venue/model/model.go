package model

import (
	"time"

	"hallbooking/shared/model"
)

const (
	TableName  = "venues"
	EntityName = "venue"

	FieldID                 = "id"
	FieldTenantID           = "tenant_id"
	FieldName               = "name"
	FieldLocation           = "location"
	FieldCapacity           = "capacity"
	FieldHourlyRateCents    = "hourly_rate_cents"
	FieldConfirmationPolicy = "confirmation_policy"
	FieldTimezone           = "timezone"
	FieldActive             = "active"
)

const (
	BlackoutTableName  = "venue_blackouts"
	BlackoutEntityName = "venue_blackout"

	BlackoutFieldID       = "id"
	BlackoutFieldTenantID = "tenant_id"
	BlackoutFieldVenueID  = "venue_id"
	BlackoutFieldStartsAt = "starts_at"
	BlackoutFieldEndsAt   = "ends_at"
	BlackoutFieldReason   = "reason"
)

// ConfirmationPolicy decides which payment event moves a pending reservation
// to confirmed. Manual venues confirm only through staff action.
type ConfirmationPolicy string

const (
	PolicyManual      ConfirmationPolicy = "manual"
	PolicyDeposit     ConfirmationPolicy = "deposit"
	PolicyFullPayment ConfirmationPolicy = "full_payment"
)

func (p ConfirmationPolicy) Valid() bool {
	switch p {
	case PolicyManual, PolicyDeposit, PolicyFullPayment:
		return true
	default:
		return false
	}
}

type Venue struct {
	ID                 string             `db:"id"`
	TenantID           string             `db:"tenant_id"`
	Name               string             `db:"name"`
	Location           string             `db:"location"`
	Capacity           int                `db:"capacity"`
	HourlyRateCents    int64              `db:"hourly_rate_cents"`
	ConfirmationPolicy ConfirmationPolicy `db:"confirmation_policy"`
	Timezone           string             `db:"timezone"`
	Active             bool               `db:"active"`
	model.Metadata
}

// VenueBlackout closes a venue for a half-open time range regardless of
// reservations, e.g. maintenance or private events.
type VenueBlackout struct {
	ID       string    `db:"id"`
	TenantID string    `db:"tenant_id"`
	VenueID  string    `db:"venue_id"`
	StartsAt time.Time `db:"starts_at"`
	EndsAt   time.Time `db:"ends_at"`
	Reason   string    `db:"reason"`
	model.Metadata
}
