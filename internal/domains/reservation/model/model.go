package model

import (
	"time"

	"hallbooking/shared/model"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID                 = "id"
	FieldTenantID           = "tenant_id"
	FieldVenueID            = "venue_id"
	FieldCustomerID         = "customer_id"
	FieldBookingNumber      = "booking_number"
	FieldEventType          = "event_type"
	FieldGuestCount         = "guest_count"
	FieldStartsAt           = "starts_at"
	FieldEndsAt             = "ends_at"
	FieldStatus             = "status"
	FieldHoldExpiresAt      = "hold_expires_at"
	FieldIdempotencyKey     = "idempotency_key"
	FieldTotalAmountCents   = "total_amount_cents"
	FieldRefundPercent      = "refund_percent"
	FieldRefundAmountCents  = "refund_amount_cents"
	FieldCancellationReason = "cancellation_reason"
	FieldCancelledAt        = "cancelled_at"
	FieldConfirmedAt        = "confirmed_at"
	FieldConfirmedBy        = "confirmed_by"
	FieldNotes              = "notes"
)

// Status is the lifecycle state of a reservation. temp_hold, pending and
// confirmed block the venue for their time range; the rest are terminal and
// release it.
type Status string

const (
	StatusTempHold  Status = "temp_hold"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// transitions maps each status to the set of statuses it may legally move to.
var transitions = map[Status][]Status{
	StatusTempHold:  {StatusPending, StatusCancelled, StatusExpired},
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusExpired:   {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]

	return ok
}

// Terminal reports whether no further transition can leave this status.
func (s Status) Terminal() bool {
	next, ok := transitions[s]

	return ok && len(next) == 0
}

// Active reports whether the status blocks the venue for the reservation's
// time range.
func (s Status) Active() bool {
	switch s {
	case StatusTempHold, StatusPending, StatusConfirmed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to target is a legal
// lifecycle transition.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}

	return false
}

// NextStatuses returns the statuses reachable from s.
func (s Status) NextStatuses() []Status {
	return transitions[s]
}

// ActiveStatuses returns the statuses that occupy the venue. The same set
// backs the overlap constraint in the store, so read and write paths agree
// on what counts as taken.
func ActiveStatuses() []Status {
	return []Status{StatusTempHold, StatusPending, StatusConfirmed}
}

// PaymentKind classifies an incoming payment notification.
type PaymentKind string

const (
	PaymentDeposit PaymentKind = "deposit"
	PaymentFull    PaymentKind = "full_payment"
)

func (p PaymentKind) Valid() bool {
	return p == PaymentDeposit || p == PaymentFull
}

// TimeRange is a half-open interval [StartsAt, EndsAt) in UTC. A range ending
// exactly when another starts does not overlap it, so back-to-back bookings
// are always legal.
type TimeRange struct {
	StartsAt time.Time `db:"starts_at" json:"starts_at"`
	EndsAt   time.Time `db:"ends_at"   json:"ends_at"`
}

func (t TimeRange) Duration() time.Duration {
	return t.EndsAt.Sub(t.StartsAt)
}

// Overlaps reports whether the two half-open intervals share any instant.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return t.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(t.EndsAt)
}

// Contains reports whether the instant falls inside the half-open interval.
func (t TimeRange) Contains(instant time.Time) bool {
	return !instant.Before(t.StartsAt) && instant.Before(t.EndsAt)
}

// Refund policy lead times, measured from cancellation to the reservation
// start. Strictly more than FullRefundLeadTime refunds everything; at least
// HalfRefundLeadTime refunds half; anything closer refunds nothing.
const (
	FullRefundLeadTime = 72 * time.Hour
	HalfRefundLeadTime = 24 * time.Hour
)

func RefundPercent(now, startsAt time.Time) int {
	lead := startsAt.Sub(now)

	switch {
	case lead > FullRefundLeadTime:
		return 100
	case lead >= HalfRefundLeadTime:
		return 50
	default:
		return 0
	}
}

func RefundAmountCents(totalCents int64, percent int) int64 {
	return totalCents * int64(percent) / 100
}

// TotalAmountCents prices a duration at an hourly rate, prorating partial
// hours by the minute.
func TotalAmountCents(hourlyRateCents int64, duration time.Duration) int64 {
	minutes := int64(duration / time.Minute)

	return hourlyRateCents * minutes / 60
}

type Reservation struct {
	ID               string  `db:"id"`
	TenantID         string  `db:"tenant_id"`
	VenueID          string  `db:"venue_id"`
	CustomerID       string  `db:"customer_id"`
	BookingNumber    string  `db:"booking_number"`
	EventType        string  `db:"event_type"`
	GuestCount       int     `db:"guest_count"`
	Notes            string  `db:"notes"`
	Status           Status  `db:"status"`
	IdempotencyKey   *string `db:"idempotency_key"`
	TotalAmountCents int64   `db:"total_amount_cents"`
	TimeRange

	HoldExpiresAt      *time.Time `db:"hold_expires_at"`
	ConfirmedAt        *time.Time `db:"confirmed_at"`
	ConfirmedBy        *string    `db:"confirmed_by"`
	CancelledAt        *time.Time `db:"cancelled_at"`
	CancellationReason *string    `db:"cancellation_reason"`
	RefundPercent      *int       `db:"refund_percent"`
	RefundAmountCents  *int64     `db:"refund_amount_cents"`

	model.Metadata
}

// HoldLapsed reports whether a temporary hold has outlived its TTL and is due
// to be expired by the reconciliation sweep.
func (r *Reservation) HoldLapsed(now time.Time) bool {
	return r.Status == StatusTempHold && r.HoldExpiresAt != nil && !now.Before(*r.HoldExpiresAt)
}

// Active reports whether the reservation currently blocks its venue.
func (r *Reservation) Active() bool {
	return r.Status.Active()
}
