package dto

import (
	"time"

	"github.com/google/uuid"

	customerModel "hallbooking/internal/domains/customer/model"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/shared"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	gModel "hallbooking/shared/model"
	"hallbooking/shared/timezone"
)

type CreateReservationRequest struct {
	VenueID       string `json:"venue_id"       validate:"required,uuid"`
	CustomerName  string `json:"customer_name"  validate:"required,max=100"`
	CustomerPhone string `json:"customer_phone" validate:"required,max=20"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email,max=100"`
	EventType     string `json:"event_type"     validate:"omitempty,max=50"`
	GuestCount    int    `json:"guest_count"    validate:"required,gte=1"`
	StartsAt      string `json:"starts_at"      validate:"required"`
	EndsAt        string `json:"ends_at"        validate:"required"`
	Notes         string `json:"notes"          validate:"omitempty,max=500"`

	// IdempotencyKey is read from the Idempotency-Key header, not the body.
	IdempotencyKey string `json:"-"`
}

// Window parses the requested interval. Times are accepted in RFC3339 with
// any offset and normalized to UTC.
func (c *CreateReservationRequest) Window() (model.TimeRange, error) {
	startsAt, err := time.Parse(constant.DateFormat, c.StartsAt)
	if err != nil {
		return model.TimeRange{}, err //nolint:wrapcheck
	}

	endsAt, err := time.Parse(constant.DateFormat, c.EndsAt)
	if err != nil {
		return model.TimeRange{}, err //nolint:wrapcheck
	}

	return model.TimeRange{StartsAt: startsAt.UTC(), EndsAt: endsAt.UTC()}, nil
}

func (c *CreateReservationRequest) ToCustomerModel(tenantID, user string) customerModel.Customer {
	return customerModel.Customer{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Name:     c.CustomerName,
		Phone:    c.CustomerPhone,
		Email:    c.CustomerEmail,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// RecordPaymentRequest is the payment subsystem's callback payload. Kind
// tells which payment milestone was reached, not how much was paid.
type RecordPaymentRequest struct {
	Kind string `json:"kind" validate:"required,oneof=deposit full_payment"`
}

type ReservationResponse struct {
	ID                 string  `json:"id"`
	BookingNumber      string  `json:"booking_number"`
	VenueID            string  `json:"venue_id"`
	CustomerID         string  `json:"customer_id"`
	EventType          string  `json:"event_type,omitempty"`
	GuestCount         int     `json:"guest_count"`
	Status             string  `json:"status"`
	StartsAt           string  `json:"starts_at"`
	EndsAt             string  `json:"ends_at"`
	HoldExpiresAt      *string `json:"hold_expires_at,omitempty"`
	TotalAmountCents   int64   `json:"total_amount_cents"`
	ConfirmedAt        *string `json:"confirmed_at,omitempty"`
	ConfirmedBy        *string `json:"confirmed_by,omitempty"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	RefundPercent      *int    `json:"refund_percent,omitempty"`
	RefundAmountCents  *int64  `json:"refund_amount_cents,omitempty"`
	Notes              string  `json:"notes,omitempty"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(model model.Reservation) {
	r.ID = model.ID
	r.BookingNumber = model.BookingNumber
	r.VenueID = model.VenueID
	r.CustomerID = model.CustomerID
	r.EventType = model.EventType
	r.GuestCount = model.GuestCount
	r.Status = string(model.Status)
	r.StartsAt = model.StartsAt.UTC().Format(constant.DateFormat)
	r.EndsAt = model.EndsAt.UTC().Format(constant.DateFormat)
	r.HoldExpiresAt = formatTime(model.HoldExpiresAt)
	r.TotalAmountCents = model.TotalAmountCents
	r.ConfirmedAt = formatTime(model.ConfirmedAt)
	r.ConfirmedBy = model.ConfirmedBy
	r.CancelledAt = formatTime(model.CancelledAt)
	r.CancellationReason = model.CancellationReason
	r.RefundPercent = model.RefundPercent
	r.RefundAmountCents = model.RefundAmountCents
	r.Notes = model.Notes
	r.Metadata.FromModel(model.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}

	formatted := t.UTC().Format(constant.DateFormat)

	return &formatted
}
