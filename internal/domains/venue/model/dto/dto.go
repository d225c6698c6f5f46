package dto

import (
	"time"

	"github.com/google/uuid"

	"hallbooking/internal/domains/venue/model"
	"hallbooking/shared"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	gModel "hallbooking/shared/model"
	"hallbooking/shared/timezone"
)

type CreateVenueRequest struct {
	Name               string `json:"name"                validate:"required,max=100"`
	Location           string `json:"location"            validate:"omitempty,max=255"`
	Capacity           int    `json:"capacity"            validate:"required,gte=1"`
	HourlyRateCents    int64  `json:"hourly_rate_cents"   validate:"required,gte=0"`
	ConfirmationPolicy string `json:"confirmation_policy" validate:"omitempty,oneof=manual deposit full_payment"`
	Timezone           string `json:"timezone"            validate:"omitempty,timezone"`
	Active             *bool  `json:"active"              validate:"omitempty"`
}

func (c *CreateVenueRequest) ToModel(tenantID, user string) model.Venue {
	policy := model.PolicyManual
	if c.ConfirmationPolicy != "" {
		policy = model.ConfirmationPolicy(c.ConfirmationPolicy)
	}

	tz := c.Timezone
	if tz == "" {
		tz = "UTC"
	}

	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Venue{
		ID:                 uuid.NewString(),
		TenantID:           tenantID,
		Name:               c.Name,
		Location:           c.Location,
		Capacity:           c.Capacity,
		HourlyRateCents:    c.HourlyRateCents,
		ConfirmationPolicy: policy,
		Timezone:           tz,
		Active:             active,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateVenueRequest struct {
	Name               string `db:"name"                json:"name"                validate:"omitempty,max=100"`
	Location           string `db:"location"            json:"location"            validate:"omitempty,max=255"`
	Capacity           int    `db:"capacity"            json:"capacity"            validate:"omitempty,gte=1"`
	HourlyRateCents    int64  `db:"hourly_rate_cents"   json:"hourly_rate_cents"   validate:"omitempty,gte=0"`
	ConfirmationPolicy string `db:"confirmation_policy" json:"confirmation_policy" validate:"omitempty,oneof=manual deposit full_payment"`
	Timezone           string `db:"timezone"            json:"timezone"            validate:"omitempty,timezone"`
	Active             *bool  `db:"active"              json:"active"              validate:"omitempty"`
}

type VenueResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Location           string `json:"location"`
	Capacity           int    `json:"capacity"`
	HourlyRateCents    int64  `json:"hourly_rate_cents"`
	ConfirmationPolicy string `json:"confirmation_policy"`
	Timezone           string `json:"timezone"`
	Active             bool   `json:"active"`
	gDto.Metadata
}

func (r *VenueResponse) FromModel(model model.Venue) {
	r.ID = model.ID
	r.Name = model.Name
	r.Location = model.Location
	r.Capacity = model.Capacity
	r.HourlyRateCents = model.HourlyRateCents
	r.ConfirmationPolicy = string(model.ConfirmationPolicy)
	r.Timezone = model.Timezone
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetVenuesResponse struct {
	Venues    []VenueResponse `json:"venues"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetVenuesResponse) FromModels(models []model.Venue, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Venues = make([]VenueResponse, len(models))
	for i, mod := range models {
		r.Venues[i].FromModel(mod)
	}
}

type CreateBlackoutRequest struct {
	StartsAt string `json:"starts_at" validate:"required"`
	EndsAt   string `json:"ends_at"   validate:"required"`
	Reason   string `json:"reason"    validate:"omitempty,max=255"`
}

func (c *CreateBlackoutRequest) ToModel(tenantID, venueID, user string) (model.VenueBlackout, error) {
	startsAt, err := time.Parse(constant.DateFormat, c.StartsAt)
	if err != nil {
		return model.VenueBlackout{}, err //nolint:wrapcheck
	}

	endsAt, err := time.Parse(constant.DateFormat, c.EndsAt)
	if err != nil {
		return model.VenueBlackout{}, err //nolint:wrapcheck
	}

	return model.VenueBlackout{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		VenueID:  venueID,
		StartsAt: startsAt.UTC(),
		EndsAt:   endsAt.UTC(),
		Reason:   c.Reason,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

type BlackoutResponse struct {
	ID       string `json:"id"`
	VenueID  string `json:"venue_id"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
	Reason   string `json:"reason"`
}

func (r *BlackoutResponse) FromModel(model model.VenueBlackout) {
	r.ID = model.ID
	r.VenueID = model.VenueID
	r.StartsAt = model.StartsAt.UTC().Format(constant.DateFormat)
	r.EndsAt = model.EndsAt.UTC().Format(constant.DateFormat)
	r.Reason = model.Reason
}

type GetBlackoutsResponse struct {
	Blackouts []BlackoutResponse `json:"blackouts"`
}

func (r *GetBlackoutsResponse) FromModels(models []model.VenueBlackout) {
	r.Blackouts = make([]BlackoutResponse, len(models))
	for i, mod := range models {
		r.Blackouts[i].FromModel(mod)
	}
}
