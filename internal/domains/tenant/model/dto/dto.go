package dto

import (
	"github.com/google/uuid"

	"hallbooking/internal/domains/tenant/model"
	"hallbooking/shared"
	gDto "hallbooking/shared/dto"
	gModel "hallbooking/shared/model"
	"hallbooking/shared/timezone"
)

type CreateTenantRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"contact_email" validate:"required,email,max=255"`
}

func (c *CreateTenantRequest) ToModel(user string) model.Tenant {
	return model.Tenant{
		ID:     uuid.NewString(),
		Name:   c.Name,
		Email:  c.Email,
		Active: true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateTenantRequest struct {
	Name   string `db:"name" json:"name" validate:"omitempty,max=255"`
	Email  string `db:"contact_email" json:"contact_email" validate:"omitempty,email,max=255"`
	Active *bool  `db:"active" json:"active" validate:"omitempty"`
}

type TenantResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"contact_email"`
	Active bool   `json:"active"`
	gDto.Metadata
}

func (r *TenantResponse) FromModel(model model.Tenant) {
	r.ID = model.ID
	r.Name = model.Name
	r.Email = model.Email
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetTenantsResponse struct {
	Tenants   []TenantResponse `json:"tenants"`
	TotalPage int              `json:"total_page"`
	TotalData int              `json:"total_data"`
}

func (r *GetTenantsResponse) FromModels(models []model.Tenant, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Tenants = make([]TenantResponse, len(models))
	for i, mod := range models {
		r.Tenants[i].FromModel(mod)
	}
}
