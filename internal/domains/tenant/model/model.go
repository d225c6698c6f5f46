package model

import "hallbooking/shared/model"

const (
	TableName  = "tenants"
	EntityName = "tenant"

	FieldID     = "id"
	FieldName   = "name"
	FieldEmail  = "contact_email"
	FieldActive = "active"
)

type Tenant struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Email  string `db:"contact_email"`
	Active bool   `db:"active"`
	model.Metadata
}
