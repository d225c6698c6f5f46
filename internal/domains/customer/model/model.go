package model

import "hallbooking/shared/model"

const (
	TableName  = "customers"
	EntityName = "customer"

	FieldID       = "id"
	FieldTenantID = "tenant_id"
	FieldName     = "name"
	FieldPhone    = "phone"
	FieldEmail    = "email"
)

// Customer is the booking contact. Rows are deduplicated per tenant by phone
// number, so repeat bookers keep a single record.
type Customer struct {
	ID       string `db:"id"`
	TenantID string `db:"tenant_id"`
	Name     string `db:"name"`
	Phone    string `db:"phone"`
	Email    string `db:"email"`
	model.Metadata
}
