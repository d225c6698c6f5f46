package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"hallbooking/infras/otel"
	"hallbooking/infras/postgres"
	"hallbooking/internal/domains/customer/model"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	"hallbooking/shared/logger"
	gRepo "hallbooking/shared/repository"
)

type Customer interface {
	Insert(ctx context.Context, model model.Customer) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Customer, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Customer, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	UpsertByPhone(ctx context.Context, model model.Customer) (model.Customer, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Customer]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Customer {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Customer](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// UpsertByPhone inserts the customer or, when the tenant already knows the
// phone number, refreshes the contact details on the existing row. The
// returned row carries the id the caller must reference.
func (repo *repositoryImpl) UpsertByPhone(ctx context.Context, mod model.Customer) (model.Customer, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".customer.UpsertByPhone")
	defer scope.End()

	query := `INSERT INTO customers (id, tenant_id, name, phone, email, created_at, modified_at, created_by, modified_by)
		VALUES (:id, :tenant_id, :name, :phone, :email, :created_at, :modified_at, :created_by, :modified_by)
		ON CONFLICT (tenant_id, phone) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, modified_at = EXCLUDED.modified_at, modified_by = EXCLUDED.modified_by
		RETURNING id, tenant_id, name, phone, email, created_at, modified_at, created_by, modified_by`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var out model.Customer

	rows, err := repo.db.Write.NamedQueryContext(ctx, query, mod)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return out, fmt.Errorf("failed to upsert data (%s): %w", model.EntityName, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(&out); err != nil {
			logger.ErrorWithStack(err)
			scope.TraceError(err)

			return out, fmt.Errorf("failed to scan data (%s): %w", model.EntityName, err)
		}
	}

	if err := rows.Err(); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return out, fmt.Errorf("failed to upsert data (%s): %w", model.EntityName, err)
	}

	return out, nil
}
