package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"hallbooking/infras/otel"
	"hallbooking/infras/postgres"
	"hallbooking/internal/domains/tenant/model"
	gDto "hallbooking/shared/dto"
	gRepo "hallbooking/shared/repository"
)

type Tenant interface {
	Insert(ctx context.Context, model model.Tenant) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Tenant, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Tenant, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Tenant]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Tenant {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Tenant](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
