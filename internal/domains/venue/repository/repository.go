package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"time"

	"hallbooking/infras/otel"
	"hallbooking/infras/postgres"
	"hallbooking/internal/domains/venue/model"
	gDto "hallbooking/shared/dto"
	gRepo "hallbooking/shared/repository"
)

type Venue interface {
	Insert(ctx context.Context, model model.Venue) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Venue, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Venue, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type venueRepositoryImpl struct {
	gRepo.Repository[model.Venue]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Venue {
	return &venueRepositoryImpl{
		Repository: gRepo.NewRepository[model.Venue](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

type Blackout interface {
	Insert(ctx context.Context, model model.VenueBlackout) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.VenueBlackout, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.VenueBlackout, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	FindOverlapping(ctx context.Context, tenantID, venueID string, startsAt, endsAt time.Time) ([]model.VenueBlackout, error)
}

type blackoutRepositoryImpl struct {
	gRepo.Repository[model.VenueBlackout]
	db   *postgres.Connection
	otel otel.Otel
}

func NewBlackout(db *postgres.Connection, otel otel.Otel) Blackout {
	return &blackoutRepositoryImpl{
		Repository: gRepo.NewRepository[model.VenueBlackout](model.BlackoutEntityName, model.BlackoutTableName, model.BlackoutFieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// FindOverlapping returns the blackouts intersecting the half-open range
// [startsAt, endsAt), ordered by start. A blackout ending exactly at startsAt
// does not intersect.
func (repo *blackoutRepositoryImpl) FindOverlapping(ctx context.Context, tenantID, venueID string, startsAt, endsAt time.Time) ([]model.VenueBlackout, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.BlackoutFieldTenantID, Value: tenantID, Operator: gDto.FilterOperatorEq, Table: model.BlackoutTableName},
			gDto.Filter{Field: model.BlackoutFieldVenueID, Value: venueID, Operator: gDto.FilterOperatorEq, Table: model.BlackoutTableName},
			gDto.Filter{Field: model.BlackoutFieldStartsAt, Value: endsAt, Operator: gDto.FilterOperatorLess, Table: model.BlackoutTableName},
			gDto.Filter{Field: model.BlackoutFieldEndsAt, Value: startsAt, Operator: gDto.FilterOperatorGreater, Table: model.BlackoutTableName},
		},
	}

	params := gDto.QueryParams{
		SortBy:  model.BlackoutFieldStartsAt,
		SortDir: gDto.SortDirAsc,
	}

	return repo.GetAll(ctx, params, filter) //nolint:wrapcheck
}
