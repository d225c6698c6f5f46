package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"hallbooking/infras/otel"
	"hallbooking/infras/postgres"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	"hallbooking/shared/logger"
	gRepo "hallbooking/shared/repository"
	"hallbooking/shared/timezone"
)

// Write conflicts surface as sentinel errors so the service can tell an
// occupied slot from a replayed request without parsing driver messages.
var (
	ErrOverlap                 = errors.New("time range overlaps an existing reservation")
	ErrDuplicateNumber         = errors.New("booking number already exists")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
	ErrStaleStatus             = errors.New("reservation status changed concurrently")
)

// Unique constraint names from the reservations migration. Overlaps need no
// name check: reservations_no_overlap is the table's only exclusion
// constraint.
const (
	constraintBookingNumber  = "reservations_tenant_booking_number_key"
	constraintIdempotencyKey = "reservations_tenant_idempotency_key"
)

const reservationColumns = `id, tenant_id, venue_id, customer_id, booking_number, event_type, guest_count, notes, status, idempotency_key, total_amount_cents, starts_at, ends_at, hold_expires_at, confirmed_at, confirmed_by, cancelled_at, cancellation_reason, refund_percent, refund_amount_cents, created_at, modified_at, created_by, modified_by`

// UpdateStatusParams describes a compare-and-set status transition. The row
// must currently be in one of From; optional fields are written alongside the
// new status in the same statement.
type UpdateStatusParams struct {
	TenantID   string
	ID         string
	From       []model.Status
	To         model.Status
	ModifiedBy string

	// HoldLapsedBefore additionally requires hold_expires_at at or before the
	// given instant, so an expiry sweep cannot race a hold that was just
	// extended or converted.
	HoldLapsedBefore *time.Time

	ConfirmedAt        *time.Time
	ConfirmedBy        *string
	CancelledAt        *time.Time
	CancellationReason *string
	RefundPercent      *int
	RefundAmountCents  *int64
}

type Reservation interface {
	Insert(ctx context.Context, model model.Reservation) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Reservation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Reservation, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (model.Reservation, error)
	FindConflicts(ctx context.Context, tenantID, venueID string, startsAt, endsAt time.Time, excludeID string) ([]model.Reservation, error)
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)
	FindCompletable(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)
	GetByIdempotencyKey(ctx context.Context, tenantID, key string) (model.Reservation, error)
	MaxBookingNumber(ctx context.Context, tenantID, prefix string, year int) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func quoteStatuses(statuses []model.Status) string {
	quoted := make([]string, len(statuses))
	for i, s := range statuses {
		quoted[i] = "'" + string(s) + "'"
	}

	return strings.Join(quoted, ", ")
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case constant.PqErrorCodeExclusionViolation:
		return ErrOverlap
	case constant.PqErrorCodeUniqueViolation:
		switch pqErr.Constraint {
		case constraintBookingNumber:
			return ErrDuplicateNumber
		case constraintIdempotencyKey:
			return ErrDuplicateIdempotencyKey
		}
	}

	return err
}

// Insert writes the reservation and lets the exclusion constraint decide
// whether the slot is free. Two requests racing for the same range both reach
// the database; exactly one survives.
func (repo *repositoryImpl) Insert(ctx context.Context, mod model.Reservation) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.Insert")
	defer scope.End()

	placeholders := make([]string, len(repo.InsertColumns))
	for i, col := range repo.InsertColumns {
		placeholders[i] = ":" + col
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", model.TableName, strings.Join(repo.InsertColumns, ", "), strings.Join(placeholders, ", "))
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	_, err := repo.db.Write.NamedExecContext(ctx, query, mod)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to insert data (%s): %w", model.EntityName, err)
	}

	return nil
}

// UpdateStatus transitions the reservation only when its current status is
// still one of From, returning the updated row. ErrStaleStatus means another
// writer got there first and the caller should re-read.
func (repo *repositoryImpl) UpdateStatus(ctx context.Context, params UpdateStatusParams) (model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.UpdateStatus")
	defer scope.End()

	var out model.Reservation

	if len(params.From) == 0 {
		return out, errors.New("expected statuses required")
	}

	sets := []string{"status = :status", "modified_at = :modified_at", "modified_by = :modified_by"}
	args := map[string]any{
		"tenant_id":   params.TenantID,
		"id":          params.ID,
		"status":      params.To,
		"modified_at": timezone.Now(),
		"modified_by": params.ModifiedBy,
	}

	if params.ConfirmedAt != nil {
		sets = append(sets, "confirmed_at = :confirmed_at")
		args["confirmed_at"] = *params.ConfirmedAt
	}

	if params.ConfirmedBy != nil {
		sets = append(sets, "confirmed_by = :confirmed_by")
		args["confirmed_by"] = *params.ConfirmedBy
	}

	if params.CancelledAt != nil {
		sets = append(sets, "cancelled_at = :cancelled_at")
		args["cancelled_at"] = *params.CancelledAt
	}

	if params.CancellationReason != nil {
		sets = append(sets, "cancellation_reason = :cancellation_reason")
		args["cancellation_reason"] = *params.CancellationReason
	}

	if params.RefundPercent != nil {
		sets = append(sets, "refund_percent = :refund_percent")
		args["refund_percent"] = *params.RefundPercent
	}

	if params.RefundAmountCents != nil {
		sets = append(sets, "refund_amount_cents = :refund_amount_cents")
		args["refund_amount_cents"] = *params.RefundAmountCents
	}

	conditions := []string{
		"tenant_id = :tenant_id",
		"id = :id",
		fmt.Sprintf("status IN (%s)", quoteStatuses(params.From)),
	}

	if params.HoldLapsedBefore != nil {
		conditions = append(conditions, "hold_expires_at <= :hold_lapsed_before")
		args["hold_lapsed_before"] = *params.HoldLapsedBefore
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING %s", model.TableName, strings.Join(sets, ", "), strings.Join(conditions, " AND "), reservationColumns)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	rows, err := repo.db.Write.NamedQueryContext(ctx, query, args)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return out, fmt.Errorf("failed to update status (%s): %w", model.EntityName, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			logger.ErrorWithStack(err)
			scope.TraceError(err)

			return out, fmt.Errorf("failed to update status (%s): %w", model.EntityName, err)
		}

		return out, ErrStaleStatus
	}

	if err := rows.StructScan(&out); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return out, fmt.Errorf("failed to scan data (%s): %w", model.EntityName, err)
	}

	return out, nil
}

// FindConflicts returns the reservations occupying any part of the half-open
// range [startsAt, endsAt), ordered by start. Pass excludeID to ignore one
// reservation, e.g. when checking a reschedule against its own slot.
func (repo *repositoryImpl) FindConflicts(ctx context.Context, tenantID, venueID string, startsAt, endsAt time.Time, excludeID string) ([]model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.FindConflicts")
	defer scope.End()

	args := map[string]any{
		"tenant_id": tenantID,
		"venue_id":  venueID,
		"starts_at": startsAt,
		"ends_at":   endsAt,
	}

	conditions := []string{
		"tenant_id = :tenant_id",
		"venue_id = :venue_id",
		"starts_at < :ends_at",
		"ends_at > :starts_at",
		fmt.Sprintf("status IN (%s)", quoteStatuses(model.ActiveStatuses())),
	}

	if excludeID != "" {
		conditions = append(conditions, "id <> :exclude_id")
		args["exclude_id"] = excludeID
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY starts_at ASC", reservationColumns, model.TableName, strings.Join(conditions, " AND "))
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	return repo.selectMany(ctx, scope, query, args)
}

// FindExpiredHolds returns up to limit temporary holds whose TTL has lapsed,
// oldest first. The sweep runs across all tenants.
func (repo *repositoryImpl) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.FindExpiredHolds")
	defer scope.End()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE status = :status AND hold_expires_at <= :now ORDER BY hold_expires_at ASC LIMIT :limit", reservationColumns, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	args := map[string]any{
		"status": model.StatusTempHold,
		"now":    now,
		"limit":  limit,
	}

	return repo.selectMany(ctx, scope, query, args)
}

// FindCompletable returns up to limit confirmed reservations whose end has
// passed, oldest first.
func (repo *repositoryImpl) FindCompletable(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.FindCompletable")
	defer scope.End()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE status = :status AND ends_at <= :now ORDER BY ends_at ASC LIMIT :limit", reservationColumns, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	args := map[string]any{
		"status": model.StatusConfirmed,
		"now":    now,
		"limit":  limit,
	}

	return repo.selectMany(ctx, scope, query, args)
}

// GetByIdempotencyKey returns the reservation previously created under the
// key, or a zero model when the key has never been used by this tenant.
func (repo *repositoryImpl) GetByIdempotencyKey(ctx context.Context, tenantID, key string) (model.Reservation, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.GetByIdempotencyKey")
	defer scope.End()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = :tenant_id AND idempotency_key = :idempotency_key", reservationColumns, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	args := map[string]any{
		"tenant_id":       tenantID,
		"idempotency_key": key,
	}

	var out model.Reservation

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return out, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	err = prepare.GetContext(ctx, &out, args)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return out, fmt.Errorf("failed to get data (%s): %w", model.EntityName, err)
	}

	return out, nil
}

// MaxBookingNumber returns the highest sequence already issued for the tenant
// in the given year, 0 when none. Used to reseed the counter after a cache
// flush and as the fallback when the counter is unreachable.
func (repo *repositoryImpl) MaxBookingNumber(ctx context.Context, tenantID, prefix string, year int) (int, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.MaxBookingNumber")
	defer scope.End()

	query := fmt.Sprintf("SELECT COALESCE(MAX(split_part(booking_number, '-', 3)::int), 0) FROM %s WHERE tenant_id = :tenant_id AND booking_number LIKE :pattern", model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	args := map[string]any{
		"tenant_id": tenantID,
		"pattern":   fmt.Sprintf("%s-%d-%%", prefix, year),
	}

	highest := 0

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	if err := prepare.GetContext(ctx, &highest, args); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to get max booking number (%s): %w", model.EntityName, err)
	}

	return highest, nil
}

func (repo *repositoryImpl) selectMany(ctx context.Context, scope otel.Scope, query string, args map[string]any) ([]model.Reservation, error) {
	var models []model.Reservation

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return models, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	if err := prepare.SelectContext(ctx, &models, args); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return models, fmt.Errorf("failed to get data (%s): %w", model.EntityName, err)
	}

	return models, nil
}
