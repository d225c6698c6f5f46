package events

//go:generate go run go.uber.org/mock/mockgen -source=./events.go -destination=./mocks/events_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"hallbooking/config"
	"hallbooking/infras/kafka"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/shared/timezone"
)

// Event types carried on the reservation stream.
const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationConfirmed = "reservation.confirmed"
	TypeReservationCancelled = "reservation.cancelled"
	TypeReservationExpired   = "reservation.expired"
	TypeReservationCompleted = "reservation.completed"
)

// ReservationEvent is the payload published for every reservation lifecycle
// change. Messages are keyed by reservation ID so all events for one
// reservation land on the same partition in order.
type ReservationEvent struct {
	Type              string       `json:"type"`
	OccurredAt        time.Time    `json:"occurred_at"`
	TenantID          string       `json:"tenant_id"`
	VenueID           string       `json:"venue_id"`
	ReservationID     string       `json:"reservation_id"`
	BookingNumber     string       `json:"booking_number"`
	Status            model.Status `json:"status"`
	StartsAt          time.Time    `json:"starts_at"`
	EndsAt            time.Time    `json:"ends_at"`
	TotalAmountCents  int64        `json:"total_amount_cents"`
	RefundPercent     *int         `json:"refund_percent,omitempty"`
	RefundAmountCents *int64       `json:"refund_amount_cents,omitempty"`
}

// Publisher emits reservation lifecycle events. Publishing is best effort:
// callers fire it off the request path and a failed emit never fails the
// operation it describes.
type Publisher interface {
	ReservationCreated(ctx context.Context, reservation model.Reservation) error
	ReservationConfirmed(ctx context.Context, reservation model.Reservation) error
	ReservationCancelled(ctx context.Context, reservation model.Reservation) error
	ReservationExpired(ctx context.Context, reservation model.Reservation) error
	ReservationCompleted(ctx context.Context, reservation model.Reservation) error
}

type publisherImpl struct {
	client kafka.Client
	cfg    *config.Config
}

func New(client kafka.Client, cfg *config.Config) Publisher {
	return &publisherImpl{
		client: client,
		cfg:    cfg,
	}
}

func (p *publisherImpl) ReservationCreated(ctx context.Context, reservation model.Reservation) error {
	return p.publish(ctx, TypeReservationCreated, reservation)
}

func (p *publisherImpl) ReservationConfirmed(ctx context.Context, reservation model.Reservation) error {
	return p.publish(ctx, TypeReservationConfirmed, reservation)
}

func (p *publisherImpl) ReservationCancelled(ctx context.Context, reservation model.Reservation) error {
	return p.publish(ctx, TypeReservationCancelled, reservation)
}

func (p *publisherImpl) ReservationExpired(ctx context.Context, reservation model.Reservation) error {
	return p.publish(ctx, TypeReservationExpired, reservation)
}

func (p *publisherImpl) ReservationCompleted(ctx context.Context, reservation model.Reservation) error {
	return p.publish(ctx, TypeReservationCompleted, reservation)
}

func (p *publisherImpl) publish(ctx context.Context, eventType string, reservation model.Reservation) error {
	if !p.cfg.Kafka.Enable {
		return nil
	}

	event := ReservationEvent{
		Type:              eventType,
		OccurredAt:        timezone.NowUTC(),
		TenantID:          reservation.TenantID,
		VenueID:           reservation.VenueID,
		ReservationID:     reservation.ID,
		BookingNumber:     reservation.BookingNumber,
		Status:            reservation.Status,
		StartsAt:          reservation.StartsAt,
		EndsAt:            reservation.EndsAt,
		TotalAmountCents:  reservation.TotalAmountCents,
		RefundPercent:     reservation.RefundPercent,
		RefundAmountCents: reservation.RefundAmountCents,
	}

	message := kafka.Message{
		Key:   reservation.ID,
		Value: event,
	}

	if err := p.client.SendMessages(ctx, p.cfg.Kafka.Topic, message); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}
