package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/dto"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	"staybook/internal/domain/reservation"
)

const (
	ConfirmBookingKey = "booking.confirm"
	RejectBookingKey  = "booking.reject"
	CancelBookingKey  = "booking.cancel"
	CheckInKey        = "booking.check_in"
	CheckOutKey       = "booking.check_out"
)

var ErrReservationRequired = errors.New("booking: reservation id is required")

func requireReservationID(id string) error {
	if id == "" {
		return ErrReservationRequired
	}
	return nil
}

type ConfirmBookingCommand struct {
	ReservationID string
}

func (ConfirmBookingCommand) Key() string       { return ConfirmBookingKey }
func (c ConfirmBookingCommand) Validate() error { return requireReservationID(c.ReservationID) }

type RejectBookingCommand struct {
	ReservationID string
	Reason        string
}

func (RejectBookingCommand) Key() string       { return RejectBookingKey }
func (c RejectBookingCommand) Validate() error { return requireReservationID(c.ReservationID) }

type CancelBookingCommand struct {
	ReservationID string
	Reason        string
}

func (CancelBookingCommand) Key() string       { return CancelBookingKey }
func (c CancelBookingCommand) Validate() error { return requireReservationID(c.ReservationID) }

type CheckInCommand struct {
	ReservationID string
}

func (CheckInCommand) Key() string       { return CheckInKey }
func (c CheckInCommand) Validate() error { return requireReservationID(c.ReservationID) }

type CheckOutCommand struct {
	ReservationID string
}

func (CheckOutCommand) Key() string       { return CheckOutKey }
func (c CheckOutCommand) Validate() error { return requireReservationID(c.ReservationID) }

type TransitionResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type CancelBookingResult struct {
	ReservationID string       `json:"reservation_id"`
	Status        string       `json:"status"`
	Refund        dto.MoneyDTO `json:"refund"`
	Penalty       dto.MoneyDTO `json:"penalty"`
}

// TransitionHandler moves a reservation through its lifecycle. Each
// transition loads the aggregate inside the current unit of work, lets
// it enforce its own state rules and drains the raised events.
type TransitionHandler struct {
	box     outbox.Outbox
	encoder outbox.EventEncoder
	clock   func() time.Time
}

func NewTransitionHandler(box outbox.Outbox) *TransitionHandler {
	return &TransitionHandler{
		box:     box,
		encoder: outbox.JSONEventEncoder{IDGenerator: uuid.NewString},
		clock:   time.Now,
	}
}

// WithClock overrides the handler clock, for tests.
func (h *TransitionHandler) WithClock(clock func() time.Time) *TransitionHandler {
	h.clock = clock
	return h
}

func (h *TransitionHandler) HandleConfirm(ctx context.Context, cmd ConfirmBookingCommand) (*TransitionResult, error) {
	return h.transition(ctx, cmd.ReservationID, func(res *reservation.Reservation) error {
		return res.Confirm(h.clock())
	})
}

func (h *TransitionHandler) HandleReject(ctx context.Context, cmd RejectBookingCommand) (*TransitionResult, error) {
	return h.transition(ctx, cmd.ReservationID, func(res *reservation.Reservation) error {
		return res.Reject(cmd.Reason, h.clock())
	})
}

func (h *TransitionHandler) HandleCheckIn(ctx context.Context, cmd CheckInCommand) (*TransitionResult, error) {
	return h.transition(ctx, cmd.ReservationID, func(res *reservation.Reservation) error {
		return res.CheckIn(h.clock())
	})
}

func (h *TransitionHandler) HandleCheckOut(ctx context.Context, cmd CheckOutCommand) (*TransitionResult, error) {
	return h.transition(ctx, cmd.ReservationID, func(res *reservation.Reservation) error {
		return res.CheckOut(h.clock())
	})
}

func (h *TransitionHandler) HandleCancel(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	res, err := unit.Reservations().ByID(ctx, reservation.ReservationID(cmd.ReservationID))
	if err != nil {
		return nil, err
	}
	refund, penalty, err := res.Cancel(cmd.Reason, h.clock())
	if err != nil {
		return nil, err
	}
	if err := h.persist(ctx, unit, res); err != nil {
		return nil, err
	}
	return &CancelBookingResult{
		ReservationID: string(res.ID),
		Status:        string(res.Status),
		Refund:        dto.MapMoney(refund),
		Penalty:       dto.MapMoney(penalty),
	}, nil
}

func (h *TransitionHandler) transition(ctx context.Context, id string, apply func(*reservation.Reservation) error) (*TransitionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	res, err := unit.Reservations().ByID(ctx, reservation.ReservationID(id))
	if err != nil {
		return nil, err
	}
	if err := apply(res); err != nil {
		return nil, err
	}
	if err := h.persist(ctx, unit, res); err != nil {
		return nil, err
	}
	return &TransitionResult{ReservationID: string(res.ID), Status: string(res.Status)}, nil
}

func (h *TransitionHandler) persist(ctx context.Context, unit uow.UnitOfWork, res *reservation.Reservation) error {
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return err
	}
	if err := outbox.RecordDomainEvents(ctx, h.box, h.encoder, res.PendingEvents()); err != nil {
		return err
	}
	res.ClearEvents()
	return nil
}
