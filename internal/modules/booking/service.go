// README: Booking service; the single authority for status transitions.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"cabdesk/internal/types"
)

// WalletGuard gates approval of new bookings on vendor balance.
type WalletGuard interface {
	CheckThreshold(ctx context.Context, vendorID types.ID) error
}

// OtpGate issues and verifies the single-use trip-start codes.
type OtpGate interface {
	Issue(ctx context.Context, bookingID types.ID) (string, error)
	Verify(ctx context.Context, bookingID types.ID, code string) error
}

// Earnings receives the trip price for the driver once a trip completes.
type Earnings interface {
	CreditEarnings(ctx context.Context, driverID types.ID, amount types.Money, bookingID types.ID) error
}

// Estimator prices a trip from pickup to dropoff.
type Estimator interface {
	Estimate(ctx context.Context, pickup, dropoff string) (types.Money, error)
}

type Service struct {
	store    *Store
	wallet   WalletGuard
	otp      OtpGate
	earnings Earnings
	pricing  Estimator
}

func NewService(store *Store, wallet WalletGuard, otp OtpGate, earnings Earnings, pricing Estimator) *Service {
	return &Service{store: store, wallet: wallet, otp: otp, earnings: earnings, pricing: pricing}
}

var (
	ErrNotFound          = errors.New("booking not found")
	ErrConflict          = errors.New("booking state conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingDriver     = errors.New("driver required for approval")
	ErrActorNotAllowed   = errors.New("actor not allowed for transition")
	ErrNotIssuable       = errors.New("otp not issuable in current status")
	ErrBadRequest        = errors.New("bad request")
)

// InvalidTransitionError reports the current and requested status.
// errors.Is(err, ErrInvalidTransition) matches it.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type CreateCommand struct {
	VendorID        types.ID
	CustomerID      types.ID
	PickupLocation  string
	DropoffLocation string
	PickupDate      time.Time
}

type TransitionCommand struct {
	BookingID types.ID
	Target    Status
	Actor     Actor
	ActorID   types.ID
	// DriverID is required when Target is StatusApproved.
	DriverID types.ID
	// Otp is required when Target is StatusOngoing.
	Otp    string
	Reason string
}

// Create lands a new booking in waiting state. Price is estimated from
// the trip locations when an estimator is wired; otherwise it stays zero
// until the vendor sets it.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.VendorID == "" || cmd.CustomerID == "" || cmd.PickupLocation == "" || cmd.DropoffLocation == "" {
		return "", ErrBadRequest
	}

	id := newID()
	now := time.Now()
	price := types.Rupees(0)
	if s.pricing != nil {
		if m, err := s.pricing.Estimate(ctx, cmd.PickupLocation, cmd.DropoffLocation); err == nil {
			price = m
		}
	}

	b := &Booking{
		ID:              id,
		VendorID:        cmd.VendorID,
		CustomerID:      cmd.CustomerID,
		Status:          StatusWaiting,
		StatusVersion:   0,
		Price:           price,
		PickupLocation:  cmd.PickupLocation,
		DropoffLocation: cmd.DropoffLocation,
		PickupDate:      cmd.PickupDate,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  id,
		FromStatus: StatusNone,
		ToStatus:   StatusWaiting,
		ActorType:  ActorSystem,
		ActorID:    &cmd.CustomerID,
		CreatedAt:  now,
	})
	return id, nil
}

// Transition validates and applies one status change. A failed call
// leaves the booking untouched; a concurrent loser gets ErrConflict and
// must re-read current status.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, cmd.Target) {
		return nil, InvalidTransitionError{From: b.Status, To: cmd.Target}
	}
	if !actorAllowed(cmd.Actor, cmd.Target) {
		return nil, ErrActorNotAllowed
	}

	driverID := b.DriverID
	switch cmd.Target {
	case StatusApproved:
		if cmd.DriverID == "" {
			return nil, ErrMissingDriver
		}
		if s.wallet != nil {
			if err := s.wallet.CheckThreshold(ctx, b.VendorID); err != nil {
				return nil, err
			}
		}
		d := cmd.DriverID
		driverID = &d
	case StatusOngoing:
		if err := s.otp.Verify(ctx, b.ID, cmd.Otp); err != nil {
			return nil, err
		}
	}

	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, cmd.Target, b.StatusVersion, driverID, cmd.Reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	actorID := cmd.ActorID
	var actorRef *types.ID
	if actorID != "" {
		actorRef = &actorID
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   cmd.Target,
		ActorType:  cmd.Actor,
		ActorID:    actorRef,
		CreatedAt:  time.Now(),
	})

	updated, err := s.store.Get(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	if cmd.Target == StatusCompleted && s.earnings != nil && updated.DriverID != nil {
		// Earnings accounting is downstream; a failed credit does not
		// roll the trip back.
		if err := s.earnings.CreditEarnings(ctx, *updated.DriverID, updated.Price, updated.ID); err != nil {
			log.Printf("booking %s: earnings credit failed: %v", updated.ID, err)
		}
	}
	return updated, nil
}

// Approve assigns a driver to a waiting booking.
func (s *Service) Approve(ctx context.Context, bookingID, driverID, vendorID types.ID) (*Booking, error) {
	return s.Transition(ctx, TransitionCommand{
		BookingID: bookingID,
		Target:    StatusApproved,
		Actor:     ActorVendor,
		ActorID:   vendorID,
		DriverID:  driverID,
	})
}

// Depart moves an approved booking to preongoing when the driver heads out.
func (s *Service) Depart(ctx context.Context, bookingID, driverID types.ID) (*Booking, error) {
	return s.Transition(ctx, TransitionCommand{
		BookingID: bookingID,
		Target:    StatusPreongoing,
		Actor:     ActorDriver,
		ActorID:   driverID,
	})
}

// Start consumes the customer's OTP and puts the trip in ongoing state.
func (s *Service) Start(ctx context.Context, bookingID, driverID types.ID, code string) (*Booking, error) {
	return s.Transition(ctx, TransitionCommand{
		BookingID: bookingID,
		Target:    StatusOngoing,
		Actor:     ActorDriver,
		ActorID:   driverID,
		Otp:       code,
	})
}

// Complete closes an ongoing trip and triggers earnings accounting.
func (s *Service) Complete(ctx context.Context, bookingID, driverID types.ID) (*Booking, error) {
	return s.Transition(ctx, TransitionCommand{
		BookingID: bookingID,
		Target:    StatusCompleted,
		Actor:     ActorDriver,
		ActorID:   driverID,
	})
}

// Cancel is permitted from waiting or approved only (per the table).
func (s *Service) Cancel(ctx context.Context, bookingID, vendorID types.ID, reason string) (*Booking, error) {
	return s.Transition(ctx, TransitionCommand{
		BookingID: bookingID,
		Target:    StatusCancelled,
		Actor:     ActorVendor,
		ActorID:   vendorID,
		Reason:    reason,
	})
}

// IssueTripCode generates the trip-start OTP. Only bookings that are
// approved or preongoing may receive a code; reissue overwrites any
// prior unconsumed code.
func (s *Service) IssueTripCode(ctx context.Context, bookingID types.ID) (string, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if b.Status != StatusApproved && b.Status != StatusPreongoing {
		return "", ErrNotIssuable
	}
	return s.otp.Issue(ctx, b.ID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

// List returns a vendor's bookings filtered by status; an empty status
// returns all of them.
func (s *Service) List(ctx context.Context, vendorID types.ID, status Status) ([]*Booking, error) {
	return s.store.ListByVendor(ctx, vendorID, status)
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
