// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"cabdesk/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusWaiting    Status = "waiting"
	StatusApproved   Status = "approved"
	StatusPreongoing Status = "preongoing"
	StatusOngoing    Status = "ongoing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Actor identifies who requests a transition.
type Actor string

const (
	ActorVendor Actor = "vendor"
	ActorDriver Actor = "driver"
	ActorSystem Actor = "system"
)

type Booking struct {
	ID              types.ID
	VendorID        types.ID
	CustomerID      types.ID
	DriverID        *types.ID
	Status          Status
	StatusVersion   int
	Price           types.Money
	PickupLocation  string
	DropoffLocation string
	PickupDate      time.Time
	DropDate        *time.Time
	CreatedAt       time.Time
	ApprovedAt      *time.Time
	DepartedAt      *time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    *string
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  Actor
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the booking lifecycle as code. Statuses
// move forward only; completed and cancelled are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusWaiting:    {StatusApproved, StatusCancelled},
	StatusApproved:   {StatusPreongoing, StatusCancelled},
	StatusPreongoing: {StatusOngoing},
	StatusOngoing:    {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// transitionActors maps each target status to the role allowed to request it.
// Approval and cancellation are vendor actions; the trip itself is driven
// from the driver's tracking link.
var transitionActors = map[Status]Actor{
	StatusApproved:   ActorVendor,
	StatusCancelled:  ActorVendor,
	StatusPreongoing: ActorDriver,
	StatusOngoing:    ActorDriver,
	StatusCompleted:  ActorDriver,
}

func actorAllowed(actor Actor, target Status) bool {
	want, ok := transitionActors[target]
	if !ok {
		return false
	}
	return actor == want || actor == ActorSystem
}
