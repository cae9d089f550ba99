// README: Booking handlers for list, create, status updates, OTP, and completion.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cabdesk/internal/http/middleware"
	"cabdesk/internal/modules/booking"
	"cabdesk/internal/types"
)

type BookingHandler struct {
	booking *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{booking: svc}
}

func bookingJSON(b *booking.Booking) map[string]any {
	out := map[string]any{
		"booking_id":       b.ID,
		"vendor_id":        b.VendorID,
		"customer_id":      b.CustomerID,
		"status":           b.Status,
		"price":            b.Price.Amount,
		"currency":         b.Price.Currency,
		"pickup_location":  b.PickupLocation,
		"dropoff_location": b.DropoffLocation,
		"pickup_date":      b.PickupDate,
	}
	if b.DriverID != nil {
		out["driver_id"] = *b.DriverID
	}
	if b.DropDate != nil {
		out["drop_date"] = *b.DropDate
	}
	if b.CancelReason != nil {
		out["cancel_reason"] = *b.CancelReason
	}
	return out
}

// List returns the authenticated vendor's bookings, optionally filtered
// by ?status=.
func (h *BookingHandler) List(c *gin.Context) {
	if middleware.CallerRole(c) != "vendor" {
		writeError(c, http.StatusForbidden, "forbidden: vendor role required")
		return
	}
	status := booking.Status(c.Query("status"))
	if status != "" && !validStatus(status) {
		writeError(c, http.StatusBadRequest, "unknown status filter")
		return
	}
	list, err := h.booking.List(c.Request.Context(), types.ID(middleware.CallerUID(c)), status)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for _, b := range list {
		out = append(out, bookingJSON(b))
	}
	writeJSON(c, http.StatusOK, map[string]any{"bookings": out})
}

type createBookingReq struct {
	VendorID        string `json:"vendor_id"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
	PickupDate      string `json:"pickup_date"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pickupDate := time.Now()
	if req.PickupDate != "" {
		t, err := time.Parse(time.RFC3339, req.PickupDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "pickup_date must be RFC3339")
			return
		}
		pickupDate = t
	}
	id, err := h.booking.Create(c.Request.Context(), booking.CreateCommand{
		VendorID:        types.ID(req.VendorID),
		CustomerID:      types.ID(middleware.CallerUID(c)),
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		PickupDate:      pickupDate,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"booking_id": id, "status": booking.StatusWaiting})
}

type updateStatusReq struct {
	Status   string `json:"status"`
	DriverID string `json:"driver_id"`
	Otp      string `json:"otp"`
	Reason   string `json:"reason"`
}

// UpdateStatus is the one boundary onto the transition authority. The
// actor role comes from the session, never from the payload.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	target := booking.Status(req.Status)
	if !validStatus(target) {
		writeError(c, http.StatusBadRequest, "unknown target status")
		return
	}
	actor := booking.Actor(middleware.CallerRole(c))
	if actor != booking.ActorVendor && actor != booking.ActorDriver {
		writeError(c, http.StatusForbidden, "forbidden: vendor or driver role required")
		return
	}
	b, err := h.booking.Transition(c.Request.Context(), booking.TransitionCommand{
		BookingID: types.ID(id),
		Target:    target,
		Actor:     actor,
		ActorID:   types.ID(middleware.CallerUID(c)),
		DriverID:  types.ID(req.DriverID),
		Otp:       req.Otp,
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingJSON(b))
}

// IssueOtp generates the trip-start code the customer reads out to the
// driver. Reached from the driver's tracking link.
func (h *BookingHandler) IssueOtp(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	if middleware.CallerRole(c) != "driver" {
		writeError(c, http.StatusForbidden, "forbidden: driver role required")
		return
	}
	code, err := h.booking.IssueTripCode(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"booking_id": id, "otp": code})
}

type verifyOtpReq struct {
	Otp string `json:"otp"`
}

// VerifyOtp consumes the code and moves the booking into ongoing.
func (h *BookingHandler) VerifyOtp(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	if middleware.CallerRole(c) != "driver" {
		writeError(c, http.StatusForbidden, "forbidden: driver role required")
		return
	}
	var req verifyOtpReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Otp == "" {
		writeError(c, http.StatusBadRequest, "missing otp")
		return
	}
	b, err := h.booking.Start(c.Request.Context(), types.ID(id), types.ID(middleware.CallerUID(c)), req.Otp)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingJSON(b))
}

func (h *BookingHandler) Complete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	if middleware.CallerRole(c) != "driver" {
		writeError(c, http.StatusForbidden, "forbidden: driver role required")
		return
	}
	b, err := h.booking.Complete(c.Request.Context(), types.ID(id), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, bookingJSON(b))
}

func validStatus(s booking.Status) bool {
	switch s {
	case booking.StatusWaiting, booking.StatusApproved, booking.StatusPreongoing,
		booking.StatusOngoing, booking.StatusCompleted, booking.StatusCancelled:
		return true
	}
	return false
}
