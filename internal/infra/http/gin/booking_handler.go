package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	ListingID string                      `json:"listing_id"`
	CheckIn   time.Time                   `json:"check_in"`
	CheckOut  time.Time                   `json:"check_out"`
	Guests    int                         `json:"guests"`
	Addons    []bookingapp.AddonSelection `json:"addons"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		GuestID:         user.ID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		Addons:          req.Addons,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	if _, ok := requireRole(c, ""); !ok {
		return
	}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.ReservationSummary](c.Request.Context(), h.Queries, bookingapp.GetBookingQuery{
		ReservationID: c.Param("id"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	if _, ok := requireRole(c, "host"); !ok {
		return
	}
	h.transition(c, bookingapp.ConfirmBookingCommand{ReservationID: c.Param("id")})
}

func (h BookingHandler) Reject(c *gin.Context) {
	if _, ok := requireRole(c, "host"); !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	h.transition(c, bookingapp.RejectBookingCommand{ReservationID: c.Param("id"), Reason: req.Reason})
}

func (h BookingHandler) CheckIn(c *gin.Context) {
	if _, ok := requireRole(c, "host"); !ok {
		return
	}
	h.transition(c, bookingapp.CheckInCommand{ReservationID: c.Param("id")})
}

func (h BookingHandler) CheckOut(c *gin.Context) {
	if _, ok := requireRole(c, "host"); !ok {
		return
	}
	h.transition(c, bookingapp.CheckOutCommand{ReservationID: c.Param("id")})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	if _, ok := requireRole(c, ""); !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	cmd := bookingapp.CancelBookingCommand{ReservationID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) transition(c *gin.Context, cmd commands.Command) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	result, err := h.Commands.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
