package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "staybook/internal/app/handlers/booking"
	quoteapp "staybook/internal/app/handlers/quote"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
)

// statusFor maps domain failures onto HTTP statuses: missing aggregates
// are 404, date conflicts and illegal transitions 409, everything the
// caller can fix 422.
func statusFor(err error) int {
	switch {
	case errors.Is(err, listings.ErrListingNotFound),
		errors.Is(err, reservation.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, availability.ErrDateBlocked),
		errors.Is(err, reservation.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, availability.ErrInvalidOrder),
		errors.Is(err, availability.ErrTooShort),
		errors.Is(err, availability.ErrTooLong),
		errors.Is(err, pricing.ErrUnknownAddon),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidNights),
		errors.Is(err, bookingapp.ErrGuestsExceeded),
		errors.Is(err, bookingapp.ErrListingUnavailable),
		errors.Is(err, quoteapp.ErrGuestsExceeded),
		errors.Is(err, quoteapp.ErrListingUnavailable),
		errors.Is(err, reservation.ErrInvalidGuests):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
