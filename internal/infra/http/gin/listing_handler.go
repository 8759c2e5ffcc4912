package ginserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	calendarapp "staybook/internal/app/handlers/calendar"
	catalogapp "staybook/internal/app/handlers/catalog"
	quoteapp "staybook/internal/app/handlers/quote"
	"staybook/internal/app/queries"
	"staybook/internal/domain/shared/daterange"
)

type ListingHandler struct {
	Queries queries.Bus
}

func (h ListingHandler) Calendar(c *gin.Context) {
	result, err := queries.Ask[calendarapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, calendarapp.GetCalendarQuery{
		ListingID: c.Param("id"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Quote(c *gin.Context) {
	checkIn, err := parseDay(c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_in, want YYYY-MM-DD"})
		return
	}
	checkOut, err := parseDay(c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_out, want YYYY-MM-DD"})
		return
	}
	guests := 1
	if raw := c.Query("guests"); raw != "" {
		if guests, err = strconv.Atoi(raw); err != nil || guests < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guests"})
			return
		}
	}
	query := quoteapp.GetQuoteQuery{
		ListingID: c.Param("id"),
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    guests,
		Addons:    parseAddons(c.QueryArray("addon")),
	}
	result, err := queries.Ask[quoteapp.GetQuoteQuery, quoteapp.QuoteResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Overview(c *gin.Context) {
	result, err := queries.Ask[catalogapp.GetOverviewQuery, dto.ListingOverview](c.Request.Context(), h.Queries, catalogapp.GetOverviewQuery{
		ListingID: c.Param("id"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseDay(raw string) (time.Time, error) {
	return time.Parse(daterange.DayFormat, raw)
}

// parseAddons reads repeated addon params of the form "id" or "id:qty".
func parseAddons(raw []string) []quoteapp.AddonSelection {
	if len(raw) == 0 {
		return nil
	}
	selections := make([]quoteapp.AddonSelection, 0, len(raw))
	for _, entry := range raw {
		id := entry
		qty := 1
		if idx := strings.LastIndexByte(entry, ':'); idx > 0 {
			if parsed, err := strconv.Atoi(entry[idx+1:]); err == nil {
				id = entry[:idx]
				qty = parsed
			}
		}
		selections = append(selections, quoteapp.AddonSelection{ID: id, Quantity: qty})
	}
	return selections
}

var _ ListingHTTP = ListingHandler{}
