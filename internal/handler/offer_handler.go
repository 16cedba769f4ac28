package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ridepool/service-offers/internal/application"
	offerDomain "github.com/ridepool/service-offers/internal/domain/offer"
	"github.com/ridepool/service-offers/internal/domain/vehicle"
	"github.com/ridepool/service-offers/internal/pkg/geo"
	"github.com/ridepool/service-offers/internal/pkg/middleware"
	"github.com/ridepool/service-offers/internal/pkg/response"
)

// OfferHandler handles HTTP requests for offer operations.
type OfferHandler struct {
	offers *application.OfferService
	search *application.SearchService
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(offers *application.OfferService, search *application.SearchService) *OfferHandler {
	return &OfferHandler{offers: offers, search: search}
}

// RegisterRoutes registers all offer routes on the given router group.
func (h *OfferHandler) RegisterRoutes(r *gin.RouterGroup) {
	offers := r.Group("/api/v1/offers")
	offers.Use(middleware.RequireIdentity())
	{
		offers.POST("", h.CreateOffer)
		offers.GET("", h.ListMyOffers)
		offers.GET("/search", h.SearchOffers)
		offers.GET("/number/:number", h.GetOfferByNumber)
		offers.GET("/:id", h.GetOffer)
		offers.POST("/:id/activate", h.ActivateOffer)
		offers.POST("/:id/complete", h.CompleteOffer)
		offers.POST("/:id/cancel", h.CancelOffer)
		offers.POST("/:id/seats/book", h.BookSeats)
		offers.POST("/:id/seats/release", h.ReleaseSeats)
		offers.PUT("/:id/route", h.UpdateRoute)
	}
}

// CreateOffer handles POST /api/v1/offers.
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	driverID := middleware.CallerID(c)

	var req application.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.offers.CreateOffer(c.Request.Context(), driverID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyOffers handles GET /api/v1/offers, listing the caller's offers.
func (h *OfferHandler) ListMyOffers(c *gin.Context) {
	driverID := middleware.CallerID(c)
	page, limit := parsePagination(c)

	offers, total, err := h.offers.GetDriverOffers(c.Request.Context(), driverID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, offers, total, page, limit)
}

// SearchOffers handles GET /api/v1/offers/search. Passenger coordinates are
// optional; without them the search degrades to browse-all over the coarse
// filters.
func (h *OfferHandler) SearchOffers(c *gin.Context) {
	from, ok := parseOptionalCoordinate(c, "from_lat", "from_lng")
	if !ok {
		return
	}
	to, ok := parseOptionalCoordinate(c, "to_lat", "to_lng")
	if !ok {
		return
	}
	if (from == nil) != (to == nil) {
		response.BadRequest(c, "from and to coordinates must be supplied together")
		return
	}

	filter, ok := parseSearchFilter(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.search.Search(c.Request.Context(), application.SearchRequest{
		PassengerFrom: from,
		PassengerTo:   to,
		Filter:        filter,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetOffer handles GET /api/v1/offers/:id.
func (h *OfferHandler) GetOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer ID")
		return
	}

	result, err := h.offers.GetOffer(c.Request.Context(), offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetOfferByNumber handles GET /api/v1/offers/number/:number.
func (h *OfferHandler) GetOfferByNumber(c *gin.Context) {
	result, err := h.offers.GetOfferByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ActivateOffer handles POST /api/v1/offers/:id/activate.
func (h *OfferHandler) ActivateOffer(c *gin.Context) {
	h.transition(c, h.offers.ActivateOffer)
}

// CompleteOffer handles POST /api/v1/offers/:id/complete.
func (h *OfferHandler) CompleteOffer(c *gin.Context) {
	h.transition(c, h.offers.CompleteOffer)
}

// CancelOffer handles POST /api/v1/offers/:id/cancel.
func (h *OfferHandler) CancelOffer(c *gin.Context) {
	h.transition(c, h.offers.CancelOffer)
}

// BookSeats handles POST /api/v1/offers/:id/seats/book.
func (h *OfferHandler) BookSeats(c *gin.Context) {
	h.seatChange(c, h.offers.BookSeats)
}

// ReleaseSeats handles POST /api/v1/offers/:id/seats/release.
func (h *OfferHandler) ReleaseSeats(c *gin.Context) {
	h.seatChange(c, h.offers.ReleaseSeats)
}

// UpdateRoute handles PUT /api/v1/offers/:id/route.
func (h *OfferHandler) UpdateRoute(c *gin.Context) {
	driverID := middleware.CallerID(c)

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer ID")
		return
	}

	var req application.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.offers.UpdateRoute(c.Request.Context(), driverID, offerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// transition runs a driver-owned lifecycle operation on the :id offer.
func (h *OfferHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, driverID, offerID uuid.UUID) (*application.OfferDTO, error),
) {
	driverID := middleware.CallerID(c)

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer ID")
		return
	}

	result, err := op(c.Request.Context(), driverID, offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// seatChange runs a seat booking or release operation on the :id offer.
func (h *OfferHandler) seatChange(
	c *gin.Context,
	op func(ctx context.Context, offerID uuid.UUID, seats int) (*application.OfferDTO, error),
) {
	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer ID")
		return
	}

	var req application.SeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := op(c.Request.Context(), offerID, req.Seats)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// parseOptionalCoordinate reads a lat/lng query pair and validates WGS-84
// bounds. Both keys absent yields nil; a half-supplied or malformed pair is
// a caller error.
func parseOptionalCoordinate(c *gin.Context, latKey, lngKey string) (*geo.Coordinate, bool) {
	rawLat := c.Query(latKey)
	rawLng := c.Query(lngKey)
	if rawLat == "" && rawLng == "" {
		return nil, true
	}

	lat, latErr := strconv.ParseFloat(rawLat, 64)
	lng, lngErr := strconv.ParseFloat(rawLng, 64)
	if latErr != nil || lngErr != nil {
		response.BadRequest(c, latKey+" and "+lngKey+" must be supplied together as numbers")
		return nil, false
	}

	coord := geo.Coordinate{Lat: lat, Lng: lng}
	if !coord.IsValid() {
		response.BadRequest(c, latKey+"/"+lngKey+" out of range")
		return nil, false
	}
	return &coord, true
}

func parseSearchFilter(c *gin.Context) (offerDomain.SearchFilter, bool) {
	var filter offerDomain.SearchFilter

	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(c, "date must be YYYY-MM-DD")
			return filter, false
		}
		filter.DepartureDate = &date
	}

	if raw := c.Query("vehicle_type"); raw != "" {
		vt := vehicle.VehicleType(raw)
		if !vt.IsValid() {
			response.BadRequest(c, "invalid vehicle_type")
			return filter, false
		}
		filter.VehicleType = &vt
	}

	if raw := c.Query("min_price_cents"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "min_price_cents must be an integer")
			return filter, false
		}
		filter.MinPriceCents = &v
	}

	if raw := c.Query("max_price_cents"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "max_price_cents must be an integer")
			return filter, false
		}
		filter.MaxPriceCents = &v
	}

	if raw := c.Query("seats"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			response.BadRequest(c, "seats must be a positive integer")
			return filter, false
		}
		filter.MinSeats = v
	}

	return filter, true
}
