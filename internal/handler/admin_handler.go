package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ridepool/service-offers/internal/application"
	offerDomain "github.com/ridepool/service-offers/internal/domain/offer"
	"github.com/ridepool/service-offers/internal/pkg/middleware"
	"github.com/ridepool/service-offers/internal/pkg/response"
)

// AdminOfferHandler handles admin HTTP requests for offer management.
type AdminOfferHandler struct {
	offerRepo offerDomain.OfferRepository
	backfill  *application.BackfillService
}

// NewAdminOfferHandler creates a new AdminOfferHandler.
func NewAdminOfferHandler(offerRepo offerDomain.OfferRepository, backfill *application.BackfillService) *AdminOfferHandler {
	return &AdminOfferHandler{offerRepo: offerRepo, backfill: backfill}
}

// RegisterRoutes registers admin offer routes. The API gateway restricts
// these paths to operators.
func (h *AdminOfferHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.RequireIdentity())
	{
		admin.GET("/offers", h.ListOffers)
		admin.GET("/stats/offers", h.OfferStats)
		admin.POST("/offers/backfill-polylines", h.BackfillPolylines)
	}
}

// ListOffers handles GET /api/v1/admin/offers.
func (h *AdminOfferHandler) ListOffers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offers, total, err := h.offerRepo.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	dtos := make([]gin.H, len(offers))
	for i, o := range offers {
		route := o.Route()
		dtos[i] = gin.H{
			"id":              o.ID(),
			"offer_number":    o.OfferNumber(),
			"driver_id":       o.DriverID(),
			"status":          string(o.Status()),
			"departure_at":    o.DepartureAt(),
			"seats_available": o.SeatsAvailable(),
			"polyline_points": len(route.Polyline),
			"created_at":      o.CreatedAt(),
		}
	}

	response.Paginated(c, dtos, total, page, limit)
}

// OfferStats handles GET /api/v1/admin/stats/offers.
func (h *AdminOfferHandler) OfferStats(c *gin.Context) {
	counts, err := h.offerRepo.CountByStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"by_status": counts})
}

// BackfillPolylines handles POST /api/v1/admin/offers/backfill-polylines.
// Runs synchronously; the operator gets the run summary in the response.
func (h *AdminOfferHandler) BackfillPolylines(c *gin.Context) {
	result, err := h.backfill.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
