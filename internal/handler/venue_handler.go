package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type venueManager interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateVenueRequest) (*models.Venue, error)
	List(ctx context.Context, actor *models.JWTClaims, dept string) ([]models.Venue, error)
}

// VenueHandler exposes venue endpoints.
type VenueHandler struct {
	service venueManager
}

// NewVenueHandler constructs the handler.
func NewVenueHandler(svc venueManager) *VenueHandler {
	return &VenueHandler{service: svc}
}

// Create godoc
// @Summary Add a venue
// @Tags Venues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateVenueRequest true "Venue payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /venues [post]
func (h *VenueHandler) Create(c *gin.Context) {
	var req dto.CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid venue payload"))
		return
	}
	venue, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, venue)
}

// List godoc
// @Summary List department venues
// @Tags Venues
// @Produce json
// @Security BearerAuth
// @Param department path string true "Department"
// @Success 200 {object} response.Envelope
// @Router /venues/{department} [get]
func (h *VenueHandler) List(c *gin.Context) {
	venues, err := h.service.List(c.Request.Context(), claimsFromContext(c), c.Param("department"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venues, map[string]interface{}{"total": len(venues)})
}
