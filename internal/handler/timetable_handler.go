package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

const publicListingMaxAge = 60

type timetableManager interface {
	Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Regenerate(ctx context.Context, actor *models.JWTClaims, id string) (*dto.GenerateTimetableResponse, error)
	List(ctx context.Context, actor *models.JWTClaims, dept string, query dto.TimetableQuery) ([]models.Timetable, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Timetable, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	Share(ctx context.Context, actor *models.JWTClaims, req dto.ShareTimetableRequest) (*models.Timetable, error)
	Publish(ctx context.Context, actor *models.JWTClaims, req dto.PublishTimetableRequest) (*models.Timetable, error)
	ListShared(ctx context.Context, actor *models.JWTClaims) ([]models.Timetable, error)
	ListPublic(ctx context.Context, query dto.PublicTimetableQuery) ([]models.Timetable, bool, error)
	Export(ctx context.Context, actor *models.JWTClaims, id string, format dto.ExportFormat) (*dto.ExportResult, error)
}

// TimetableHandler exposes timetable generation and sharing endpoints.
type TimetableHandler struct {
	service timetableManager
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableManager) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate draft timetables
// @Description Runs the randomized greedy scheduler for a department semester. Omitting level generates every level without a timetable.
// @Tags Timetables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateTimetableRequest true "Generate payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	res, err := h.service.Generate(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Regenerate godoc
// @Summary Regenerate a draft timetable
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Timetable ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id}/regenerate [post]
func (h *TimetableHandler) Regenerate(c *gin.Context) {
	res, err := h.service.Regenerate(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListByDepartment godoc
// @Summary List department timetables
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Param department path string true "Department"
// @Param semester query string false "Semester (first|second)"
// @Success 200 {object} response.Envelope
// @Router /timetables/department/{department} [get]
func (h *TimetableHandler) ListByDepartment(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable query"))
		return
	}
	timetables, err := h.service.List(c.Request.Context(), claimsFromContext(c), c.Param("department"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetables, map[string]interface{}{"total": len(timetables)})
}

// Get godoc
// @Summary Get a timetable
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Delete godoc
// @Summary Delete a draft timetable
// @Tags Timetables
// @Security BearerAuth
// @Param id path string true "Timetable ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Share godoc
// @Summary Share a draft with course representatives
// @Tags Timetables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ShareTimetableRequest true "Share payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /timetables/share [post]
func (h *TimetableHandler) Share(c *gin.Context) {
	var req dto.ShareTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid share payload"))
		return
	}
	timetable, err := h.service.Share(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Publish godoc
// @Summary Publish a shared timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PublishTimetableRequest true "Publish payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /timetables/publish [post]
func (h *TimetableHandler) Publish(c *gin.Context) {
	var req dto.PublishTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publish payload"))
		return
	}
	timetable, err := h.service.Publish(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Shared godoc
// @Summary Timetables shared with me
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /timetables/shared [get]
func (h *TimetableHandler) Shared(c *gin.Context) {
	timetables, err := h.service.ListShared(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetables, map[string]interface{}{"total": len(timetables)})
}

// Public godoc
// @Summary Published timetables
// @Description Public listing of published timetables; served from cache when enabled
// @Tags Timetables
// @Produce json
// @Param department query string false "Department"
// @Param level query string false "Level"
// @Param semester query string false "Semester (first|second)"
// @Success 200 {object} response.Envelope
// @Router /timetables/public [get]
func (h *TimetableHandler) Public(c *gin.Context) {
	var query dto.PublicTimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid public timetable query"))
		return
	}
	timetables, hit, err := h.service.ListPublic(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	meta["total"] = len(timetables)
	response.Cached(c, timetables, meta, publicListingMaxAge)
}

// Export godoc
// @Summary Download a timetable
// @Tags Timetables
// @Produce application/pdf
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Timetable ID"
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	format := dto.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	result, err := h.service.Export(c.Request.Context(), claimsFromContext(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
