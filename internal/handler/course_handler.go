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

type courseManager interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateCourseRequest) (*dto.CreateCourseResponse, error)
	List(ctx context.Context, actor *models.JWTClaims, dept string, query dto.CourseQuery) ([]models.Course, error)
}

// CourseHandler exposes course endpoints.
type CourseHandler struct {
	service courseManager
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc courseManager) *CourseHandler {
	return &CourseHandler{service: svc}
}

// Create godoc
// @Summary Add a course
// @Description Registers a course for a department level and semester
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	res, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// List godoc
// @Summary List department courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param department path string true "Department"
// @Param level query string false "Level"
// @Param semester query string false "Semester (first|second)"
// @Success 200 {object} response.Envelope
// @Router /courses/{department} [get]
func (h *CourseHandler) List(c *gin.Context) {
	var query dto.CourseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course query"))
		return
	}
	courses, err := h.service.List(c.Request.Context(), claimsFromContext(c), c.Param("department"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"total": len(courses)})
}
