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

type userManager interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateUserRequest) (*models.User, error)
	ListCourseReps(ctx context.Context, actor *models.JWTClaims, dept string) ([]models.User, error)
	ListUnverified(ctx context.Context, actor *models.JWTClaims) ([]models.User, error)
	Verify(ctx context.Context, actor *models.JWTClaims, id string) (*models.User, error)
}

// UserHandler exposes account and course representative endpoints.
type UserHandler struct {
	service userManager
}

// NewUserHandler constructs the handler.
func NewUserHandler(svc userManager) *UserHandler {
	return &UserHandler{service: svc}
}

// Create godoc
// @Summary Create a user
// @Description Course representatives are created unverified.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}
	user, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// CourseReps godoc
// @Summary Verified course representatives of a department
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Param department path string true "Department"
// @Success 200 {object} response.Envelope
// @Router /timetables/course-reps/{department} [get]
func (h *UserHandler) CourseReps(c *gin.Context) {
	users, err := h.service.ListCourseReps(c.Request.Context(), claimsFromContext(c), c.Param("department"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, map[string]interface{}{"total": len(users)})
}

// Unverified godoc
// @Summary Course representatives awaiting verification
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /users/course-reps/unverified [get]
func (h *UserHandler) Unverified(c *gin.Context) {
	users, err := h.service.ListUnverified(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, map[string]interface{}{"total": len(users)})
}

// Verify godoc
// @Summary Verify a course representative
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/verify [post]
func (h *UserHandler) Verify(c *gin.Context) {
	user, err := h.service.Verify(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
