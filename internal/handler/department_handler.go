package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/pkg/department"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// DepartmentHandler serves the canonical department catalogue.
type DepartmentHandler struct{}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler() *DepartmentHandler {
	return &DepartmentHandler{}
}

// List godoc
// @Summary List departments
// @Description Canonical department names with display labels
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	response.Cached(c, department.Options(), nil, 3600)
}

// Resolve godoc
// @Summary Resolve a department alias
// @Tags Departments
// @Produce json
// @Param name query string true "Department name or alias"
// @Success 200 {object} response.Envelope
// @Router /departments/resolve [get]
func (h *DepartmentHandler) Resolve(c *gin.Context) {
	name := department.Normalize(c.Query("name"))
	response.JSON(c, http.StatusOK, gin.H{
		"department": name,
		"label":      department.Label(name),
		"known":      department.IsKnown(name),
	}, nil)
}
