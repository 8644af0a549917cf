package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Departments *DepartmentHandler
	Courses     *CourseHandler
	Venues      *VenueHandler
	Timetables  *TimetableHandler
	Metrics     *MetricsHandler
}

// Register mounts the API routes on group. authenticate must populate
// middleware.ContextUserKey or abort.
func Register(group *gin.RouterGroup, h Handlers, authenticate gin.HandlerFunc) {
	managers := middleware.RequireRoles(models.RoleAdmin, models.RoleHOD)
	courseReps := middleware.RequireRoles(models.RoleCourseRep)
	readers := middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleCourseRep)

	auth := group.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", authenticate, h.Auth.Me)

	users := group.Group("/users", authenticate, managers)
	users.POST("", h.Users.Create)
	users.GET("/course-reps/unverified", h.Users.Unverified)
	users.POST("/:id/verify", h.Users.Verify)

	group.GET("/departments", h.Departments.List)
	group.GET("/departments/resolve", h.Departments.Resolve)

	courses := group.Group("/courses", authenticate, managers)
	courses.POST("", h.Courses.Create)
	courses.GET("/:department", h.Courses.List)

	venues := group.Group("/venues", authenticate, managers)
	venues.POST("", h.Venues.Create)
	venues.GET("/:department", h.Venues.List)

	timetables := group.Group("/timetables")
	timetables.GET("/public", h.Timetables.Public)

	protected := timetables.Group("", authenticate)
	protected.POST("/generate", managers, h.Timetables.Generate)
	protected.POST("/share", managers, h.Timetables.Share)
	protected.POST("/publish", courseReps, h.Timetables.Publish)
	protected.GET("/shared", courseReps, h.Timetables.Shared)
	protected.GET("/department/:department", managers, h.Timetables.ListByDepartment)
	protected.GET("/course-reps/:department", managers, h.Users.CourseReps)
	protected.GET("/:id", readers, h.Timetables.Get)
	protected.DELETE("/:id", managers, h.Timetables.Delete)
	protected.POST("/:id/regenerate", managers, h.Timetables.Regenerate)
	protected.GET("/:id/export", readers, h.Timetables.Export)

	if h.Metrics != nil {
		group.GET("/metrics/summary", authenticate, middleware.RequireRoles(models.RoleAdmin), h.Metrics.Summary)
	}
}
