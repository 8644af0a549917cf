package service

import (
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// requireDepartmentManager allows admins and the head of department of department.
func requireDepartmentManager(actor *models.JWTClaims, department string) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleHOD:
		if actor.Department == department {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "you can only manage your own department")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "only heads of department can perform this action")
	}
}

// canRead reports whether actor may view timetable.
func canRead(actor *models.JWTClaims, timetable *models.Timetable) bool {
	if actor == nil || timetable == nil {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleHOD:
		return actor.Department == timetable.Department
	case models.RoleCourseRep:
		return actor.Department == timetable.Department && timetable.IsSharedWith(actor.UserID)
	default:
		return timetable.Status == models.TimetableStatusPublished
	}
}
