package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	"github.com/noah-isme/timetable-api/pkg/department"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Exists(ctx context.Context, code, department, level string, semester models.Semester) (bool, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type timetableLevelReader interface {
	LevelsWithTimetable(ctx context.Context, exec sqlx.ExtContext, department string, semester models.Semester) ([]string, error)
}

// CourseService manages the courses a department offers.
type CourseService struct {
	repo       courseRepository
	timetables timetableLevelReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, timetables timetableLevelReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, timetables: timetables, validator: validate, logger: logger}
}

// Create registers a course. When the level already has a timetable for the
// semester the response carries a notification asking for regeneration.
func (s *CourseService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateCourseRequest) (*dto.CreateCourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Code:       strings.ToUpper(strings.Join(strings.Fields(req.Code), "")),
		Name:       strings.TrimSpace(req.Name),
		Department: department.Normalize(req.Department),
		Level:      strings.TrimSpace(req.Level),
		Semester:   models.Semester(req.Semester),
		Instructor: strings.TrimSpace(req.Instructor),
		ClassSize:  req.ClassSize,
	}
	if course.Code == "" || course.Name == "" || course.Level == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code, name and level must not be blank")
	}
	if course.Instructor == "" {
		course.Instructor = scheduler.DefaultInstructor
	}
	if course.ClassSize <= 0 {
		course.ClassSize = scheduler.DefaultClassSize
	}

	if err := requireDepartmentManager(actor, course.Department); err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, course.Code, course.Department, course.Level, course.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %s already exists for level %s, %s semester", course.Code, course.Level, course.Semester))
	}

	if err := s.repo.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %s already exists", course.Code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course created",
		zap.String("code", course.Code),
		zap.String("department", course.Department),
		zap.String("level", course.Level),
		zap.String("semester", string(course.Semester)),
	)

	res := &dto.CreateCourseResponse{Course: *course}
	if s.timetables != nil {
		levels, err := s.timetables.LevelsWithTimetable(ctx, nil, course.Department, course.Semester)
		if err != nil {
			s.logger.Warn("failed to check existing timetables", zap.Error(err))
			return res, nil
		}
		for _, level := range levels {
			if level == course.Level {
				res.Notification = fmt.Sprintf("a timetable already exists for level %s, %s semester; regenerate it to include %s", course.Level, course.Semester, course.Code)
				break
			}
		}
	}
	return res, nil
}

// List returns the courses of a department ordered by level then code.
func (s *CourseService) List(ctx context.Context, actor *models.JWTClaims, dept string, query dto.CourseQuery) ([]models.Course, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course query")
	}
	dept = department.Normalize(dept)
	if dept == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	if err := requireDepartmentManager(actor, dept); err != nil {
		return nil, err
	}

	courses, err := s.repo.List(ctx, models.CourseFilter{
		Department: dept,
		Level:      strings.TrimSpace(query.Level),
		Semester:   models.Semester(query.Semester),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}
