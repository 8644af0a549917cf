package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/pkg/department"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListCourseReps(ctx context.Context, department string, verified bool) ([]models.User, error)
	Verify(ctx context.Context, id string) error
}

// UserService manages accounts and course representative verification.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Create adds an account. Course representatives start unverified; every other
// role is usable immediately.
func (s *UserService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}
	role := models.UserRole(req.Role)
	dept := department.Normalize(req.Department)
	if err := requireDepartmentManager(actor, dept); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleHOD && role != models.RoleCourseRep && role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "heads of department can only create course representatives and students")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		Department:   dept,
		Level:        strings.TrimSpace(req.Level),
		Verified:     role != models.RoleCourseRep,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created",
		zap.String("id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("department", user.Department),
		zap.String("created_by", actor.UserID),
	)
	return user, nil
}

// EnsureAdmin creates an administrator with the given credentials unless the
// email is already registered. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, fullName string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up administrator")
	}

	system := &models.JWTClaims{UserID: "bootstrap", Role: models.RoleAdmin}
	if _, err := s.Create(ctx, system, dto.CreateUserRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
		Role:     string(models.RoleAdmin),
	}); err != nil {
		return false, err
	}
	return true, nil
}

// ListCourseReps returns the verified course representatives a timetable of
// dept can be shared with.
func (s *UserService) ListCourseReps(ctx context.Context, actor *models.JWTClaims, dept string) ([]models.User, error) {
	dept = department.Normalize(dept)
	if dept == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	if err := requireDepartmentManager(actor, dept); err != nil {
		return nil, err
	}
	return s.listCourseReps(ctx, dept, true)
}

// ListUnverified returns course representatives awaiting verification. Heads
// of department only see their own department.
func (s *UserService) ListUnverified(ctx context.Context, actor *models.JWTClaims) ([]models.User, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	var dept string
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleHOD:
		dept = actor.Department
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators and heads of department can verify course representatives")
	}
	return s.listCourseReps(ctx, dept, false)
}

// Verify marks a course representative as verified so timetables can be shared with them.
func (s *UserService) Verify(ctx context.Context, actor *models.JWTClaims, id string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := requireDepartmentManager(actor, user.Department); err != nil {
		return nil, err
	}
	if user.Role != models.RoleCourseRep {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only course representatives need verification")
	}
	if user.Verified {
		return user, nil
	}

	if err := s.repo.Verify(ctx, user.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify user")
	}
	user.Verified = true
	s.logger.Info("course representative verified", zap.String("id", user.ID), zap.String("department", user.Department), zap.String("verified_by", actor.UserID))
	return user, nil
}

func (s *UserService) listCourseReps(ctx context.Context, dept string, verified bool) ([]models.User, error) {
	users, err := s.repo.ListCourseReps(ctx, dept, verified)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course representatives")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
