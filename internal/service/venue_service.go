package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/pkg/department"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type venueRepository interface {
	Create(ctx context.Context, venue *models.Venue) error
	ExistsByName(ctx context.Context, department, name string) (bool, error)
	ListByDepartment(ctx context.Context, department string) ([]models.Venue, error)
}

// VenueService manages the rooms a department schedules into.
type VenueService struct {
	repo      venueRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVenueService constructs a VenueService.
func NewVenueService(repo venueRepository, validate *validator.Validate, logger *zap.Logger) *VenueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenueService{repo: repo, validator: validate, logger: logger}
}

// Create registers a venue; names are unique per department ignoring case.
func (s *VenueService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateVenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue payload")
	}

	venue := &models.Venue{
		Name:       strings.Join(strings.Fields(req.Name), " "),
		Department: department.Normalize(req.Department),
		Capacity:   req.Capacity,
		Location:   strings.TrimSpace(req.Location),
	}
	if venue.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "venue name must not be blank")
	}
	if err := requireDepartmentManager(actor, venue.Department); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, venue.Department, venue.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check venue")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("venue %s already exists in %s", venue.Name, venue.Department))
	}

	if err := s.repo.Create(ctx, venue); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("venue %s already exists", venue.Name))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create venue")
	}

	s.logger.Info("venue created", zap.String("name", venue.Name), zap.String("department", venue.Department), zap.Int("capacity", venue.Capacity))
	return venue, nil
}

// List returns the venues of a department ordered by name.
func (s *VenueService) List(ctx context.Context, actor *models.JWTClaims, dept string) ([]models.Venue, error) {
	dept = department.Normalize(dept)
	if dept == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	if err := requireDepartmentManager(actor, dept); err != nil {
		return nil, err
	}

	venues, err := s.repo.ListByDepartment(ctx, dept)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list venues")
	}
	if venues == nil {
		venues = []models.Venue{}
	}
	return venues, nil
}
