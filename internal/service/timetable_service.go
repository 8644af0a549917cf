package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	"github.com/noah-isme/timetable-api/pkg/department"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

type timetableRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	InsertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, error)
	ListEntries(ctx context.Context, timetableIDs []string) ([]models.TimetableEntry, error)
	LevelsWithTimetable(ctx context.Context, exec sqlx.ExtContext, department string, semester models.Semester) ([]string, error)
	LockScope(ctx context.Context, exec sqlx.ExtContext, department string, semester models.Semester) error
	BookedSlots(ctx context.Context, exec sqlx.ExtContext, department string, semester models.Semester, excludeID string) ([]models.BookedSlot, error)
	Share(ctx context.Context, exec sqlx.ExtContext, id string, userIDs []string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.TimetableStatus) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type timetableCourseReader interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type timetableVenueReader interface {
	ListByDepartment(ctx context.Context, department string) ([]models.Venue, error)
}

type courseRepReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableConfig governs generation behaviour.
type TimetableConfig struct {
	DailyCap   int
	Seed       int64
	MaxCourses int
	MaxVenues  int
}

const (
	nextStepShare   = "Review the draft timetables, then share them with your course representatives."
	nextStepNothing = "No course could be placed. Add venues or free existing slots, then generate again."
)

// TimetableService generates department timetables and drives them from draft
// through shared to published.
type TimetableService struct {
	timetables timetableRepository
	courses    timetableCourseReader
	venues     timetableVenueReader
	users      courseRepReader
	tx         txProvider
	cache      *CacheService
	metrics    *MetricsService
	pdf        *export.PDFExporter
	csv        *export.CSVExporter
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableConfig
	now        func() time.Time
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	timetables timetableRepository,
	courses timetableCourseReader,
	venues timetableVenueReader,
	users courseRepReader,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = scheduler.DefaultDailyCap
	}
	return &TimetableService{
		timetables: timetables,
		courses:    courses,
		venues:     venues,
		users:      users,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		pdf:        export.NewPDFExporter(),
		csv:        export.NewCSVExporter(),
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds draft timetables for a department and semester. Without a
// level every level lacking a timetable is generated; levels that already have
// one are reported in the summary.
func (s *TimetableService) Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}
	dept := department.Normalize(req.Department)
	level := strings.TrimSpace(req.Level)
	semester := models.Semester(req.Semester)
	if err := requireDepartmentManager(actor, dept); err != nil {
		return nil, err
	}

	courses, venues, err := s.loadInputs(ctx, dept, level, semester)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	seed := s.seed(req.Seed)
	var (
		outcome       *scheduler.Outcome
		stored        []models.Timetable
		skippedLevels []string
	)
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.timetables.LockScope(ctx, tx, dept, semester); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable scope")
		}

		existing, err := s.timetables.LevelsWithTimetable(ctx, tx, dept, semester)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing timetables")
		}
		var eligible []models.Course
		eligible, skippedLevels = excludeLevels(courses, existing)
		if level != "" && len(skippedLevels) > 0 {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a timetable already exists for level %s, %s semester; delete or regenerate it instead", level, semester))
		}
		if len(eligible) == 0 {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("timetables already exist for every level of %s, %s semester", dept, semester))
		}

		booked, err := s.timetables.BookedSlots(ctx, tx, dept, semester, "")
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booked slots")
		}

		outcome, err = s.run(dept, semester, eligible, venues, booked, seed)
		if err != nil {
			return err
		}

		stored, err = s.persist(ctx, tx, actor.UserID, outcome, eligible, seed)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveGeneration(dept, len(stored), len(outcome.Scheduled), len(outcome.Unscheduled), time.Since(started))
	s.logger.Info("timetables generated",
		zap.String("department", dept),
		zap.String("semester", string(semester)),
		zap.String("created_by", actor.UserID),
		zap.Int("timetables", len(stored)),
		zap.Int("scheduled", len(outcome.Scheduled)),
		zap.Int("unscheduled", len(outcome.Unscheduled)),
		zap.Strings("skipped_levels", skippedLevels),
	)

	return buildGenerateResponse(stored, outcome, semester, skippedLevels), nil
}

// Regenerate replaces a draft timetable with a freshly generated one for the
// same level. Slots held by the draft itself are released first.
func (s *TimetableService) Regenerate(ctx context.Context, actor *models.JWTClaims, id string) (*dto.GenerateTimetableResponse, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireDepartmentManager(actor, current.Department); err != nil {
		return nil, err
	}
	if current.Status != models.TimetableStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only draft timetables can be regenerated")
	}

	courses, venues, err := s.loadInputs(ctx, current.Department, current.Level, current.Semester)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	seed := s.regenerateSeed(current)
	var (
		outcome *scheduler.Outcome
		stored  []models.Timetable
	)
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.timetables.LockScope(ctx, tx, current.Department, current.Semester); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable scope")
		}
		booked, err := s.timetables.BookedSlots(ctx, tx, current.Department, current.Semester, current.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booked slots")
		}

		outcome, err = s.run(current.Department, current.Semester, courses, venues, booked, seed)
		if err != nil {
			return err
		}
		if len(outcome.Results) == 0 {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "no course could be placed; the timetable was left unchanged")
		}

		if err := s.timetables.Delete(ctx, tx, current.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove previous timetable")
		}
		stored, err = s.persist(ctx, tx, current.CreatedBy, outcome, courses, seed)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveGeneration(current.Department, len(stored), len(outcome.Scheduled), len(outcome.Unscheduled), time.Since(started))
	s.logger.Info("timetable regenerated",
		zap.String("previous_id", current.ID),
		zap.String("department", current.Department),
		zap.String("level", current.Level),
		zap.Int("unscheduled", len(outcome.Unscheduled)),
	)

	return buildGenerateResponse(stored, outcome, current.Semester, nil), nil
}

// List returns the department's timetables with their entries.
func (s *TimetableService) List(ctx context.Context, actor *models.JWTClaims, dept string, query dto.TimetableQuery) ([]models.Timetable, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	dept = department.Normalize(dept)
	if dept == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	if err := requireDepartmentManager(actor, dept); err != nil {
		return nil, err
	}
	return s.listWithEntries(ctx, models.TimetableFilter{Department: dept, Semester: models.Semester(query.Semester)})
}

// Get returns one timetable the actor is allowed to read.
func (s *TimetableService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Timetable, error) {
	timetable, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, timetable) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot view this timetable")
	}
	if err := s.attachEntries(ctx, []*models.Timetable{timetable}); err != nil {
		return nil, err
	}
	return timetable, nil
}

// Delete removes a draft timetable and frees its slots.
func (s *TimetableService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	timetable, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := requireDepartmentManager(actor, timetable.Department); err != nil {
		return err
	}
	if timetable.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "only draft timetables can be deleted")
	}
	if err := s.timetables.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	s.logger.Info("timetable deleted", zap.String("id", id), zap.String("department", timetable.Department), zap.String("level", timetable.Level))
	return nil
}

// Share hands a draft timetable to verified course representatives of the same department.
func (s *TimetableService) Share(ctx context.Context, actor *models.JWTClaims, req dto.ShareTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid share payload")
	}
	timetable, err := s.find(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != models.RoleHOD || actor.UserID != timetable.CreatedBy {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the head of department who generated this timetable can share it")
	}
	if timetable.Status != models.TimetableStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("timetable is already %s", timetable.Status))
	}

	ids := uniqueStrings(req.CourseRepIDs)
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course representatives")
	}
	eligible := make(map[string]bool, len(users))
	for _, user := range users {
		if user.IsCourseRepOf(timetable.Department) {
			eligible[user.ID] = true
		}
	}
	var invalid []string
	for _, id := range ids {
		if !eligible[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("not verified course representatives of %s: %s", timetable.Department, strings.Join(invalid, ", ")))
	}

	if err := s.timetables.Share(ctx, nil, timetable.ID, ids); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "timetable is no longer a draft")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to share timetable")
	}
	s.metrics.RecordTransition(models.TimetableStatusShared)
	s.logger.Info("timetable shared", zap.String("id", timetable.ID), zap.Strings("course_reps", ids))

	timetable.Status = models.TimetableStatusShared
	timetable.SharedWith = ids
	timetable.UpdatedAt = s.now()
	if err := s.attachEntries(ctx, []*models.Timetable{timetable}); err != nil {
		return nil, err
	}
	return timetable, nil
}

// Publish makes a shared timetable public. Only a course representative it was shared with may publish.
func (s *TimetableService) Publish(ctx context.Context, actor *models.JWTClaims, req dto.PublishTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}
	timetable, err := s.find(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != models.RoleCourseRep || actor.Department != timetable.Department || !timetable.IsSharedWith(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this timetable was not shared with you")
	}
	if timetable.Status != models.TimetableStatusShared {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot publish a %s timetable", timetable.Status))
	}

	if err := s.timetables.UpdateStatus(ctx, nil, timetable.ID, models.TimetableStatusShared, models.TimetableStatusPublished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "timetable is no longer shared")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}
	s.metrics.RecordTransition(models.TimetableStatusPublished)
	s.invalidatePublic(ctx)
	s.logger.Info("timetable published", zap.String("id", timetable.ID), zap.String("published_by", actor.UserID))

	timetable.Status = models.TimetableStatusPublished
	timetable.UpdatedAt = s.now()
	if err := s.attachEntries(ctx, []*models.Timetable{timetable}); err != nil {
		return nil, err
	}
	return timetable, nil
}

// ListShared returns the timetables shared with the calling course representative.
func (s *TimetableService) ListShared(ctx context.Context, actor *models.JWTClaims) ([]models.Timetable, error) {
	if actor == nil || actor.Role != models.RoleCourseRep {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only course representatives receive shared timetables")
	}
	return s.listWithEntries(ctx, models.TimetableFilter{
		Department: actor.Department,
		SharedWith: actor.UserID,
		Statuses:   []models.TimetableStatus{models.TimetableStatusShared, models.TimetableStatusPublished},
	})
}

// ListPublic returns published timetables. The boolean reports a cache hit.
func (s *TimetableService) ListPublic(ctx context.Context, query dto.PublicTimetableQuery) ([]models.Timetable, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid public timetable query")
	}
	filter := models.TimetableFilter{
		Department: department.Normalize(query.Department),
		Level:      strings.TrimSpace(query.Level),
		Semester:   models.Semester(query.Semester),
		Statuses:   []models.TimetableStatus{models.TimetableStatusPublished},
	}

	key := CacheKey("timetables", "public", filter.Department, filter.Level, string(filter.Semester))
	var cached []models.Timetable
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	timetables, err := s.listWithEntries(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, timetables, 0)
	return timetables, false, nil
}

// Export renders a readable timetable as a PDF or CSV document.
func (s *TimetableService) Export(ctx context.Context, actor *models.JWTClaims, id string, format dto.ExportFormat) (*dto.ExportResult, error) {
	if format == "" {
		format = dto.ExportFormatPDF
	}
	if format != dto.ExportFormatPDF && format != dto.ExportFormatCSV {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}
	timetable, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("timetable-%s-%s-%s.%s", strings.ReplaceAll(timetable.Department, " ", "-"), timetable.Level, timetable.Semester, format)
	rows := exportRows(timetable.Entries)

	if format == dto.ExportFormatCSV {
		body, err := s.csv.Render(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &dto.ExportResult{Filename: filename, ContentType: "text/csv", Body: body}, nil
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("%s - Level %s", department.Label(timetable.Department), timetable.Level),
		Notes:   []string{fmt.Sprintf("%s semester timetable (%s)", semesterLabel(timetable.Semester), timetable.Status)},
		Headers: []string{"Day", "Time", "Course", "Title", "Venue", "Instructor", "Class size"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, []string{row.Day, row.Time, row.CourseCode, row.CourseName, row.Venue, row.Instructor, fmt.Sprintf("%d", row.ClassSize)})
	}
	body, err := s.pdf.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &dto.ExportResult{Filename: filename, ContentType: "application/pdf", Body: body}, nil
}

func (s *TimetableService) loadInputs(ctx context.Context, dept, level string, semester models.Semester) ([]models.Course, []models.Venue, error) {
	courses, err := s.courses.List(ctx, models.CourseFilter{Department: dept, Level: level, Semester: semester})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	if len(courses) == 0 {
		scope := string(semester) + " semester"
		if level != "" {
			scope = "level " + level + ", " + scope
		}
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("no courses found for %s, %s; add courses first", dept, scope))
	}
	if s.cfg.MaxCourses > 0 && len(courses) > s.cfg.MaxCourses {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("too many courses to schedule at once (%d > %d)", len(courses), s.cfg.MaxCourses))
	}

	venues, err := s.venues.ListByDepartment(ctx, dept)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venues")
	}
	if len(venues) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("no venues registered for %s; add venues first", dept))
	}
	if s.cfg.MaxVenues > 0 && len(venues) > s.cfg.MaxVenues {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("too many venues to schedule at once (%d > %d)", len(venues), s.cfg.MaxVenues))
	}
	return courses, venues, nil
}

func (s *TimetableService) seed(requested int64) int64 {
	if requested != 0 {
		return requested
	}
	if s.cfg.Seed != 0 {
		return s.cfg.Seed
	}
	return s.now().UnixNano()
}

// regenerateSeed never repeats the seed stored on the draft being replaced, so
// a configured SCHEDULER_SEED still yields a different layout on regeneration.
func (s *TimetableService) regenerateSeed(current *models.Timetable) int64 {
	var meta models.TimetableMeta
	if len(current.Meta) > 0 {
		if err := json.Unmarshal(current.Meta, &meta); err != nil {
			s.logger.Warn("unreadable timetable meta", zap.String("id", current.ID), zap.Error(err))
		}
	}
	seed := s.now().UnixNano() ^ s.cfg.Seed
	if seed == 0 || seed == meta.Seed {
		seed = meta.Seed + 1
	}
	return seed
}

func (s *TimetableService) run(dept string, semester models.Semester, courses []models.Course, venues []models.Venue, booked []models.BookedSlot, seed int64) (*scheduler.Outcome, error) {
	engine := scheduler.NewEngine(scheduler.Config{DailyCap: s.cfg.DailyCap, Seed: seed, Now: s.now}, s.logger.Named("scheduler"))
	outcome, err := engine.Run(scheduler.Request{
		Department: dept,
		Semester:   string(semester),
		Courses:    toSchedulerCourses(courses),
		Venues:     toSchedulerVenues(venues),
		Prior:      toBookings(booked),
	})
	if err != nil {
		if errors.Is(err, scheduler.ErrConflictViolation) {
			s.metrics.RecordConflict()
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "generation aborted by a booking conflict; try again")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate timetable")
	}
	return outcome, nil
}

func (s *TimetableService) persist(ctx context.Context, tx *sqlx.Tx, createdBy string, outcome *scheduler.Outcome, courses []models.Course, seed int64) ([]models.Timetable, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("timetable.persist", time.Since(start)) }()

	levelOf := make(map[string]string, len(courses))
	for _, course := range courses {
		levelOf[course.Code] = course.Level
	}
	unscheduledByLevel := make(map[string][]string)
	for _, code := range outcome.Unscheduled {
		level := levelOf[code]
		unscheduledByLevel[level] = append(unscheduledByLevel[level], code)
	}

	stored := make([]models.Timetable, 0, len(outcome.Results))
	for _, result := range outcome.Results {
		meta, err := json.Marshal(models.TimetableMeta{Seed: seed, DailyCap: s.cfg.DailyCap, Unscheduled: unscheduledByLevel[result.Level]})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
		}
		timetable := models.Timetable{
			Department: result.Department,
			Level:      result.Level,
			Semester:   models.Semester(result.Semester),
			Status:     models.TimetableStatus(result.Status),
			CreatedBy:  createdBy,
			Meta:       types.JSONText(meta),
			CreatedAt:  result.CreatedAt,
		}
		if err := s.timetables.Create(ctx, tx, &timetable); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a timetable for level %s was created concurrently", result.Level))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
		}

		entries := make([]models.TimetableEntry, 0, len(result.Entries))
		for _, entry := range result.Entries {
			entries = append(entries, models.TimetableEntry{
				TimetableID: timetable.ID,
				CourseCode:  entry.CourseCode,
				CourseName:  entry.CourseName,
				Venue:       entry.Venue,
				Day:         string(entry.Day),
				TimeSlot:    string(entry.Time),
				Instructor:  entry.Instructor,
				ClassSize:   entry.ClassSize,
				CreatedAt:   result.CreatedAt,
			})
		}
		if err := s.timetables.InsertEntries(ctx, tx, entries); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "a venue slot was booked twice; try again")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable entries")
		}
		timetable.Entries = entries
		stored = append(stored, timetable)
	}
	return stored, nil
}

func (s *TimetableService) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}

func (s *TimetableService) find(ctx context.Context, id string) (*models.Timetable, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	timetable, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

func (s *TimetableService) listWithEntries(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, error) {
	timetables, err := s.timetables.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	refs := make([]*models.Timetable, len(timetables))
	for i := range timetables {
		refs[i] = &timetables[i]
	}
	if err := s.attachEntries(ctx, refs); err != nil {
		return nil, err
	}
	if timetables == nil {
		timetables = []models.Timetable{}
	}
	return timetables, nil
}

func (s *TimetableService) attachEntries(ctx context.Context, timetables []*models.Timetable) error {
	if len(timetables) == 0 {
		return nil
	}
	ids := make([]string, 0, len(timetables))
	for _, timetable := range timetables {
		ids = append(ids, timetable.ID)
	}
	entries, err := s.timetables.ListEntries(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	byTimetable := make(map[string][]models.TimetableEntry, len(timetables))
	for _, entry := range entries {
		byTimetable[entry.TimetableID] = append(byTimetable[entry.TimetableID], entry)
	}
	for _, timetable := range timetables {
		timetable.Entries = byTimetable[timetable.ID]
		if timetable.Entries == nil {
			timetable.Entries = []models.TimetableEntry{}
		}
	}
	return nil
}

func (s *TimetableService) invalidatePublic(ctx context.Context) {
	s.cache.Invalidate(ctx, CacheKey("timetables", "public")+":*")
}

func buildGenerateResponse(stored []models.Timetable, outcome *scheduler.Outcome, semester models.Semester, skippedLevels []string) *dto.GenerateTimetableResponse {
	unscheduled := outcome.Unscheduled
	if unscheduled == nil {
		unscheduled = []string{}
	}
	levels := outcome.Levels()
	nextStep := nextStepShare
	if len(stored) == 0 {
		nextStep = nextStepNothing
	}
	return &dto.GenerateTimetableResponse{
		Timetables: stored,
		Summary: dto.GenerationSummary{
			TotalCourses:        len(outcome.Scheduled) + len(outcome.Unscheduled),
			ScheduledCourses:    len(outcome.Scheduled),
			UnscheduledCourses:  len(outcome.Unscheduled),
			Unscheduled:         unscheduled,
			SkippedCourses:      outcome.Skipped,
			Levels:              levels,
			SkippedLevels:       skippedLevels,
			Semester:            semester,
			TimetablesGenerated: len(stored),
		},
		NextStep: nextStep,
	}
}

// excludeLevels drops courses whose level appears in taken and returns the
// sorted distinct levels that were dropped.
func excludeLevels(courses []models.Course, taken []string) ([]models.Course, []string) {
	takenSet := make(map[string]bool, len(taken))
	for _, level := range taken {
		takenSet[level] = true
	}
	var (
		eligible []models.Course
		skipped  []string
	)
	seen := make(map[string]bool)
	for _, course := range courses {
		if !takenSet[course.Level] {
			eligible = append(eligible, course)
			continue
		}
		if !seen[course.Level] {
			seen[course.Level] = true
			skipped = append(skipped, course.Level)
		}
	}
	sort.Strings(skipped)
	return eligible, skipped
}

func toSchedulerCourses(courses []models.Course) []scheduler.Course {
	out := make([]scheduler.Course, 0, len(courses))
	for _, c := range courses {
		out = append(out, scheduler.Course{
			Code:       c.Code,
			Name:       c.Name,
			Level:      c.Level,
			Semester:   string(c.Semester),
			Instructor: c.Instructor,
			ClassSize:  c.ClassSize,
		})
	}
	return out
}

func toSchedulerVenues(venues []models.Venue) []scheduler.Venue {
	out := make([]scheduler.Venue, 0, len(venues))
	for _, v := range venues {
		out = append(out, scheduler.Venue{Name: v.Name, Capacity: v.Capacity})
	}
	return out
}

func toBookings(slots []models.BookedSlot) []scheduler.Booking {
	out := make([]scheduler.Booking, 0, len(slots))
	for _, slot := range slots {
		day, ok := scheduler.ParseDay(slot.Day)
		if !ok {
			day = scheduler.Day(slot.Day)
		}
		at, ok := scheduler.ParseTimeRange(slot.TimeSlot)
		if !ok {
			at = scheduler.TimeRange(slot.TimeSlot)
		}
		out = append(out, scheduler.Booking{Venue: slot.Venue, Day: day, Time: at, CourseCode: slot.CourseCode, Level: slot.Level})
	}
	return out
}

type exportRow struct {
	Day        string `csv:"day"`
	Time       string `csv:"time"`
	CourseCode string `csv:"course_code"`
	CourseName string `csv:"course_name"`
	Venue      string `csv:"venue"`
	Instructor string `csv:"instructor"`
	ClassSize  int    `csv:"class_size"`
}

func exportRows(entries []models.TimetableEntry) []exportRow {
	rows := make([]exportRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, exportRow{
			Day:        entry.Day,
			Time:       entry.TimeSlot,
			CourseCode: entry.CourseCode,
			CourseName: entry.CourseName,
			Venue:      entry.Venue,
			Instructor: entry.Instructor,
			ClassSize:  entry.ClassSize,
		})
	}
	return rows
}

func semesterLabel(semester models.Semester) string {
	if semester == models.SemesterSecond {
		return "Second"
	}
	return "First"
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}
