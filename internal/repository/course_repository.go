package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const courseColumns = `id, code, name, department, level, semester, instructor, class_size, created_at, updated_at`

// CourseRepository persists department courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course. A clash on (code, department, level, semester) yields ErrDuplicate.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course payload is nil")
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `
INSERT INTO courses (id, code, name, department, level, semester, instructor, class_size, created_at, updated_at)
VALUES (:id, :code, :name, :department, :level, :semester, :instructor, :class_size, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// Exists reports whether a course with the same code is already offered at the level and semester.
func (r *CourseRepository) Exists(ctx context.Context, code, department, level string, semester models.Semester) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM courses WHERE code = $1 AND department = $2 AND level = $3 AND semester = $4)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code, department, level, semester); err != nil {
		return false, fmt.Errorf("check course exists: %w", err)
	}
	return exists, nil
}

// List returns courses of a department ordered by level and code.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	conditions := []string{"department = $1"}
	args := []interface{}{filter.Department}
	if filter.Level != "" {
		args = append(args, filter.Level)
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)))
	}
	if filter.Semester != "" {
		args = append(args, filter.Semester)
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)))
	}

	query := `SELECT ` + courseColumns + ` FROM courses WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY level ASC, code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
