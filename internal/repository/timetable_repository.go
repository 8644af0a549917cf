package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-api/internal/models"
)

const timetableColumns = `id, department, level, semester, status, created_by, shared_with, meta, created_at, updated_at`

// TimetableRepository persists generated timetables and their entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a timetable header. Entries are stored separately with InsertEntries.
func (r *TimetableRepository) Create(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if timetable.Department == "" || timetable.Level == "" || timetable.Semester == "" {
		return fmt.Errorf("department, level and semester are required")
	}
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	if timetable.SharedWith == nil {
		timetable.SharedWith = pq.StringArray{}
	}
	if len(timetable.Meta) == 0 {
		timetable.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	const query = `
INSERT INTO timetables (id, department, level, semester, status, created_by, shared_with, meta, created_at, updated_at)
VALUES (:id, :department, :level, :semester, :status, :created_by, :shared_with, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, timetable); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertEntries stores placed courses for a timetable.
func (r *TimetableRepository) InsertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_entries (id, timetable_id, course_code, course_name, venue, day, time_slot, instructor, class_size, created_at)
VALUES (:id, :timetable_id, :course_code, :course_name, :venue, :day, :time_slot, :instructor, :class_size, :created_at)`

	for i := range entries {
		entry := &entries[i]
		if entry.TimetableID == "" {
			return fmt.Errorf("timetable entry %s has no timetable id", entry.CourseCode)
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}

// FindByID loads a timetable header by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE id = $1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find timetable: %w", err)
	}
	return &timetable, nil
}

// List returns timetable headers matching filter, ordered by level.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.Department != "" {
		add("department = $%d", filter.Department)
	}
	if filter.Level != "" {
		add("level = $%d", filter.Level)
	}
	if filter.Semester != "" {
		add("semester = $%d", filter.Semester)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}
	if filter.SharedWith != "" {
		add("$%d = ANY(shared_with)", filter.SharedWith)
	}

	query := `SELECT ` + timetableColumns + ` FROM timetables`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY department ASC, level ASC, semester ASC`

	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, args...); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// ListEntries returns the entries of the given timetables ordered for display.
func (r *TimetableRepository) ListEntries(ctx context.Context, timetableIDs []string) ([]models.TimetableEntry, error) {
	if len(timetableIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, timetable_id, course_code, course_name, venue, day, time_slot, instructor, class_size, created_at
FROM timetable_entries WHERE timetable_id = ANY($1)
ORDER BY timetable_id ASC, CASE day WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3 WHEN 'Thursday' THEN 4 ELSE 5 END, time_slot ASC, venue ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, pq.Array(timetableIDs)); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// LevelsWithTimetable returns the levels of a department that already have a timetable for semester.
func (r *TimetableRepository) LevelsWithTimetable(ctx context.Context, exec sqlx.ExtContext, department string, semester models.Semester) ([]string, error) {
	const query = `SELECT DISTINCT level FROM timetables WHERE department = $1 AND semester = $2 ORDER BY level ASC`
	var levels []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &levels, query, department, semester); err != nil {
		return nil, fmt.Errorf("list timetable levels: %w", err)
	}
	return levels, nil
}

// LockScope serialises generation for a department and semester until the
// surrounding transaction ends.
func (r *TimetableRepository) LockScope(ctx context.Context, exec sqlx.ExtContext, department string, semester models.Semester) error {
	const query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := r.exec(exec).ExecContext(ctx, query, department+"|"+string(semester)); err != nil {
		return fmt.Errorf("lock timetable scope: %w", err)
	}
	return nil
}

// BookedSlots returns every venue slot held by stored timetables of the department and semester,
// leaving out the timetable identified by excludeID when it is set.
func (r *TimetableRepository) BookedSlots(ctx context.Context, exec sqlx.ExtContext, department string, semester models.Semester, excludeID string) ([]models.BookedSlot, error) {
	const query = `SELECT e.venue, e.day, e.time_slot, e.course_code, t.level
FROM timetable_entries e JOIN timetables t ON t.id = e.timetable_id
WHERE t.department = $1 AND t.semester = $2 AND t.id <> $3`
	var slots []models.BookedSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, department, semester, excludeID); err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}
	return slots, nil
}

// Share moves a draft timetable to shared and records its recipients.
func (r *TimetableRepository) Share(ctx context.Context, exec sqlx.ExtContext, id string, userIDs []string) error {
	const query = `UPDATE timetables SET status = $1, shared_with = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	return r.transition(ctx, exec, query, models.TimetableStatusShared, pq.StringArray(userIDs), time.Now().UTC(), id, models.TimetableStatusDraft)
}

// UpdateStatus moves a timetable from one status to another. It returns sql.ErrNoRows when the
// timetable is missing or no longer in the expected status.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.TimetableStatus) error {
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	return r.transition(ctx, exec, query, to, time.Now().UTC(), id, from)
}

func (r *TimetableRepository) transition(ctx context.Context, exec sqlx.ExtContext, query string, args ...interface{}) error {
	result, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a timetable; its entries are removed by cascade.
func (r *TimetableRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	result, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
