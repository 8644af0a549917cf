package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config tunes an Engine.
type Config struct {
	// DailyCap limits placements per (level, day). Defaults to DefaultDailyCap.
	DailyCap int
	// Seed fixes the shuffle source. Zero means time-seeded.
	Seed int64
	// Now stamps result timestamps. Defaults to time.Now in UTC.
	Now func() time.Time
}

// Request is the input of one scheduling run for a department and semester.
type Request struct {
	Department string
	Semester   string
	Courses    []Course
	Venues     []Venue
	// Prior holds bookings already committed for the same department and semester, all levels.
	Prior []Booking
}

// Outcome is the result of a run. Unscheduled is reported as data, not as an error.
type Outcome struct {
	Results     []Result  `json:"results"`
	Scheduled   []string  `json:"scheduled"`
	Unscheduled []string  `json:"unscheduled"`
	Skipped     []string  `json:"skipped,omitempty"`
	Bookings    []Booking `json:"bookings"`
}

// TotalEntries counts entries across all results.
func (o *Outcome) TotalEntries() int {
	total := 0
	for _, r := range o.Results {
		total += len(r.Entries)
	}
	return total
}

// Levels lists the levels that received a result.
func (o *Outcome) Levels() []string {
	levels := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		levels = append(levels, r.Level)
	}
	return levels
}

// Engine runs the randomized greedy assignment level by level.
type Engine struct {
	cfg    Config
	space  SlotSpace
	logger *zap.Logger
}

// NewEngine constructs an engine over the default slot space.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = DefaultDailyCap
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, space: DefaultSlotSpace(), logger: logger}
}

// Space exposes the slot catalog used by the engine.
func (e *Engine) Space() SlotSpace {
	return e.space
}

// Run schedules req against a ledger seeded from req.Prior.
func (e *Engine) Run(req Request) (*Outcome, error) {
	return e.RunWithLedger(req, NewLedger(req.Prior))
}

// RunWithLedger schedules req against a caller-owned ledger; req.Prior is
// ignored. On a conflict violation the ledger is rolled back to its state
// before the run and no outcome is returned.
func (e *Engine) RunWithLedger(req Request, ledger BookingLedger) (*Outcome, error) {
	checkpoint := ledger.Checkpoint()
	load := NewDayLoad(e.cfg.DailyCap)
	assigner := NewAssigner(e.space, ledger, load, NewRandomizer(e.cfg.Seed), e.logger)

	groups, codes, skipped := groupByLevel(req)
	levels := make([]string, 0, len(groups))
	for level := range groups {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	now := e.cfg.Now()
	outcome := &Outcome{Skipped: skipped}
	scheduled := make(map[string]bool, len(codes))
	for _, level := range levels {
		entries, err := assigner.AssignLevel(level, groups[level], req.Venues, scheduled)
		if err != nil {
			ledger.Rollback(checkpoint)
			e.logger.Error("scheduling run aborted",
				zap.String("department", req.Department),
				zap.String("semester", req.Semester),
				zap.String("level", level),
				zap.Error(err),
			)
			return nil, fmt.Errorf("assign level %s: %w", level, err)
		}
		if len(entries) == 0 {
			continue
		}
		outcome.Results = append(outcome.Results, Result{
			Department: req.Department,
			Level:      level,
			Semester:   req.Semester,
			Entries:    entries,
			Status:     StatusDraft,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	for _, code := range codes {
		if scheduled[code] {
			outcome.Scheduled = append(outcome.Scheduled, code)
			continue
		}
		outcome.Unscheduled = append(outcome.Unscheduled, code)
	}
	recorded := ledger.Recorded()
	outcome.Bookings = recorded[checkpoint:]

	if len(outcome.Unscheduled) > 0 {
		e.logger.Warn("courses left unscheduled",
			zap.String("department", req.Department),
			zap.String("semester", req.Semester),
			zap.Strings("courses", outcome.Unscheduled),
		)
	}
	e.logger.Info("scheduling run completed",
		zap.String("department", req.Department),
		zap.String("semester", req.Semester),
		zap.Int("courses", len(codes)),
		zap.Int("scheduled", len(outcome.Scheduled)),
		zap.Int("unscheduled", len(outcome.Unscheduled)),
		zap.Int("venues", len(req.Venues)),
	)
	return outcome, nil
}

// groupByLevel buckets eligible courses by level and returns the distinct
// input codes in first-seen order. Courses for another semester, or without a
// code, are reported as skipped.
func groupByLevel(req Request) (map[string][]Course, []string, []string) {
	groups := make(map[string][]Course)
	seen := make(map[string]bool, len(req.Courses))
	var codes, skipped []string
	for _, course := range req.Courses {
		if course.Code == "" {
			continue
		}
		if req.Semester != "" && course.Semester != "" && !strings.EqualFold(course.Semester, req.Semester) {
			skipped = append(skipped, course.Code)
			continue
		}
		groups[course.Level] = append(groups[course.Level], course)
		if !seen[course.Code] {
			seen[course.Code] = true
			codes = append(codes, course.Code)
		}
	}
	return groups, codes, skipped
}
