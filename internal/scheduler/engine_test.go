package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

func newTestEngine(seed int64) *Engine {
	return NewEngine(Config{Seed: seed, Now: func() time.Time { return fixedNow }}, zap.NewNop())
}

func makeCourses(level string, n int) []Course {
	courses := make([]Course, 0, n)
	for i := 1; i <= n; i++ {
		courses = append(courses, Course{
			Code:     fmt.Sprintf("CSC%s-%02d", level, i),
			Name:     fmt.Sprintf("Course %d", i),
			Level:    level,
			Semester: "first",
		})
	}
	return courses
}

func makeVenues(n int) []Venue {
	venues := make([]Venue, 0, n)
	for i := 1; i <= n; i++ {
		venues = append(venues, Venue{Name: fmt.Sprintf("LT%d", i), Capacity: 100})
	}
	return venues
}

func allEntries(outcome *Outcome) []Entry {
	var entries []Entry
	for _, result := range outcome.Results {
		entries = append(entries, result.Entries...)
	}
	return entries
}

func assertNoDoubleBooking(t *testing.T, prior []Booking, entries []Entry) {
	t.Helper()
	seen := make(map[slotKey]string)
	for _, b := range prior {
		seen[keyOf(b)] = b.CourseCode
	}
	for _, e := range entries {
		k := keyOf(e.Booking())
		if holder, ok := seen[k]; ok {
			t.Fatalf("%s double-booked with %q at %s %s %s", e.CourseCode, holder, e.Venue, e.Day, e.Time)
		}
		seen[k] = e.CourseCode
	}
}

func assertDayCap(t *testing.T, entries []Entry, limit int) {
	t.Helper()
	counts := make(map[string]int)
	for _, e := range entries {
		key := e.Level + "/" + string(e.Day)
		counts[key]++
		assert.LessOrEqual(t, counts[key], limit, "day cap exceeded for %s", key)
	}
}

func assertUniqueCourses(t *testing.T, entries []Entry) {
	t.Helper()
	seen := make(map[string]bool)
	for _, e := range entries {
		require.False(t, seen[e.CourseCode], "course %s placed twice", e.CourseCode)
		seen[e.CourseCode] = true
	}
}

func TestEngineSchedulesAllCoursesWithSurplusVenues(t *testing.T) {
	engine := newTestEngine(11)
	outcome, err := engine.Run(Request{
		Department: "computer science",
		Semester:   "first",
		Courses:    makeCourses("100", 5),
		Venues:     makeVenues(2),
	})
	require.NoError(t, err)

	require.Len(t, outcome.Results, 1)
	result := outcome.Results[0]
	assert.Equal(t, "computer science", result.Department)
	assert.Equal(t, "100", result.Level)
	assert.Equal(t, "first", result.Semester)
	assert.Equal(t, StatusDraft, result.Status)
	assert.Equal(t, fixedNow, result.CreatedAt)
	assert.Equal(t, fixedNow, result.UpdatedAt)

	assert.Len(t, result.Entries, 5)
	assert.Empty(t, outcome.Unscheduled)
	assert.Len(t, outcome.Scheduled, 5)
	assert.Len(t, outcome.Bookings, 5)
	assertNoDoubleBooking(t, nil, result.Entries)
	assertDayCap(t, result.Entries, DefaultDailyCap)
}

func TestEngineSingleVenueNeverSharesSlot(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		outcome, err := newTestEngine(seed).Run(Request{
			Department: "mathematics",
			Semester:   "first",
			Courses:    makeCourses("200", 4),
			Venues:     makeVenues(1),
		})
		require.NoError(t, err)
		entries := allEntries(outcome)
		require.Len(t, entries, 4)
		assert.Empty(t, outcome.Unscheduled)

		slots := make(map[string]bool)
		for _, e := range entries {
			key := string(e.Day) + " " + string(e.Time)
			require.False(t, slots[key], "seed %d reused %s", seed, key)
			slots[key] = true
		}
		assertDayCap(t, entries, DefaultDailyCap)
	}
}

func TestEngineWithoutVenuesReportsEverythingUnscheduled(t *testing.T) {
	courses := makeCourses("300", 3)
	outcome, err := newTestEngine(3).Run(Request{Department: "physics", Semester: "first", Courses: courses})
	require.NoError(t, err)

	assert.Empty(t, outcome.Results)
	assert.Empty(t, outcome.Bookings)
	assert.Equal(t, []string{courses[0].Code, courses[1].Code, courses[2].Code}, outcome.Unscheduled)
}

func TestEngineWithoutCoursesProducesNothing(t *testing.T) {
	outcome, err := newTestEngine(3).Run(Request{Department: "physics", Semester: "first", Venues: makeVenues(2)})
	require.NoError(t, err)
	assert.Empty(t, outcome.Results)
	assert.Empty(t, outcome.Unscheduled)
	assert.Empty(t, outcome.Scheduled)
}

func TestEngineDegradesUnderSlotScarcity(t *testing.T) {
	free := map[slotKey]bool{
		{venue: "LT1", day: Monday, time: Morning}:     true,
		{venue: "LT1", day: Monday, time: LateMorning}: true,
		{venue: "LT1", day: Tuesday, time: Morning}:    true,
	}
	var prior []Booking
	space := DefaultSlotSpace()
	for _, day := range space.Days() {
		for _, slot := range space.TimeSlots() {
			b := Booking{Venue: "LT1", Day: day, Time: slot, CourseCode: "OLD", Level: "400"}
			if free[keyOf(b)] {
				continue
			}
			prior = append(prior, b)
		}
	}

	outcome, err := newTestEngine(5).Run(Request{
		Department: "chemistry",
		Semester:   "first",
		Courses:    makeCourses("100", 6),
		Venues:     makeVenues(1),
		Prior:      prior,
	})
	require.NoError(t, err)

	entries := allEntries(outcome)
	assert.Len(t, entries, 3)
	assert.Len(t, outcome.Unscheduled, 3)
	assertNoDoubleBooking(t, prior, entries)
	for _, e := range entries {
		assert.True(t, free[keyOf(e.Booking())])
	}
}

func TestEngineDegradesUnderDayCap(t *testing.T) {
	outcome, err := newTestEngine(9).Run(Request{
		Department: "biology",
		Semester:   "first",
		Courses:    makeCourses("100", 20),
		Venues:     makeVenues(10),
	})
	require.NoError(t, err)

	entries := allEntries(outcome)
	assert.Len(t, entries, DefaultDailyCap*5)
	assert.Len(t, outcome.Unscheduled, 20-DefaultDailyCap*5)
	assertDayCap(t, entries, DefaultDailyCap)
}

func TestEngineCapAppliesPerLevel(t *testing.T) {
	courses := append(makeCourses("100", 15), makeCourses("200", 15)...)
	outcome, err := newTestEngine(21).Run(Request{
		Department: "economics",
		Semester:   "first",
		Courses:    courses,
		Venues:     makeVenues(4),
	})
	require.NoError(t, err)

	require.Len(t, outcome.Results, 2)
	assert.Equal(t, []string{"100", "200"}, outcome.Levels())
	assert.Equal(t, 30, outcome.TotalEntries())
	assert.Empty(t, outcome.Unscheduled)
	entries := allEntries(outcome)
	assertNoDoubleBooking(t, nil, entries)
	assertDayCap(t, entries, DefaultDailyCap)
	for _, result := range outcome.Results {
		for _, e := range result.Entries {
			assert.Equal(t, result.Level, e.Level)
		}
	}
}

func TestEngineDeduplicatesCourseCodes(t *testing.T) {
	courses := makeCourses("100", 3)
	courses = append(courses, courses[0], courses[1])
	outcome, err := newTestEngine(4).Run(Request{
		Department: "law",
		Semester:   "first",
		Courses:    courses,
		Venues:     makeVenues(3),
	})
	require.NoError(t, err)

	entries := allEntries(outcome)
	assert.Len(t, entries, 3)
	assertUniqueCourses(t, entries)
	assert.Len(t, outcome.Scheduled, 3)
}

func TestEngineReseededRunsNeverCollide(t *testing.T) {
	venues := makeVenues(2)
	first, err := newTestEngine(100).Run(Request{
		Department: "computer science",
		Semester:   "first",
		Courses:    makeCourses("100", 12),
		Venues:     venues,
	})
	require.NoError(t, err)
	require.Empty(t, first.Unscheduled)

	second, err := newTestEngine(100).Run(Request{
		Department: "computer science",
		Semester:   "first",
		Courses:    makeCourses("200", 12),
		Venues:     venues,
		Prior:      first.Bookings,
	})
	require.NoError(t, err)

	assertNoDoubleBooking(t, first.Bookings, allEntries(second))
	assert.Len(t, allEntries(second), 12)
}

func TestEngineSameSeedSameTimetable(t *testing.T) {
	req := Request{
		Department: "accounting",
		Semester:   "first",
		Courses:    makeCourses("300", 8),
		Venues:     makeVenues(3),
	}
	a, err := newTestEngine(77).Run(req)
	require.NoError(t, err)
	b, err := newTestEngine(77).Run(req)
	require.NoError(t, err)
	assert.Equal(t, a.Results, b.Results)
}

func TestEngineSkipsOtherSemesters(t *testing.T) {
	courses := makeCourses("100", 2)
	courses[1].Semester = "second"
	outcome, err := newTestEngine(8).Run(Request{
		Department: "history",
		Semester:   "FIRST",
		Courses:    courses,
		Venues:     makeVenues(1),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{courses[1].Code}, outcome.Skipped)
	assert.Equal(t, []string{courses[0].Code}, outcome.Scheduled)
	assert.Empty(t, outcome.Unscheduled)
}

func TestEngineDoesNotCompareCapacityWithClassSize(t *testing.T) {
	outcome, err := newTestEngine(2).Run(Request{
		Department: "medicine",
		Semester:   "first",
		Courses:    []Course{{Code: "MED101", Name: "Anatomy", Level: "100", ClassSize: 500}},
		Venues:     []Venue{{Name: "Seminar Room", Capacity: 30}},
	})
	require.NoError(t, err)

	entries := allEntries(outcome)
	require.Len(t, entries, 1)
	assert.Equal(t, "Seminar Room", entries[0].Venue)
	assert.Equal(t, 500, entries[0].ClassSize)
}

func TestEngineAppliesCourseDefaults(t *testing.T) {
	outcome, err := newTestEngine(2).Run(Request{
		Department: "music",
		Semester:   "first",
		Courses:    []Course{{Code: "MUS101", Name: "Theory", Level: "100"}},
		Venues:     makeVenues(1),
	})
	require.NoError(t, err)

	entries := allEntries(outcome)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultInstructor, entries[0].Instructor)
	assert.Equal(t, DefaultClassSize, entries[0].ClassSize)
}

func TestEngineRunWithSharedLedger(t *testing.T) {
	engine := newTestEngine(13)
	ledger := NewLedger(nil)
	venues := makeVenues(1)

	first, err := engine.RunWithLedger(Request{Department: "geology", Semester: "first", Courses: makeCourses("100", 15), Venues: venues}, ledger)
	require.NoError(t, err)
	second, err := engine.RunWithLedger(Request{Department: "geology", Semester: "first", Courses: makeCourses("200", 8), Venues: venues}, ledger)
	require.NoError(t, err)

	assert.Len(t, first.Bookings, 15)
	assert.Len(t, second.Bookings, 5, "one single-venue slot remains per day")
	assert.Len(t, second.Unscheduled, 3)
	assert.Equal(t, 20, ledger.Len())
	assertNoDoubleBooking(t, first.Bookings, allEntries(second))
}

func TestAssignerRecordsEveryPlacement(t *testing.T) {
	ledger := NewLedger(nil)
	assigner := NewAssigner(DefaultSlotSpace(), ledger, NewDayLoad(1), NewRandomizer(1), nil)

	entries, err := assigner.AssignLevel("100", makeCourses("100", 2), makeVenues(1), map[string]bool{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	err = ledger.Record(entries[0].Booking())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflictViolation))
	assert.NotEqual(t, entries[0].Day, entries[1].Day, "cap of one forces distinct days")
}

// contendedLedger lets another writer take a slot between IsFree and Record
// once the given number of bookings has gone through.
type contendedLedger struct {
	*Ledger
	contendAfter int
	records      int
}

func (l *contendedLedger) Record(b Booking) error {
	if l.records == l.contendAfter {
		if err := l.Ledger.Record(b); err != nil {
			return err
		}
	}
	l.records++
	return l.Ledger.Record(b)
}

func TestEngineAbortsRunOnConflictViolation(t *testing.T) {
	engine := newTestEngine(5)
	ledger := NewLedger([]Booking{{Venue: "LT1", Day: Monday, Time: Morning, CourseCode: "GEO100"}})
	_, err := engine.RunWithLedger(Request{Department: "geology", Semester: "first", Courses: makeCourses("100", 2), Venues: makeVenues(2)}, ledger)
	require.NoError(t, err)
	checkpoint := ledger.Checkpoint()
	require.Equal(t, 2, checkpoint)

	contended := &contendedLedger{Ledger: ledger, contendAfter: 3}
	outcome, err := engine.RunWithLedger(Request{
		Department: "geology",
		Semester:   "first",
		Courses:    append(makeCourses("200", 4), makeCourses("300", 2)...),
		Venues:     makeVenues(2),
	}, contended)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, errors.Is(err, ErrConflictViolation))

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, conflict.Attempted, conflict.Existing)

	assert.Len(t, ledger.Recorded(), checkpoint)
	assert.Equal(t, 3, ledger.Len())
}
