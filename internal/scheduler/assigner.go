package scheduler

import "go.uber.org/zap"

// Assigner places courses into free (day, time, venue) triples, first fit in
// shuffled order. It never scores candidates; any valid slot is accepted.
type Assigner struct {
	space  SlotSpace
	ledger BookingLedger
	load   *DayLoad
	rand   *Randomizer
	logger *zap.Logger
}

// NewAssigner wires the assigner to a ledger and day-load counter owned by the caller.
func NewAssigner(space SlotSpace, ledger BookingLedger, load *DayLoad, r *Randomizer, logger *zap.Logger) *Assigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if r == nil {
		r = NewRandomizer(0)
	}
	return &Assigner{space: space, ledger: ledger, load: load, rand: r, logger: logger}
}

// AssignLevel attempts every course of level once. Codes present in scheduled
// are skipped and successful placements are added to it. Courses that find no
// slot are simply absent from the returned entries.
func (a *Assigner) AssignLevel(level string, courses []Course, venues []Venue, scheduled map[string]bool) ([]Entry, error) {
	if len(courses) == 0 || len(venues) == 0 {
		return nil, nil
	}

	pending := dedupeCourses(courses, scheduled)
	entries := make([]Entry, 0, len(pending))
	for _, course := range a.rand.Courses(pending) {
		entry, placed, err := a.place(level, course, venues)
		if err != nil {
			return nil, err
		}
		if !placed {
			a.logger.Debug("course left unscheduled",
				zap.String("level", level),
				zap.String("course", course.Code),
			)
			continue
		}
		scheduled[course.Code] = true
		entries = append(entries, entry)
	}
	return entries, nil
}

func (a *Assigner) place(level string, course Course, venues []Venue) (Entry, bool, error) {
	for _, day := range a.space.ShuffledDays(a.rand) {
		if !a.load.Available(level, day) {
			continue
		}
		for _, slot := range a.space.ShuffledTimeSlots(a.rand) {
			for _, venue := range a.rand.Venues(venues) {
				// Capacity is intentionally not compared with class size here.
				if !a.ledger.IsFree(venue.Name, day, slot) {
					continue
				}
				entry := Entry{
					CourseCode: course.Code,
					CourseName: course.Name,
					Level:      level,
					Venue:      venue.Name,
					Day:        day,
					Time:       slot,
					Instructor: course.instructor(),
					ClassSize:  course.classSize(),
				}
				if err := a.ledger.Record(entry.Booking()); err != nil {
					return Entry{}, false, err
				}
				a.load.Increment(level, day)
				return entry, true, nil
			}
		}
	}
	return Entry{}, false, nil
}

func dedupeCourses(courses []Course, scheduled map[string]bool) []Course {
	seen := make(map[string]bool, len(courses))
	out := make([]Course, 0, len(courses))
	for _, course := range courses {
		if seen[course.Code] || scheduled[course.Code] {
			continue
		}
		seen[course.Code] = true
		out = append(out, course)
	}
	return out
}
