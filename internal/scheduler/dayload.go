package scheduler

// DefaultDailyCap is the maximum number of courses a level may receive on one day.
const DefaultDailyCap = 3

// DayLoad counts placements per (level, day) within one run.
type DayLoad struct {
	limit  int
	counts map[string]map[Day]int
}

// NewDayLoad builds a counter; non-positive caps fall back to DefaultDailyCap.
func NewDayLoad(limit int) *DayLoad {
	if limit <= 0 {
		limit = DefaultDailyCap
	}
	return &DayLoad{limit: limit, counts: make(map[string]map[Day]int)}
}

// Cap returns the per-day limit.
func (d *DayLoad) Cap() int {
	return d.limit
}

// Count returns how many courses of level are already placed on day.
func (d *DayLoad) Count(level string, day Day) int {
	return d.counts[level][day]
}

// Increment records one more placement for (level, day).
func (d *DayLoad) Increment(level string, day Day) {
	if d.counts[level] == nil {
		d.counts[level] = make(map[Day]int)
	}
	d.counts[level][day]++
}

// Available reports whether level can take another course on day.
func (d *DayLoad) Available(level string, day Day) bool {
	return d.Count(level, day) < d.limit
}
