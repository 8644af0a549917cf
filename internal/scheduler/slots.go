package scheduler

import "strings"

// Day is a teaching day of the week.
type Day string

// TimeRange is a fixed daily teaching window.
type TimeRange string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
)

const (
	Morning     TimeRange = "08:00-10:00"
	LateMorning TimeRange = "10:00-12:00"
	Midday      TimeRange = "12:00-14:00"
	Afternoon   TimeRange = "14:00-16:00"
)

var (
	weekDays   = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
	dailySlots = []TimeRange{Morning, LateMorning, Midday, Afternoon}
)

// SlotSpace is the static weekly catalog of days and time windows.
type SlotSpace struct {
	days  []Day
	times []TimeRange
}

// DefaultSlotSpace returns the Monday-Friday, four-window catalog.
func DefaultSlotSpace() SlotSpace {
	return SlotSpace{days: weekDays, times: dailySlots}
}

// Days returns the catalog days in calendar order.
func (s SlotSpace) Days() []Day {
	out := make([]Day, len(s.days))
	copy(out, s.days)
	return out
}

// TimeSlots returns the daily windows in chronological order.
func (s SlotSpace) TimeSlots() []TimeRange {
	out := make([]TimeRange, len(s.times))
	copy(out, s.times)
	return out
}

// ShuffledDays returns a fresh permutation of the catalog days.
func (s SlotSpace) ShuffledDays(r *Randomizer) []Day {
	return permute(r, s.days)
}

// ShuffledTimeSlots returns a fresh permutation of the daily windows.
func (s SlotSpace) ShuffledTimeSlots(r *Randomizer) []TimeRange {
	return permute(r, s.times)
}

// Capacity is the number of (day, time) pairs a single venue offers per week.
func (s SlotSpace) Capacity() int {
	return len(s.days) * len(s.times)
}

// ParseDay maps a case-insensitive day name onto the catalog.
func ParseDay(raw string) (Day, bool) {
	raw = strings.TrimSpace(raw)
	for _, day := range weekDays {
		if strings.EqualFold(string(day), raw) {
			return day, true
		}
	}
	return "", false
}

// ParseTimeRange accepts "08:00-10:00" as well as "08:00 - 10:00".
func ParseTimeRange(raw string) (TimeRange, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	for _, slot := range dailySlots {
		if string(slot) == normalized {
			return slot, true
		}
	}
	return "", false
}
