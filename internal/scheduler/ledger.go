package scheduler

import "sync"

// Booking is a committed occupation of one venue at one (day, time) slot.
type Booking struct {
	Venue      string    `json:"venue"`
	Day        Day       `json:"day"`
	Time       TimeRange `json:"time"`
	CourseCode string    `json:"courseCode,omitempty"`
	Level      string    `json:"level,omitempty"`
}

type slotKey struct {
	venue string
	day   Day
	time  TimeRange
}

func keyOf(b Booking) slotKey {
	return slotKey{venue: b.Venue, day: b.Day, time: b.Time}
}

// Ledger tracks occupied (venue, day, time) triples. Bookings loaded at
// construction are kept apart from bookings recorded during the run so the
// latter can be discarded without re-reading storage.
type Ledger struct {
	mu       sync.Mutex
	seeded   map[slotKey]Booking
	occupied map[slotKey]Booking
	recorded []Booking
}

// BookingLedger is the slot bookkeeping a scheduling run writes through.
// *Ledger implements it.
type BookingLedger interface {
	IsFree(venue string, day Day, time TimeRange) bool
	Record(b Booking) error
	Checkpoint() int
	Rollback(checkpoint int)
	Recorded() []Booking
}

// NewLedger seeds a ledger from previously committed bookings. Duplicate prior
// bookings collapse onto the same triple.
func NewLedger(prior []Booking) *Ledger {
	l := &Ledger{
		seeded:   make(map[slotKey]Booking, len(prior)),
		occupied: make(map[slotKey]Booking, len(prior)),
	}
	for _, b := range prior {
		k := keyOf(b)
		if _, exists := l.seeded[k]; exists {
			continue
		}
		l.seeded[k] = b
		l.occupied[k] = b
	}
	return l
}

// IsFree reports whether no booking holds the exact triple.
func (l *Ledger) IsFree(venue string, day Day, time TimeRange) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, taken := l.occupied[slotKey{venue: venue, day: day, time: time}]
	return !taken
}

// Record appends a booking. An occupied triple is never overwritten; a
// *ConflictError is returned instead.
func (l *Ledger) Record(b Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := keyOf(b)
	if existing, taken := l.occupied[k]; taken {
		return &ConflictError{Attempted: b, Existing: existing}
	}
	l.occupied[k] = b
	l.recorded = append(l.recorded, b)
	return nil
}

// Checkpoint returns a marker for Rollback.
func (l *Ledger) Checkpoint() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recorded)
}

// Rollback discards bookings recorded after the checkpoint. Seeded bookings are untouched.
func (l *Ledger) Rollback(checkpoint int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if checkpoint < 0 {
		checkpoint = 0
	}
	if checkpoint >= len(l.recorded) {
		return
	}
	for _, b := range l.recorded[checkpoint:] {
		delete(l.occupied, keyOf(b))
	}
	l.recorded = l.recorded[:checkpoint]
}

// Reset discards every booking recorded since the ledger was seeded.
func (l *Ledger) Reset() {
	l.Rollback(0)
}

// Seeded returns the prior bookings the ledger was built from.
func (l *Ledger) Seeded() []Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Booking, 0, len(l.seeded))
	for _, b := range l.seeded {
		out = append(out, b)
	}
	return out
}

// Recorded returns the bookings made since seeding, in recording order.
func (l *Ledger) Recorded() []Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Booking, len(l.recorded))
	copy(out, l.recorded)
	return out
}

// Len is the total number of occupied triples.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.occupied)
}
