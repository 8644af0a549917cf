package scheduler

import (
	"math/rand"
	"time"
)

// Randomizer produces shuffled orderings of courses, days, time slots and venues.
// It is not safe for concurrent use; each run owns its own instance.
type Randomizer struct {
	rng *rand.Rand
}

// NewRandomizer returns a Randomizer driven by seed. A zero seed falls back to
// the current time so production runs differ from one another.
func NewRandomizer(seed int64) *Randomizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Randomizer{rng: rand.New(rand.NewSource(seed))}
}

// Courses returns a shuffled copy of courses.
func (r *Randomizer) Courses(courses []Course) []Course {
	return permute(r, courses)
}

// Venues returns a shuffled copy of venues.
func (r *Randomizer) Venues(venues []Venue) []Venue {
	return permute(r, venues)
}

func permute[T any](r *Randomizer, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	if r == nil || len(out) < 2 {
		return out
	}
	r.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
