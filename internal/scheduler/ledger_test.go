package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRecordMarksSlotBusy(t *testing.T) {
	ledger := NewLedger(nil)
	require.True(t, ledger.IsFree("LT1", Monday, Morning))

	require.NoError(t, ledger.Record(Booking{Venue: "LT1", Day: Monday, Time: Morning, CourseCode: "CSC101"}))

	assert.False(t, ledger.IsFree("LT1", Monday, Morning))
	assert.True(t, ledger.IsFree("LT1", Monday, LateMorning))
	assert.True(t, ledger.IsFree("LT2", Monday, Morning))
	assert.Equal(t, 1, ledger.Len())
}

func TestLedgerRecordRejectsOccupiedTriple(t *testing.T) {
	ledger := NewLedger([]Booking{{Venue: "LT1", Day: Friday, Time: Afternoon, CourseCode: "MTH201"}})

	err := ledger.Record(Booking{Venue: "LT1", Day: Friday, Time: Afternoon, CourseCode: "CSC301"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflictViolation))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "MTH201", conflict.Existing.CourseCode)
	assert.Equal(t, "CSC301", conflict.Attempted.CourseCode)
	assert.Empty(t, ledger.Recorded())
}

func TestLedgerKeepsSeededAndRecordedApart(t *testing.T) {
	prior := []Booking{
		{Venue: "LT1", Day: Monday, Time: Morning},
		{Venue: "LT1", Day: Monday, Time: Morning},
		{Venue: "LT2", Day: Tuesday, Time: Midday},
	}
	ledger := NewLedger(prior)
	require.Len(t, ledger.Seeded(), 2)

	require.NoError(t, ledger.Record(Booking{Venue: "LT1", Day: Wednesday, Time: Morning}))
	checkpoint := ledger.Checkpoint()
	require.NoError(t, ledger.Record(Booking{Venue: "LT1", Day: Thursday, Time: Morning}))
	require.Len(t, ledger.Recorded(), 2)

	ledger.Rollback(checkpoint)
	assert.Len(t, ledger.Recorded(), 1)
	assert.True(t, ledger.IsFree("LT1", Thursday, Morning))
	assert.False(t, ledger.IsFree("LT1", Wednesday, Morning))

	ledger.Reset()
	assert.Empty(t, ledger.Recorded())
	assert.True(t, ledger.IsFree("LT1", Wednesday, Morning))
	assert.False(t, ledger.IsFree("LT1", Monday, Morning), "seeded bookings survive a reset")
	assert.False(t, ledger.IsFree("LT2", Tuesday, Midday))
}

func TestDayLoadCap(t *testing.T) {
	load := NewDayLoad(0)
	require.Equal(t, DefaultDailyCap, load.Cap())

	for i := 0; i < DefaultDailyCap; i++ {
		require.True(t, load.Available("100", Monday))
		load.Increment("100", Monday)
	}
	assert.False(t, load.Available("100", Monday))
	assert.Equal(t, 3, load.Count("100", Monday))
	assert.True(t, load.Available("200", Monday))
	assert.True(t, load.Available("100", Tuesday))
}

func TestRandomizerIsReproducibleAndNonDestructive(t *testing.T) {
	space := DefaultSlotSpace()
	first := space.ShuffledDays(NewRandomizer(42))
	second := space.ShuffledDays(NewRandomizer(42))
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, space.Days(), first)
	assert.Equal(t, []Day{Monday, Tuesday, Wednesday, Thursday, Friday}, space.Days())

	venues := []Venue{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	shuffled := NewRandomizer(7).Venues(venues)
	assert.ElementsMatch(t, venues, shuffled)
	assert.Equal(t, "A", venues[0].Name)
}

func TestSlotSpaceCatalog(t *testing.T) {
	space := DefaultSlotSpace()
	assert.Len(t, space.Days(), 5)
	assert.Equal(t, []TimeRange{Morning, LateMorning, Midday, Afternoon}, space.TimeSlots())
	assert.Equal(t, 20, space.Capacity())

	day, ok := ParseDay(" monday ")
	require.True(t, ok)
	assert.Equal(t, Monday, day)
	_, ok = ParseDay("Saturday")
	assert.False(t, ok)

	slot, ok := ParseTimeRange("12:00 - 14:00")
	require.True(t, ok)
	assert.Equal(t, Midday, slot)
}
