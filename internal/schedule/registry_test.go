package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, date CalendarDate, start, end, capacity int) TimeSlot {
	t.Helper()
	s, err := NewTimeSlot(date, start, end, capacity)
	require.NoError(t, err)
	return s
}

func TestRegistryAddBatchAtomicity(t *testing.T) {
	day := NewDate(2024, time.March, 4)
	reg := Registry{TeacherID: "t1"}

	// Draft #2 overlaps draft #1; the whole batch must be rejected.
	drafts := []TimeSlot{
		mustSlot(t, day, 9, 10, 1),
		mustSlot(t, day, 9, 11, 1),
		mustSlot(t, day, 14, 15, 1),
	}

	conflict, err := reg.Add(drafts)
	require.ErrorIs(t, err, ErrOverlapConflict)
	require.NotNil(t, conflict)
	assert.Equal(t, 9, conflict.StartHour)
	assert.Empty(t, reg.Slots, "rejected batch must leave the registry untouched")
}

func TestRegistryAddRejectsConflictWithExisting(t *testing.T) {
	day := NewDate(2024, time.March, 4)
	reg := Registry{TeacherID: "t1", Slots: []TimeSlot{mustSlot(t, day, 9, 11, 1)}}

	_, err := reg.Add([]TimeSlot{mustSlot(t, day, 10, 12, 1)})
	require.ErrorIs(t, err, ErrOverlapConflict)
	assert.Len(t, reg.Slots, 1)
}

func TestRegistryAddSortsByDateThenHour(t *testing.T) {
	day := NewDate(2024, time.March, 4)
	reg := Registry{TeacherID: "t1"}

	_, err := reg.Add([]TimeSlot{
		mustSlot(t, day.AddDays(1), 9, 10, 1),
		mustSlot(t, day, 14, 15, 1),
		mustSlot(t, day, 9, 10, 1),
	})
	require.NoError(t, err)
	require.Len(t, reg.Slots, 3)

	assert.Equal(t, day, reg.Slots[0].Date)
	assert.Equal(t, 9, reg.Slots[0].StartHour)
	assert.Equal(t, 14, reg.Slots[1].StartHour)
	assert.Equal(t, day.AddDays(1), reg.Slots[2].Date)
}

func TestRegistryAddInvalidDraft(t *testing.T) {
	day := NewDate(2024, time.March, 4)
	reg := Registry{TeacherID: "t1"}

	_, err := reg.Add([]TimeSlot{{Date: day, StartHour: 10, EndHour: 10, Capacity: 1}})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = reg.Add([]TimeSlot{{Date: day, StartHour: 9, EndHour: 10, Capacity: 0}})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestRegistryRemove(t *testing.T) {
	day := NewDate(2024, time.March, 4)
	reg := Registry{TeacherID: "t1"}
	_, err := reg.Add([]TimeSlot{
		mustSlot(t, day, 9, 10, 1),
		mustSlot(t, day, 14, 15, 1),
	})
	require.NoError(t, err)

	assert.True(t, reg.Remove(day, 9))
	assert.False(t, reg.Remove(day, 9), "second removal finds nothing")
	assert.Len(t, reg.Slots, 1)
	assert.Equal(t, 14, reg.Slots[0].StartHour)
}

func TestRegistryRemoveGroup(t *testing.T) {
	seed := NewDate(2024, time.March, 4)
	drafts, err := GenerateRepeats(seed, 9, 10, 1, RepeatOptions{Count: 3})
	require.NoError(t, err)
	groupID := drafts[0].RepeatGroupID

	reg := Registry{TeacherID: "t1"}
	_, err = reg.Add(drafts)
	require.NoError(t, err)
	_, err = reg.Add([]TimeSlot{mustSlot(t, seed, 14, 15, 1)})
	require.NoError(t, err)

	assert.Equal(t, 3, reg.RemoveGroup(groupID))
	require.Len(t, reg.Slots, 1)
	assert.Equal(t, 14, reg.Slots[0].StartHour)

	assert.Equal(t, 0, reg.RemoveGroup(groupID))
	assert.Equal(t, 0, reg.RemoveGroup(""), "empty group id matches nothing")
}

func TestRegistryListRange(t *testing.T) {
	monday := NewDate(2024, time.March, 4)
	reg := Registry{TeacherID: "t1"}
	_, err := reg.Add([]TimeSlot{
		mustSlot(t, monday.AddDays(-1), 9, 10, 1),
		mustSlot(t, monday, 14, 15, 1),
		mustSlot(t, monday, 9, 10, 1),
		mustSlot(t, monday.AddDays(6), 9, 10, 1),
		mustSlot(t, monday.AddDays(7), 9, 10, 1),
	})
	require.NoError(t, err)

	week := reg.ListRange(monday, monday.AddDays(6))
	require.Len(t, week, 3)

	// Sorted by date then start hour; the range is inclusive on both ends.
	assert.Equal(t, monday, week[0].Date)
	assert.Equal(t, 9, week[0].StartHour)
	assert.Equal(t, 14, week[1].StartHour)
	assert.Equal(t, monday.AddDays(6), week[2].Date)
}
