package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRepeatsWeekly(t *testing.T) {
	seed := NewDate(2024, time.January, 1)

	drafts, err := GenerateRepeats(seed, 10, 11, 1, RepeatOptions{Count: 4})
	require.NoError(t, err)
	require.Len(t, drafts, 4)

	wantDates := []CalendarDate{
		NewDate(2024, time.January, 1),
		NewDate(2024, time.January, 8),
		NewDate(2024, time.January, 15),
		NewDate(2024, time.January, 22),
	}
	groupID := drafts[0].RepeatGroupID
	require.NotEmpty(t, groupID)

	for i, d := range drafts {
		assert.Equal(t, wantDates[i], d.Date)
		assert.Equal(t, 10, d.StartHour)
		assert.Equal(t, 11, d.EndHour)
		assert.Equal(t, groupID, d.RepeatGroupID)
		assert.Equal(t, i, d.RepeatIndex)
		assert.Equal(t, 4, d.TotalInGroup)
	}
}

func TestGenerateRepeatsMonthRollover(t *testing.T) {
	seed := NewDate(2024, time.January, 25)

	drafts, err := GenerateRepeats(seed, 9, 10, 1, RepeatOptions{Count: 2})
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, NewDate(2024, time.February, 1), drafts[1].Date)
}

func TestGenerateRepeatsYearRollover(t *testing.T) {
	seed := NewDate(2023, time.December, 28)

	drafts, err := GenerateRepeats(seed, 9, 10, 1, RepeatOptions{Count: 2})
	require.NoError(t, err)

	assert.Equal(t, NewDate(2024, time.January, 4), drafts[1].Date)
}

func TestGenerateRepeatsSingle(t *testing.T) {
	seed := NewDate(2024, time.May, 6)

	drafts, err := GenerateRepeats(seed, 9, 10, 2, RepeatOptions{Count: 1})
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	// The generator stamps group metadata even for a single occurrence.
	assert.NotEmpty(t, drafts[0].RepeatGroupID)
	assert.Equal(t, 1, drafts[0].TotalInGroup)
}

func TestGenerateRepeatsFreshGroupIDs(t *testing.T) {
	seed := NewDate(2024, time.May, 6)

	first, err := GenerateRepeats(seed, 9, 10, 1, RepeatOptions{Count: 2})
	require.NoError(t, err)
	second, err := GenerateRepeats(seed, 9, 10, 1, RepeatOptions{Count: 2})
	require.NoError(t, err)

	assert.NotEqual(t, first[0].RepeatGroupID, second[0].RepeatGroupID)
}

func TestGenerateRepeatsInvalid(t *testing.T) {
	seed := NewDate(2024, time.May, 6)

	t.Run("zero count", func(t *testing.T) {
		_, err := GenerateRepeats(seed, 9, 10, 1, RepeatOptions{Count: 0})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("inverted hours", func(t *testing.T) {
		_, err := GenerateRepeats(seed, 11, 9, 1, RepeatOptions{Count: 2})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("zero capacity", func(t *testing.T) {
		_, err := GenerateRepeats(seed, 9, 10, 0, RepeatOptions{Count: 2})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}
