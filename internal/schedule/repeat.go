package schedule

import "github.com/google/uuid"

// DefaultCadenceDays is the spacing between occurrences of a weekly repeat.
const DefaultCadenceDays = 7

// RepeatOptions controls slot sequence expansion.
//
// Count is the number of occurrences to generate; how many occurrences a
// caller wants ("rest of the month", a fixed number of weeks) is the caller's
// policy, not the generator's. CadenceDays defaults to DefaultCadenceDays
// when zero.
type RepeatOptions struct {
	CadenceDays int
	Count       int
}

// GenerateRepeats expands a seed slot into an ordered sequence of drafts, one
// per occurrence, each shifted by CadenceDays from the previous. All drafts
// share a freshly generated repeat group id, carry RepeatIndex 0..Count-1 and
// TotalInGroup = Count. Date arithmetic uses real calendar math, so month and
// year rollover need no special-casing.
//
// The generator always stamps group metadata, including for Count == 1; the
// availability service strips it from single, non-repeating slots so those
// carry no group id at rest.
func GenerateRepeats(seed CalendarDate, startHour, endHour, capacity int, opts RepeatOptions) ([]TimeSlot, error) {
	if opts.Count < 1 {
		return nil, ErrInvalidInterval
	}
	cadence := opts.CadenceDays
	if cadence == 0 {
		cadence = DefaultCadenceDays
	}

	groupID := uuid.NewString()
	drafts := make([]TimeSlot, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		slot, err := NewTimeSlot(seed.AddDays(i*cadence), startHour, endHour, capacity)
		if err != nil {
			return nil, err
		}
		slot.RepeatGroupID = groupID
		slot.RepeatIndex = i
		slot.TotalInGroup = opts.Count
		drafts = append(drafts, slot)
	}
	return drafts, nil
}
