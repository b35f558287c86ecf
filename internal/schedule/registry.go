package schedule

import "sort"

// Registry is one teacher's current offerable slots. It is a plain value
// loaded from and written back to the Store; all cross-process consistency
// comes from the Store's version check, not from the registry itself.
type Registry struct {
	TeacherID string
	Slots     []TimeSlot
}

// Intervals returns the time ranges of all slots in the registry.
func (r *Registry) Intervals() []Interval {
	out := make([]Interval, len(r.Slots))
	for i, s := range r.Slots {
		out[i] = s.Interval()
	}
	return out
}

// Add admits a batch of drafts. The whole batch is rejected if any draft
// overlaps an existing slot or an earlier draft in the same batch; on
// rejection the registry is left untouched and the first conflicting interval
// is returned alongside ErrOverlapConflict.
func (r *Registry) Add(drafts []TimeSlot) (*Interval, error) {
	accepted := r.Intervals()
	for _, d := range drafts {
		if !d.Interval().Valid() || d.Capacity < 1 {
			return nil, ErrInvalidInterval
		}
		if ok, conflict := HasOverlap(accepted, d.Interval()); ok {
			return conflict, ErrOverlapConflict
		}
		accepted = append(accepted, d.Interval())
	}

	r.Slots = append(r.Slots, drafts...)
	r.sort()
	return nil, nil
}

// Find locates the slot at (date, startHour) and returns its index.
func (r *Registry) Find(date CalendarDate, startHour int) (int, bool) {
	for i, s := range r.Slots {
		if s.Date == date && s.StartHour == startHour {
			return i, true
		}
	}
	return -1, false
}

// RemoveAt deletes the slot at index i.
func (r *Registry) RemoveAt(i int) {
	r.Slots = append(r.Slots[:i], r.Slots[i+1:]...)
}

// Remove deletes the slot at (date, startHour) and reports whether it existed.
func (r *Registry) Remove(date CalendarDate, startHour int) bool {
	i, ok := r.Find(date, startHour)
	if !ok {
		return false
	}
	r.RemoveAt(i)
	return true
}

// RemoveGroup deletes every slot in the repeat group and returns how many
// were removed.
func (r *Registry) RemoveGroup(groupID string) int {
	if groupID == "" {
		return 0
	}
	kept := r.Slots[:0]
	removed := 0
	for _, s := range r.Slots {
		if s.RepeatGroupID == groupID {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	r.Slots = kept
	return removed
}

// ListRange returns the slots whose date falls within [from, to], ordered by
// date then start hour.
func (r *Registry) ListRange(from, to CalendarDate) []TimeSlot {
	var out []TimeSlot
	for _, s := range r.Slots {
		if s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartHour < out[j].StartHour
	})
	return out
}

func (r *Registry) sort() {
	sort.Slice(r.Slots, func(i, j int) bool {
		if r.Slots[i].Date != r.Slots[j].Date {
			return r.Slots[i].Date.Before(r.Slots[j].Date)
		}
		return r.Slots[i].StartHour < r.Slots[j].StartHour
	})
}
