package schedule

// HasOverlap reports whether candidate conflicts with any interval in
// existing. Two intervals conflict iff they fall on the same date and
// candidate.StartHour < existing.EndHour AND candidate.EndHour > existing.StartHour.
// Intervals are half-open, so touching endpoints (9-10 next to 10-11) do not
// conflict. The first conflicting interval found is returned for diagnostics.
func HasOverlap(existing []Interval, candidate Interval) (bool, *Interval) {
	for i := range existing {
		if existing[i].Date != candidate.Date {
			continue
		}
		if candidate.StartHour < existing[i].EndHour && candidate.EndHour > existing[i].StartHour {
			conflict := existing[i]
			return true, &conflict
		}
	}
	return false, nil
}
