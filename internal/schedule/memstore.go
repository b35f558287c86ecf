package schedule

import (
	"context"
	"sort"
	"sync"
)

type availabilityDoc struct {
	slots   []TimeSlot
	version int64
}

// MemStore is an in-memory Store with the same version-check semantics as the
// PostgreSQL implementation. It backs the unit tests and makes the optimistic
// concurrency contract exercisable without a live database.
type MemStore struct {
	mu           sync.Mutex
	availability map[string]*availabilityDoc
	bookings     map[string]*Booking
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		availability: make(map[string]*availabilityDoc),
		bookings:     make(map[string]*Booking),
	}
}

func (m *MemStore) ReadTeacherAvailability(_ context.Context, teacherID string) ([]TimeSlot, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.availability[teacherID]
	if !ok {
		return nil, 0, nil
	}
	return copySlots(doc.slots), doc.version, nil
}

func (m *MemStore) WriteTeacherAvailability(_ context.Context, teacherID string, slots []TimeSlot, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(teacherID, slots, version)
}

func (m *MemStore) CommitAllocation(_ context.Context, teacherID string, slots []TimeSlot, version int64, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := m.findConfirmedLocked(b.StudentID, b.TeacherID, b.Date, b.StartHour); existing != nil {
		return ErrAlreadyBooked
	}
	if err := m.writeLocked(teacherID, slots, version); err != nil {
		return err
	}
	stored := *b
	m.bookings[b.ID] = &stored
	return nil
}

func (m *MemStore) FindConfirmedBooking(_ context.Context, studentID, teacherID string, date CalendarDate, startHour int) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b := m.findConfirmedLocked(studentID, teacherID, date, startHour); b != nil {
		out := *b
		return &out, nil
	}
	return nil, nil
}

func (m *MemStore) GetBooking(_ context.Context, id string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

func (m *MemStore) UpdateBooking(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookings[b.ID]; !ok {
		return ErrBookingNotFound
	}
	stored := *b
	stored.UpdatedAt = stored.UpdatedAt.UTC()
	m.bookings[b.ID] = &stored
	return nil
}

func (m *MemStore) ListBookings(_ context.Context, filter BookingFilter) ([]*Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Booking
	for _, b := range m.bookings {
		if filter.TeacherID != "" && b.TeacherID != filter.TeacherID {
			continue
		}
		if filter.StudentID != "" && b.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.From != nil && b.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && b.Date.After(*filter.To) {
			continue
		}
		item := *b
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].StartHour != out[j].StartHour {
			return out[i].StartHour < out[j].StartHour
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	total := len(out)
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize
	if offset >= total {
		return nil, total, nil
	}
	end := offset + pageSize
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

func (m *MemStore) writeLocked(teacherID string, slots []TimeSlot, version int64) error {
	doc, ok := m.availability[teacherID]
	if !ok {
		if version != 0 {
			return ErrVersionConflict
		}
		m.availability[teacherID] = &availabilityDoc{slots: copySlots(slots), version: 1}
		return nil
	}
	if doc.version != version {
		return ErrVersionConflict
	}
	doc.slots = copySlots(slots)
	doc.version++
	return nil
}

func (m *MemStore) findConfirmedLocked(studentID, teacherID string, date CalendarDate, startHour int) *Booking {
	for _, b := range m.bookings {
		if b.Status == StatusConfirmed &&
			b.StudentID == studentID &&
			b.TeacherID == teacherID &&
			b.Date == date &&
			b.StartHour == startHour {
			return b
		}
	}
	return nil
}

func copySlots(slots []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, len(slots))
	for i, s := range slots {
		out[i] = s
		if s.EnrolledIDs != nil {
			out[i].EnrolledIDs = append([]string(nil), s.EnrolledIDs...)
		}
	}
	return out
}
