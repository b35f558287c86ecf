package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is the PostgreSQL Store implementation. Each teacher's availability
// is one row holding a jsonb slot document plus a version counter; the
// version check on update is the optimistic-concurrency primitive the
// allocator depends on.
type PgStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// querier abstracts pool and transaction so availability writes can run in
// either.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PgStore) ReadTeacherAvailability(ctx context.Context, teacherID string) ([]TimeSlot, int64, error) {
	const query = `
		SELECT slots, version
		FROM public.teacher_availability
		WHERE teacher_id = $1
	`

	var raw []byte
	var version int64
	err := s.pool.QueryRow(ctx, query, teacherID).Scan(&raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read availability failed: %w", err)
	}

	var slots []TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, 0, fmt.Errorf("decode availability document: %w", err)
	}
	return slots, version, nil
}

func (s *PgStore) WriteTeacherAvailability(ctx context.Context, teacherID string, slots []TimeSlot, version int64) error {
	return s.writeAvailability(ctx, s.pool, teacherID, slots, version)
}

func (s *PgStore) CommitAllocation(ctx context.Context, teacherID string, slots []TimeSlot, version int64, b *Booking) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin allocation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.writeAvailability(ctx, tx, teacherID, slots, version); err != nil {
		return err
	}
	if err := s.insertBooking(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit allocation: %w", err)
	}
	return nil
}

func (s *PgStore) FindConfirmedBooking(ctx context.Context, studentID, teacherID string, date CalendarDate, startHour int) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{
			"student_id":  studentID,
			"teacher_id":  teacherID,
			"lesson_date": date.Time(),
			"start_hour":  startHour,
			"status":      StatusConfirmed,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find confirmed booking query failed: %w", err)
	}

	b, err := scanBooking(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find confirmed booking failed: %w", err)
	}
	return b, nil
}

func (s *PgStore) GetBooking(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (s *PgStore) UpdateBooking(ctx context.Context, b *Booking) error {
	homework, feedback, err := encodeAttachments(b)
	if err != nil {
		return err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("homework", homework).
		Set("feedback", feedback).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (s *PgStore) ListBookings(ctx context.Context, filter BookingFilter) ([]*Booking, int, error) {
	columns := append(append([]string(nil), bookingColumns...), "count(*) OVER() AS total_count")

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(columns...).From("public.bookings")

	if filter.TeacherID != "" {
		query = query.Where(squirrel.Eq{"teacher_id": filter.TeacherID})
	}
	if filter.StudentID != "" {
		query = query.Where(squirrel.Eq{"student_id": filter.StudentID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"lesson_date": filter.From.Time()})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"lesson_date": filter.To.Time()})
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	sql, args, err := query.
		OrderBy("lesson_date ASC", "start_hour ASC", "created_at ASC").
		Limit(uint64(pageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, n, err := scanBookingWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		total = n
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

// writeAvailability performs the conditional document write. A version of 0
// means the caller saw no document; the insert relies on the primary key to
// reject a concurrent first writer.
func (s *PgStore) writeAvailability(ctx context.Context, q querier, teacherID string, slots []TimeSlot, version int64) error {
	if slots == nil {
		slots = []TimeSlot{}
	}
	doc, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("encode availability document: %w", err)
	}

	if version == 0 {
		const insert = `
			INSERT INTO public.teacher_availability (teacher_id, slots, version)
			VALUES ($1, $2, 1)
			ON CONFLICT (teacher_id) DO NOTHING
		`
		ct, err := q.Exec(ctx, insert, teacherID, doc)
		if err != nil {
			return fmt.Errorf("insert availability failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	const update = `
		UPDATE public.teacher_availability
		SET slots = $1, version = version + 1, updated_at = now()
		WHERE teacher_id = $2 AND version = $3
	`
	ct, err := q.Exec(ctx, update, doc, teacherID, version)
	if err != nil {
		return fmt.Errorf("update availability failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *PgStore) insertBooking(ctx context.Context, q querier, b *Booking) error {
	homework, feedback, err := encodeAttachments(b)
	if err != nil {
		return err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"id", "student_id", "teacher_id", "lesson_date", "start_hour", "end_hour",
			"price", "status", "bulk_id", "lesson_number", "total_lessons",
			"homework", "feedback", "created_at", "updated_at",
		).
		Values(
			b.ID, b.StudentID, b.TeacherID, b.Date.Time(), b.StartHour, b.EndHour,
			b.Price, b.Status, nullIfEmpty(b.BulkID), nullIfZero(b.LessonNumber), nullIfZero(b.TotalLessons),
			homework, feedback, b.CreatedAt, b.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert booking query failed: %w", err)
	}

	if _, err := q.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Partial unique index on confirmed (teacher, student, date, hour).
			return ErrAlreadyBooked
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

var bookingColumns = []string{
	"id", "student_id", "teacher_id", "lesson_date", "start_hour", "end_hour",
	"price", "status", "bulk_id", "lesson_number", "total_lessons",
	"homework", "feedback", "created_at", "updated_at",
}

func scanBooking(row pgx.Row) (*Booking, error) {
	return scanBookingRow(row, nil)
}

func scanBookingWithTotal(row pgx.Row) (*Booking, int, error) {
	var total int
	b, err := scanBookingRow(row, &total)
	if err != nil {
		return nil, 0, err
	}
	return b, total, nil
}

// scanBookingRow scans one booking row; total, when non-nil, receives the
// count(*) OVER() window column appended by list queries.
func scanBookingRow(row pgx.Row, total *int) (*Booking, error) {
	var b Booking
	var lessonDate time.Time
	var bulkID *string
	var lessonNumber, totalLessons *int
	var homework, feedback []byte

	dest := []any{
		&b.ID, &b.StudentID, &b.TeacherID, &lessonDate, &b.StartHour, &b.EndHour,
		&b.Price, &b.Status, &bulkID, &lessonNumber, &totalLessons,
		&homework, &feedback, &b.CreatedAt, &b.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	b.Date = DateOf(lessonDate)
	if bulkID != nil {
		b.BulkID = *bulkID
	}
	if lessonNumber != nil {
		b.LessonNumber = *lessonNumber
	}
	if totalLessons != nil {
		b.TotalLessons = *totalLessons
	}
	if len(homework) > 0 {
		if err := json.Unmarshal(homework, &b.Homework); err != nil {
			return nil, fmt.Errorf("decode homework: %w", err)
		}
	}
	if len(feedback) > 0 {
		if err := json.Unmarshal(feedback, &b.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
	}
	return &b, nil
}

func encodeAttachments(b *Booking) (homework, feedback []byte, err error) {
	if b.Homework != nil {
		homework, err = json.Marshal(b.Homework)
		if err != nil {
			return nil, nil, fmt.Errorf("encode homework: %w", err)
		}
	}
	if b.Feedback != nil {
		feedback, err = json.Marshal(b.Feedback)
		if err != nil {
			return nil, nil, fmt.Errorf("encode feedback: %w", err)
		}
	}
	return homework, feedback, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
