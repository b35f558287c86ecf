package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/scheduling-backend/internal/auth"
)

// memRepository is an in-memory Repository for service tests.
type memRepository struct {
	byEmail map[string]*User
	byID    map[string]*User
}

func newMemRepository() *memRepository {
	return &memRepository{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
}

func (r *memRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *memRepository) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *memRepository) Create(_ context.Context, u *User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailAlreadyUsed
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	stored := *u
	r.byEmail[u.Email] = &stored
	r.byID[u.ID] = &stored
	return nil
}

func (r *memRepository) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	if u, ok := r.byID[id]; ok {
		u.LastLoginAt = &t
	}
	return nil
}

func newTestService() (Service, *memRepository) {
	repo := newMemRepository()
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(4)), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("teacher with rate", func(t *testing.T) {
		svc, _ := newTestService()
		u, err := svc.Register(ctx, RegisterRequest{
			Email:      "  Teacher@Example.COM ",
			Password:   "password123",
			Role:       RoleTeacher,
			HourlyRate: 35,
		})
		require.NoError(t, err)
		assert.Equal(t, "teacher@example.com", u.Email, "email is normalized")
		assert.Equal(t, 35.0, u.HourlyRate)
		assert.True(t, u.IsActive)
		assert.NotEqual(t, "password123", u.PasswordHash)
	})

	t.Run("student rate is zeroed", func(t *testing.T) {
		svc, _ := newTestService()
		u, err := svc.Register(ctx, RegisterRequest{
			Email:      "student@example.com",
			Password:   "password123",
			Role:       RoleStudent,
			HourlyRate: 99,
		})
		require.NoError(t, err)
		assert.Zero(t, u.HourlyRate)
	})

	t.Run("validation", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Register(ctx, RegisterRequest{Email: " ", Password: "password123", Role: RoleStudent})
		assert.ErrorIs(t, err, ErrEmailRequired)

		_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "short", Role: RoleStudent})
		assert.ErrorIs(t, err, ErrPasswordTooShort)

		_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "password123", Role: Role("admin")})
		assert.ErrorIs(t, err, ErrInvalidRole)

		_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "password123", Role: RoleTeacher})
		assert.ErrorIs(t, err, ErrInvalidRate)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _ := newTestService()
		req := RegisterRequest{Email: "dup@example.com", Password: "password123", Role: RoleStudent}
		_, err := svc.Register(ctx, req)
		require.NoError(t, err)

		_, err = svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	registered, err := svc.Register(ctx, RegisterRequest{
		Email:    "login@example.com",
		Password: "password123",
		Role:     RoleStudent,
	})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		u, err := svc.Login(ctx, "Login@Example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "login@example.com", "wrongpass1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		repo.byEmail["login@example.com"].IsActive = false
		_, err := svc.Login(ctx, "login@example.com", "password123")
		assert.ErrorIs(t, err, ErrInactiveUser)
		repo.byEmail["login@example.com"].IsActive = true
	})
}

func TestHourlyRate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	teacher, err := svc.Register(ctx, RegisterRequest{
		Email: "t@example.com", Password: "password123", Role: RoleTeacher, HourlyRate: 42,
	})
	require.NoError(t, err)
	student, err := svc.Register(ctx, RegisterRequest{
		Email: "s@example.com", Password: "password123", Role: RoleStudent,
	})
	require.NoError(t, err)

	rate, err := svc.HourlyRate(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, rate)

	_, err = svc.HourlyRate(ctx, student.ID)
	assert.ErrorIs(t, err, ErrNotATeacher)

	_, err = svc.HourlyRate(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
