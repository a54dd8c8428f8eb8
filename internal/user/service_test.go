package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/gymbook/reservation-api/internal/auth"
)

type memRepo struct {
	byID         map[string]*User
	nextID       int
	lastLoginErr error
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]*User{}}
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.nextID++
	u.ID = "user-" + string(rune('0'+m.nextID))
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	if m.lastLoginErr != nil {
		return m.lastLoginErr
	}
	u, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	return nil
}

func (m *memRepo) List(_ context.Context, _ UserFilter) ([]*User, int, error) {
	var out []*User
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, len(out), nil
}

func newTestService(repo Repository, log *zap.Logger) Service {
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(bcrypt.MinCost), log)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, nil)

	u, err := svc.Register(ctx, "  Ana@Gym.Test ", "supersecret", " Ana ")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ana@gym.test", u.Email)
	assert.Equal(t, "Ana", u.DisplayName)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "supersecret", u.PasswordHash)

	_, err = svc.Register(ctx, "ana@gym.test", "anothersecret", "Ana 2")
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, " ", "supersecret", "Ana")
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.Register(ctx, "ana@gym.test", "supersecret", "   ")
	assert.ErrorIs(t, err, ErrDisplayNameRequired)

	_, err = svc.Register(ctx, "ana@gym.test", "short", "Ana")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, nil)

	registered, err := svc.Register(ctx, "ana@gym.test", "supersecret", "Ana")
	require.NoError(t, err)

	u, err := svc.Login(ctx, "ANA@gym.test", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	require.NotNil(t, u.LastLoginAt)

	_, err = svc.Login(ctx, "ana@gym.test", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@gym.test", "supersecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrCredentialsRequired)

	repo.byID[registered.ID].IsActive = false
	_, err = svc.Login(ctx, "ana@gym.test", "supersecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUserIndistinguishable(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, nil)

	registered, err := svc.Register(ctx, "ana@gym.test", "supersecret", "Ana")
	require.NoError(t, err)
	repo.byID[registered.ID].IsActive = false

	_, errRight := svc.Login(ctx, "ana@gym.test", "supersecret")
	_, errWrong := svc.Login(ctx, "ana@gym.test", "wrongpassword")

	require.ErrorIs(t, errRight, ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errRight.Error())
	assert.Equal(t, "invalid email or password", errRight.Error())
	assert.Nil(t, repo.byID[registered.ID].LastLoginAt)
}

func TestLogin_LastLoginFailureIsLoggedNotReturned(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	core, logs := observer.New(zapcore.WarnLevel)
	svc := newTestService(repo, zap.New(core))

	_, err := svc.Register(ctx, "ana@gym.test", "supersecret", "Ana")
	require.NoError(t, err)

	repo.lastLoginErr = errors.New("connection reset")
	u, err := svc.Login(ctx, "ana@gym.test", "supersecret")
	require.NoError(t, err)
	assert.Nil(t, u.LastLoginAt)
	assert.Equal(t, 1, logs.FilterMessage("failed to update last login").Len())
}
