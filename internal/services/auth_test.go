package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/adapters/auth"
	"eventhub/internal/domain"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	u.ID = domain.ID(fmt.Sprintf("u-%d", f.nextID))
	f.nextID++
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id domain.ID) (*domain.User, error) {
	for _, u := range f.byEmail {
		if u.ID.Equal(id) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) Issue(userID domain.ID, email string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + string(userID), nil
}

func newTestAuthService(repo domain.UserRepository) domain.AuthService {
	return NewAuthService(repo, auth.NewBcryptHasher(4), &fakeIssuer{}, time.Hour, 5*time.Second)
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("success stores a hash, not the password", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := newTestAuthService(repo)

		user, err := svc.SignUp(ctx, "Alice", "Alice@Example.COM", "sw0rdfish!")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email, "email is normalized")
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "sw0rdfish!", user.PasswordHash)

		stored := repo.byEmail["alice@example.com"]
		require.NotNil(t, stored)
		assert.NotEqual(t, "sw0rdfish!", stored.PasswordHash)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := newTestAuthService(repo)

		_, err := svc.SignUp(ctx, "Alice", "alice@example.com", "sw0rdfish!")
		require.NoError(t, err)
		_, err = svc.SignUp(ctx, "Alice Again", "alice@example.com", "different-pass")
		assert.True(t, errors.Is(err, domain.ErrDuplicateEmail))
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		svc := newTestAuthService(newFakeUserRepo())
		cases := []struct {
			name     string
			userName string
			email    string
			password string
		}{
			{"empty name", "", "a@example.com", "sw0rdfish!"},
			{"bad email", "Alice", "not-an-email", "sw0rdfish!"},
			{"short password", "Alice", "a@example.com", "short"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.SignUp(ctx, tc.userName, tc.email, tc.password)
				assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			})
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (domain.AuthService, *domain.User) {
		t.Helper()
		repo := newFakeUserRepo()
		svc := newTestAuthService(repo)
		user, err := svc.SignUp(ctx, "Alice", "alice@example.com", "sw0rdfish!")
		require.NoError(t, err)
		return svc, user
	}

	t.Run("success issues a token", func(t *testing.T) {
		svc, user := seed(t)
		token, got, err := svc.Login(ctx, "alice@example.com", "sw0rdfish!")
		require.NoError(t, err)
		assert.Equal(t, "token-for-"+string(user.ID), token)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("case-insensitive email", func(t *testing.T) {
		svc, _ := seed(t)
		_, _, err := svc.Login(ctx, "ALICE@example.com", "sw0rdfish!")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _ := seed(t)
		_, _, err := svc.Login(ctx, "alice@example.com", "wrong-pass")
		assert.True(t, errors.Is(err, domain.ErrInvalidLogin))
	})

	t.Run("unknown user is the same error as a wrong password", func(t *testing.T) {
		svc, _ := seed(t)
		_, _, err := svc.Login(ctx, "nobody@example.com", "sw0rdfish!")
		assert.True(t, errors.Is(err, domain.ErrInvalidLogin))
	})
}
