package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"studiobooking/internal/domain"
	"studiobooking/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 42
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockJWT struct {
	mock.Mock
}

func (m *mockJWT) GenerateToken(userID int64, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func TestRegister_Success(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockJWT)
	svc := NewService(users, tokens, bcrypt.MinCost, nil)

	users.On("ExistsByEmail", mock.Anything, "drummer@example.com").Return(false, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "drummer@example.com" &&
			u.Role == domain.RoleMusician &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")) == nil
	})).Return(nil)
	tokens.On("GenerateToken", int64(42), "musician").Return("tok", nil)

	user, token, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Drummer", Email: "  Drummer@Example.com ", Password: "secret1", Role: "musician",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.EqualValues(t, 42, user.ID)
	assert.Empty(t, user.PasswordHash)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestRegister_EmailTaken(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockJWT), bcrypt.MinCost, nil)

	users.On("ExistsByEmail", mock.Anything, "a@b.io").Return(true, nil)

	_, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Al", Email: "a@b.io", Password: "secret1", Role: "staff",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateOnInsert(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockJWT), bcrypt.MinCost, nil)

	users.On("ExistsByEmail", mock.Anything, "a@b.io").Return(false, nil)
	users.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Al", Email: "a@b.io", Password: "secret1", Role: "studio_owner",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	stored := &domain.User{ID: 9, Email: "o@studio.io", Role: domain.RoleStudioOwner}

	tests := []struct {
		name     string
		password string
		lookup   error
		wantErr  error
	}{
		{name: "ok", password: "correct-horse"},
		{name: "wrong password", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", password: "correct-horse", lookup: domain.ErrNotFound, wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mockUserRepo)
			tokens := new(mockJWT)
			svc := NewService(users, tokens, bcrypt.MinCost, nil)

			if tt.lookup != nil {
				users.On("GetByEmail", mock.Anything, "o@studio.io").Return(nil, tt.lookup)
			} else {
				u := *stored
				u.PasswordHash = hashed(t, "correct-horse")
				users.On("GetByEmail", mock.Anything, "o@studio.io").Return(&u, nil)
			}
			tokens.On("GenerateToken", int64(9), "studio_owner").Return("tok", nil).Maybe()

			user, token, err := svc.Login(context.Background(), LoginRequest{Email: "O@studio.io", Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tok", token)
			assert.Empty(t, user.PasswordHash)
		})
	}
}

func TestLogin_StoreFailure(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockJWT), bcrypt.MinCost, nil)
	boom := errors.New("db down")
	users.On("GetByEmail", mock.Anything, "x@y.io").Return(nil, boom)

	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "x@y.io", Password: "p"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockJWT), bcrypt.MinCost, nil)
	users.On("GetByID", mock.Anything, int64(5)).Return(nil, domain.ErrNotFound)

	_, err := svc.GetCurrentUser(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
