package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/plan-gate/internal/lib/jwt"
	"github.com/magabrotheeeer/plan-gate/internal/lib/password"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	"github.com/magabrotheeeer/plan-gate/internal/storage"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type PlanRecordRepositoryMock struct {
	mock.Mock
}

func (m *PlanRecordRepositoryMock) CreatePlanRecord(ctx context.Context, rec models.PlanRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return int64(args.Int(0)), args.Error(1)
}

func newTestMaker() jwt.Maker {
	return jwt.NewMaker("access_secret", "refresh_secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	users := new(UserRepositoryMock)
	records := new(PlanRecordRepositoryMock)
	svc := NewAuthService(users, records, newTestMaker())

	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "alice" &&
			u.Email == "a@x.com" &&
			u.Role == "user" &&
			u.CurrentPlan == models.PlanFree &&
			u.PlanExpiry != nil
	})).Return("uid-1", nil).Once()

	records.On("CreatePlanRecord", mock.Anything, mock.MatchedBy(func(rec models.PlanRecord) bool {
		return rec.UserUID == "uid-1" &&
			rec.PlanType == models.PlanFree &&
			rec.Status == models.PlanStatusActive &&
			rec.ProviderSessionID == nil
	})).Return(1, nil).Once()

	user, err := svc.Register(context.Background(), "  alice ", " A@X.com ", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	require.NotNil(t, user.PlanExpiry)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), *user.PlanExpiry, time.Minute)

	users.AssertExpectations(t)
	records.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	users := new(UserRepositoryMock)
	records := new(PlanRecordRepositoryMock)
	svc := NewAuthService(users, records, newTestMaker())

	users.On("CreateUser", mock.Anything, mock.Anything).
		Return("", storage.ErrUserExists).Once()

	user, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Nil(t, user)
	records.AssertNotCalled(t, "CreatePlanRecord", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("secret1")
	require.NoError(t, err)

	storedUser := &models.User{
		UID:          "uid-1",
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: hash,
		Role:         "user",
		CurrentPlan:  models.PlanFree,
	}

	tests := []struct {
		name     string
		email    string
		password string
		repoUser *models.User
		repoErr  error
		wantErr  error
	}{
		{
			name:     "valid credentials",
			email:    "a@x.com",
			password: "secret1",
			repoUser: storedUser,
		},
		{
			name:     "unknown email",
			email:    "b@x.com",
			password: "secret1",
			repoErr:  storage.ErrUserNotFound,
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "a@x.com",
			password: "wrong",
			repoUser: storedUser,
			wantErr:  ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserRepositoryMock)
			records := new(PlanRecordRepositoryMock)
			maker := newTestMaker()
			svc := NewAuthService(users, records, maker)

			users.On("GetUserByEmail", mock.Anything, tt.email).
				Return(tt.repoUser, tt.repoErr).Once()

			access, refresh, user, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, access)
				assert.Empty(t, refresh)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "uid-1", user.UID)

			claims, err := maker.ParseAccessToken(access)
			require.NoError(t, err)
			assert.Equal(t, "uid-1", claims.UserUID)

			claims, err = maker.ParseRefreshToken(refresh)
			require.NoError(t, err)
			assert.Equal(t, "user", claims.Role)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	users := new(UserRepositoryMock)
	records := new(PlanRecordRepositoryMock)
	maker := newTestMaker()
	svc := NewAuthService(users, records, maker)

	storedUser := &models.User{UID: "uid-1", Role: "user", CurrentPlan: models.PlanBasic}
	users.On("GetUser", mock.Anything, "uid-1").Return(storedUser, nil).Once()

	refresh, err := maker.GenerateRefreshToken("uid-1", "user")
	require.NoError(t, err)

	access, user, err := svc.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, storedUser, user)

	claims, err := maker.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserUID)
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	users := new(UserRepositoryMock)
	records := new(PlanRecordRepositoryMock)
	maker := newTestMaker()
	svc := NewAuthService(users, records, maker)

	// access-токен не проходит проверку refresh-секретом
	access, err := maker.GenerateAccessToken("uid-1", "user")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	users.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_UserGone(t *testing.T) {
	users := new(UserRepositoryMock)
	records := new(PlanRecordRepositoryMock)
	maker := newTestMaker()
	svc := NewAuthService(users, records, maker)

	users.On("GetUser", mock.Anything, "uid-1").
		Return(nil, storage.ErrUserNotFound).Once()

	refresh, err := maker.GenerateRefreshToken("uid-1", "user")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
