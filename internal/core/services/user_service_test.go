package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	"github.com/SscSPs/storefront_auth/internal/core/services"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/SscSPs/storefront_auth/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserRepository (based on UserService usage) ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindUserByProviderDetails(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.User, error) {
	args := m.Called(ctx, provider, providerUserID)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func userOrNil(v any) *domain.User {
	if v == nil {
		return nil
	}
	return v.(*domain.User)
}

// --- Mock RefreshTokenCleaner ---
type MockRefreshTokenCleaner struct {
	mock.Mock
}

func (m *MockRefreshTokenCleaner) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenCleaner) DeleteRevokedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenCleaner) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Test Suite ---
type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo  *MockUserRepository
	mockTokenRepo *MockRefreshTokenCleaner
	now           time.Time
	service       *services.UserService
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockTokenRepo = new(MockRefreshTokenCleaner)
	suite.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.service = services.NewUserService(suite.mockUserRepo,
		services.WithUserClock(func() time.Time { return suite.now }),
		services.WithRefreshTokenCleaner(suite.mockTokenRepo),
	)
}

func validRegisterRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		Username:        "testuser",
		Email:           "Test.User@Example.com",
		Password:        "Str0ng!Pass",
		ConfirmPassword: "Str0ng!Pass",
		FirstName:       "Test",
		LastName:        "User",
	}
}

func localUser(password string) *domain.User {
	hash, _ := utils.HashPassword(password)
	return &domain.User{
		UserID:                uuid.NewString(),
		Username:              "testuser",
		Email:                 "test.user@example.com",
		PasswordHash:          &hash,
		Role:                  domain.RoleUser,
		AuthProvider:          domain.ProviderLocal,
		Enabled:               true,
		AccountNonLocked:      true,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
	}
}

// --- CreateUser Tests ---
func (suite *UserServiceTestSuite) TestCreateUser_Success() {
	ctx := context.Background()
	req := validRegisterRequest()

	suite.mockUserRepo.On("FindUserByUsername", ctx, "testuser").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "test.user@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.Username == "testuser" && user.PasswordHash != nil && *user.PasswordHash != req.Password
	})).Return(nil).Once()

	createdUser, err := suite.service.CreateUser(ctx, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(createdUser)
	suite.NotEmpty(createdUser.UserID)
	suite.Equal("test.user@example.com", createdUser.Email)
	suite.Equal(domain.RoleUser, createdUser.Role)
	suite.Equal(domain.ProviderLocal, createdUser.AuthProvider)
	suite.True(createdUser.CanAuthenticate())
	suite.True(utils.CheckPasswordHash(req.Password, *createdUser.PasswordHash))
	suite.Equal(suite.now, createdUser.CreatedAt)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_DuplicateUsername() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "testuser").Return(&domain.User{UserID: "other"}, nil).Once()

	createdUser, err := suite.service.CreateUser(ctx, validRegisterRequest())

	suite.Nil(createdUser)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestCreateUser_DuplicateEmail() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "testuser").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "test.user@example.com").Return(&domain.User{UserID: "other"}, nil).Once()

	_, err := suite.service.CreateUser(ctx, validRegisterRequest())

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *UserServiceTestSuite) TestCreateUser_PasswordMismatch() {
	req := validRegisterRequest()
	req.ConfirmPassword = "something-else"

	_, err := suite.service.CreateUser(context.Background(), req)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *UserServiceTestSuite) TestCreateUser_SaveError() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "testuser").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "test.user@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(assert.AnError).Once()

	createdUser, err := suite.service.CreateUser(ctx, validRegisterRequest())

	suite.Nil(createdUser)
	suite.ErrorIs(err, assert.AnError)
}

// --- GetUserByID Tests ---
func (suite *UserServiceTestSuite) TestGetUserByID_NotFound() {
	ctx := context.Background()
	userID := uuid.NewString()
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(nil, apperrors.ErrNotFound).Once()

	user, err := suite.service.GetUserByID(ctx, userID)

	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- AuthenticateUser Tests ---
func (suite *UserServiceTestSuite) TestAuthenticateUser_ByUsername() {
	ctx := context.Background()
	user := localUser("Str0ng!Pass")
	suite.mockUserRepo.On("FindUserByUsername", ctx, "testuser").Return(user, nil).Once()
	suite.mockUserRepo.On("UpdateLastLogin", ctx, user.UserID, suite.now).Return(nil).Once()

	got, err := suite.service.AuthenticateUser(ctx, "testuser", "Str0ng!Pass")

	suite.Require().NoError(err)
	suite.Require().NotNil(got.LastLogin)
	suite.Equal(suite.now, *got.LastLogin)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_ByEmail() {
	ctx := context.Background()
	user := localUser("Str0ng!Pass")
	suite.mockUserRepo.On("FindUserByUsername", ctx, "test.user@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "test.user@example.com").Return(user, nil).Once()
	suite.mockUserRepo.On("UpdateLastLogin", ctx, user.UserID, suite.now).Return(nil).Once()

	_, err := suite.service.AuthenticateUser(ctx, "test.user@example.com", "Str0ng!Pass")

	suite.NoError(err)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_Failures() {
	ctx := context.Background()

	suite.Run("unknown user", func() {
		suite.mockUserRepo.On("FindUserByUsername", ctx, "ghost").Return(nil, apperrors.ErrNotFound).Once()
		_, err := suite.service.AuthenticateUser(ctx, "ghost", "whatever")
		suite.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})

	suite.Run("wrong password on disabled account", func() {
		user := localUser("Str0ng!Pass")
		user.Enabled = false
		suite.mockUserRepo.On("FindUserByUsername", ctx, "disabled").Return(user, nil).Once()
		_, err := suite.service.AuthenticateUser(ctx, "disabled", "wrong")
		suite.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})

	suite.Run("right password on locked account", func() {
		user := localUser("Str0ng!Pass")
		user.AccountNonLocked = false
		suite.mockUserRepo.On("FindUserByUsername", ctx, "locked").Return(user, nil).Once()
		_, err := suite.service.AuthenticateUser(ctx, "locked", "Str0ng!Pass")
		suite.ErrorIs(err, apperrors.ErrAccountDisabled)
	})

	suite.Run("oauth account has no password", func() {
		user := localUser("x")
		user.PasswordHash = nil
		user.AuthProvider = domain.ProviderGoogle
		suite.mockUserRepo.On("FindUserByUsername", ctx, "googler").Return(user, nil).Once()
		_, err := suite.service.AuthenticateUser(ctx, "googler", "")
		suite.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})

	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
}

// --- DeleteUser Tests ---
func (suite *UserServiceTestSuite) TestDeleteUser_CascadesRefreshTokens() {
	ctx := context.Background()
	userID := uuid.NewString()
	var order []string

	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(&domain.User{UserID: userID}, nil).Once()
	suite.mockTokenRepo.On("DeleteAllForUser", ctx, userID).Return(int64(3), nil).Once().
		Run(func(mock.Arguments) { order = append(order, "tokens") })
	suite.mockUserRepo.On("DeleteUser", ctx, userID).Return(nil).Once().
		Run(func(mock.Arguments) { order = append(order, "user") })

	err := suite.service.DeleteUser(ctx, userID, userID)

	suite.Require().NoError(err)
	suite.Equal([]string{"tokens", "user"}, order)
	suite.mockUserRepo.AssertExpectations(suite.T())
	suite.mockTokenRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestDeleteUser_TokenCleanupFailureKeepsUser() {
	ctx := context.Background()
	userID := uuid.NewString()
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(&domain.User{UserID: userID}, nil).Once()
	suite.mockTokenRepo.On("DeleteAllForUser", ctx, userID).Return(int64(0), assert.AnError).Once()

	err := suite.service.DeleteUser(ctx, userID, userID)

	suite.ErrorIs(err, assert.AnError)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "DeleteUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestDeleteUser_OtherUserRequiresAdmin() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByID", ctx, "requester").Return(&domain.User{UserID: "requester", Role: domain.RoleUser}, nil).Once()

	err := suite.service.DeleteUser(ctx, "victim", "requester")

	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "DeleteAllForUser", mock.Anything, mock.Anything)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
