package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"note-vault/cmd/server/middlewares"
	"note-vault/cmd/server/testutil"
	"note-vault/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	signUpEndpoint = "/api/v1/auth/sign-up"
	signInEndpoint = "/api/v1/auth/sign-in"
	rateLimitIP    = "192.168.1.1"
	testEmail      = "test@example.com"
	testPassword   = "Password123"
)

// MockAuthService mocks the auth service
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthResponse), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, req auth.SignInRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthResponse), args.Error(1)
}

// AuthTestSetup contains common test setup data
type AuthTestSetup struct {
	MockService *MockAuthService
	App         *fiber.App
	TestUser    *auth.User
	TestToken   string
}

// SetupAuthTest mounts the auth routes with a sign-in limit of two requests.
func SetupAuthTest(t *testing.T) *AuthTestSetup {
	t.Helper()

	mockService := &MockAuthService{}
	app := testutil.CreateTestApp(t)
	h := NewHandlers(mockService, testutil.CreateTestValidator(t))

	authGrp := app.Group("/api/v1/auth")
	authGrp.Post("/sign-up", h.SignUp)
	authGrp.Post("/sign-in", middlewares.BuildRateLimiter(2, time.Minute), h.SignIn)

	now := time.Now().UTC()
	return &AuthTestSetup{
		MockService: mockService,
		App:         app,
		TestUser: &auth.User{
			ID:        "665f1c2ab8d1f0a9e4c2d000",
			Email:     testEmail,
			CreatedAt: now,
			UpdatedAt: now,
		},
		TestToken: "mock-jwt-token",
	}
}

func TestAuthHandlersTableDriven(t *testing.T) {
	credentials := map[string]string{"email": testEmail, "password": testPassword}

	testCases := []struct {
		name           string
		endpoint       string
		body           map[string]string
		setupMock      func(*MockAuthService, *auth.User, string)
		expectedStatus int
		expectedError  string
	}{
		{
			name:     "SignUp_Success",
			endpoint: signUpEndpoint,
			body:     credentials,
			setupMock: func(m *MockAuthService, user *auth.User, token string) {
				m.On("SignUp", mock.Anything, auth.SignUpRequest{Email: testEmail, Password: testPassword}).
					Return(&auth.AuthResponse{User: user, Token: token}, nil).Once()
			},
			expectedStatus: 201,
		},
		{
			name:     "SignUp_DuplicateEmail",
			endpoint: signUpEndpoint,
			body:     credentials,
			setupMock: func(m *MockAuthService, _ *auth.User, _ string) {
				m.On("SignUp", mock.Anything, auth.SignUpRequest{Email: testEmail, Password: testPassword}).
					Return(nil, auth.ErrRegistrationFailed).Once()
			},
			expectedStatus: 400,
			expectedError:  auth.ErrRegistrationFailed.Error(),
		},
		{
			name:           "SignUp_WeakPassword",
			endpoint:       signUpEndpoint,
			body:           map[string]string{"email": testEmail, "password": "short"},
			setupMock:      func(*MockAuthService, *auth.User, string) {},
			expectedStatus: 400,
			expectedError:  "Invalid input",
		},
		{
			name:           "SignUp_BadEmail",
			endpoint:       signUpEndpoint,
			body:           map[string]string{"email": "nope", "password": testPassword},
			setupMock:      func(*MockAuthService, *auth.User, string) {},
			expectedStatus: 400,
			expectedError:  "email",
		},
		{
			name:     "SignIn_Success",
			endpoint: signInEndpoint,
			body:     credentials,
			setupMock: func(m *MockAuthService, user *auth.User, token string) {
				m.On("SignIn", mock.Anything, auth.SignInRequest{Email: testEmail, Password: testPassword}).
					Return(&auth.AuthResponse{User: user, Token: token}, nil).Once()
			},
			expectedStatus: 200,
		},
		{
			name:     "SignIn_BadCredentials",
			endpoint: signInEndpoint,
			body:     credentials,
			setupMock: func(m *MockAuthService, _ *auth.User, _ string) {
				m.On("SignIn", mock.Anything, auth.SignInRequest{Email: testEmail, Password: testPassword}).
					Return(nil, auth.ErrInvalidCredentials).Once()
			},
			expectedStatus: 401,
			expectedError:  auth.ErrInvalidCredentials.Error(),
		},
		{
			name:     "SignIn_StoreDown",
			endpoint: signInEndpoint,
			body:     credentials,
			setupMock: func(m *MockAuthService, _ *auth.User, _ string) {
				m.On("SignIn", mock.Anything, auth.SignInRequest{Email: testEmail, Password: testPassword}).
					Return(nil, auth.ErrUsersStore).Once()
			},
			expectedStatus: 500,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setup := SetupAuthTest(t)
			tc.setupMock(setup.MockService, setup.TestUser, setup.TestToken)

			req := testutil.CreateJSONRequest(http.MethodPost, tc.endpoint, tc.body)
			resp, err := setup.App.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)

			if tc.expectedStatus < 400 {
				var got auth.AuthResponse
				testutil.DecodeJSON(t, resp, &got)
				assert.Equal(t, setup.TestUser.Email, got.User.Email)
				assert.Equal(t, setup.TestToken, got.Token)
			} else if tc.expectedError != "" {
				var got map[string]string
				testutil.DecodeJSON(t, resp, &got)
				assert.Contains(t, got["error"], tc.expectedError)
			}

			setup.MockService.AssertExpectations(t)
		})
	}
}

func TestSignInRateLimit(t *testing.T) {
	setup := SetupAuthTest(t)

	expected := &auth.AuthResponse{User: setup.TestUser, Token: setup.TestToken}
	setup.MockService.On("SignIn", mock.Anything, auth.SignInRequest{
		Email:    testEmail,
		Password: testPassword,
	}).Return(expected, nil).Times(2)

	body := map[string]string{"email": testEmail, "password": testPassword}
	statuses := make([]int, 0, 3)
	for range 3 {
		req := testutil.CreateJSONRequest(http.MethodPost, signInEndpoint, body)
		req.Header.Set("X-Forwarded-For", rateLimitIP)
		resp, err := setup.App.Test(req, -1)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{200, 200, 429}, statuses)
	setup.MockService.AssertExpectations(t)
}
