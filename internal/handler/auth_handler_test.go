package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "bookreview/internal/errors"
	"bookreview/internal/model"
	"bookreview/internal/service"
)

func TestAuthHandler_Signup(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockAuthService)
		expectedStatus int
		expectedFields []string
		expectedMsg    string
	}{
		{
			name: "created",
			body: `{"name":" Alice ","email":" Alice@Example.com ","password":"password123"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "Alice", "alice@example.com", "password123").Return("tok", user, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "User created successfully",
		},
		{
			name:           "invalid fields",
			body:           `{"name":"","email":"not-an-email","password":"123"}`,
			setupMock:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"name", "email", "password"},
			expectedMsg:    "Validation Error",
		},
		{
			name: "email taken",
			body: `{"name":"Alice","email":"alice@example.com","password":"password123"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "Alice", "alice@example.com", "password123").Return("", nil, apperrors.ErrEmailExists)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Email already exists",
		},
		{
			name: "signing secret missing",
			body: `{"name":"Alice","email":"alice@example.com","password":"password123"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "Alice", "alice@example.com", "password123").Return("", nil, apperrors.ErrMissingSecret)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Server error",
		},
		{
			name:           "password over 72 bytes",
			body:           `{"name":"Long","email":"long@example.com","password":"` + strings.Repeat("a", 73) + `"}`,
			setupMock:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"password"},
			expectedMsg:    "Validation Error",
		},
		{
			name:           "multibyte password over 72 bytes",
			body:           `{"name":"Long","email":"long@example.com","password":"` + strings.Repeat("é", 40) + `"}`,
			setupMock:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"password"},
			expectedMsg:    "Validation Error",
		},
		{
			name: "password of exactly 72 bytes",
			body: `{"name":"Long","email":"long@example.com","password":"` + strings.Repeat("a", 72) + `"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "Long", "long@example.com", strings.Repeat("a", 72)).Return("tok", user, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "User created successfully",
		},
		{
			name:           "malformed json",
			body:           `{"name":`,
			setupMock:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockAuthService)
			tt.setupMock(mockSvc)

			e := newTestEcho()
			e.POST("/api/auth/signup", NewAuthHandler(mockSvc).Signup)
			rec := doRequest(e, http.MethodPost, "/api/auth/signup", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusCreated {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedMsg, body["message"])
				assert.Equal(t, "tok", body["token"])
				assert.Equal(t, map[string]any{
					"id": user.ID.String(), "name": "Alice", "email": "alice@example.com",
				}, body["user"])
			} else if tt.expectedMsg != "" {
				resp := decodeError(t, rec)
				assert.Equal(t, tt.expectedMsg, resp.Message)
				assert.ElementsMatch(t, tt.expectedFields, fieldNames(resp))
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Bob", Email: "bob@example.com"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockAuthService)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "success",
			body: `{"email":"BOB@example.com","password":"password123"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "bob@example.com", "password123").Return("tok", user, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Login successful",
		},
		{
			name: "wrong credentials",
			body: `{"email":"bob@example.com","password":"nope"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "bob@example.com", "nope").Return("", nil, apperrors.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid credentials",
		},
		{
			name:           "missing password",
			body:           `{"email":"bob@example.com"}`,
			setupMock:      func(m *MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Validation Error",
		},
		{
			name: "database down",
			body: `{"email":"bob@example.com","password":"password123"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "bob@example.com", "password123").Return("", nil, errors.New("dial tcp: refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockAuthService)
			tt.setupMock(mockSvc)

			e := newTestEcho()
			e.POST("/api/auth/login", NewAuthHandler(mockSvc).Login)
			rec := doRequest(e, http.MethodPost, "/api/auth/login", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedMsg, body["message"])
			assert.NotContains(t, rec.Body.String(), "refused")
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestUserHandler_GetProfile(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Bob", Email: "bob@example.com"}
	mockSvc := new(MockUserService)
	mockSvc.On("GetProfile", mock.Anything, user).Return(&service.Profile{
		User:    user.Public(),
		Books:   []model.Book{},
		Reviews: []model.Review{},
	}, nil)

	e := newTestEcho()
	e.GET("/api/auth/profile", NewUserHandler(mockSvc).GetProfile, asUser(user))
	rec := doRequest(e, http.MethodGet, "/api/auth/profile", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":"`+user.ID.String()+`","name":"Bob","email":"bob@example.com"},"books":[],"reviews":[]}`, rec.Body.String())
	mockSvc.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	e := newTestEcho()
	e.GET("/api/health", Health)
	rec := doRequest(e, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Book Review API is running"}`, rec.Body.String())
}
