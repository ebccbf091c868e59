package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/taskloop/taskloop/internal/auth"
	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PasswordReset{},
		&models.Space{},
		&models.Folder{},
		&models.Dashboard{},
		&models.Task{},
		&models.ResourceMembership{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// NewTestRunner wraps a test database in the retrying runner with a
// discarded logger.
func NewTestRunner(t *testing.T, db *gorm.DB) *database.Runner {
	t.Helper()
	return database.NewRunner(db, DiscardLogger())
}

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

const TestPassword = "Sup3r$ecret!"

// CreateTestUser creates a password-bearing user
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:        "test-" + uuid.New().String()[:8] + "@example.com",
		Name:         "Test User",
		PasswordHash: &hash,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestSession creates a session row directly, with an arbitrary expiry
func CreateTestSession(t *testing.T, db *gorm.DB, userID uuid.UUID, expiresAt time.Time) *models.Session {
	t.Helper()

	token, err := auth.NewSessionToken()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	session := &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}

	return session
}

// CreateTestSpace creates a space owned by the given user
func CreateTestSpace(t *testing.T, db *gorm.DB, ownerID uuid.UUID, shared bool) *models.Space {
	t.Helper()

	space := &models.Space{
		Name:    "Test Space",
		OwnerID: ownerID,
		Shared:  shared,
	}
	if err := db.Create(space).Error; err != nil {
		t.Fatalf("failed to create test space: %v", err)
	}

	return space
}

// CreateTestFolder creates a folder inside a space
func CreateTestFolder(t *testing.T, db *gorm.DB, spaceID, ownerID uuid.UUID) *models.Folder {
	t.Helper()

	folder := &models.Folder{
		Name:    "Test Folder",
		SpaceID: spaceID,
		OwnerID: ownerID,
	}
	if err := db.Create(folder).Error; err != nil {
		t.Fatalf("failed to create test folder: %v", err)
	}

	return folder
}

// CreateTestDashboard creates a dashboard, optionally inside a folder or space
func CreateTestDashboard(t *testing.T, db *gorm.DB, ownerID uuid.UUID, spaceID, folderID *uuid.UUID) *models.Dashboard {
	t.Helper()

	dash := &models.Dashboard{
		Name:     "Test Dashboard",
		OwnerID:  ownerID,
		SpaceID:  spaceID,
		FolderID: folderID,
	}
	if err := db.Create(dash).Error; err != nil {
		t.Fatalf("failed to create test dashboard: %v", err)
	}

	return dash
}

// CreateTestTask creates a task on a dashboard
func CreateTestTask(t *testing.T, db *gorm.DB, dashboardID uuid.UUID) *models.Task {
	t.Helper()

	task := &models.Task{
		DashboardID: dashboardID,
		Title:       "Test Task",
		Status:      models.TaskStatusTodo,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}

	return task
}

// AuthenticatedRequest creates an HTTP request with a bearer token
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB     *gorm.DB
	Runner *database.Runner
	Auth   *auth.Service
	User   *models.User
	Token  string
}

// NewTestContext creates a complete test setup with DB, user, and a live session
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	runner := NewTestRunner(t, db)
	authService := auth.NewService(runner, 7*24*time.Hour)
	user := CreateTestUser(t, db)
	session := CreateTestSession(t, db, user.ID, time.Now().Add(24*time.Hour))

	return &TestSetup{
		DB:     db,
		Runner: runner,
		Auth:   authService,
		User:   user,
		Token:  session.Token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
