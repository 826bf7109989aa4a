// Cat-Corner/handlers/main_test.go
package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/meeshellyo/Cat-Corner/database"
	"github.com/meeshellyo/Cat-Corner/lexicon"
	"github.com/meeshellyo/Cat-Corner/models"
	"github.com/meeshellyo/Cat-Corner/utils"
)

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	db          *database.DatabaseService
	lexicon     *lexicon.Lexicon
	rateLimiter *models.RateLimiter
	validate    *validator.Validate
	storage     models.StorageService
	logger      *slog.Logger
	uploadDir   string
}

func (a *MockApplication) DB() *database.DatabaseService    { return a.db }
func (a *MockApplication) Lexicon() *lexicon.Lexicon        { return a.lexicon }
func (a *MockApplication) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *MockApplication) Validator() *validator.Validate   { return a.validate }
func (a *MockApplication) Storage() models.StorageService   { return a.storage }
func (a *MockApplication) Logger() *slog.Logger             { return a.logger }
func (a *MockApplication) UploadDir() string                { return a.uploadDir }

// setupTestApp creates a full application stack with a test database for
// integration testing. Templates live one directory up.
func setupTestApp(t *testing.T) *MockApplication {
	t.Helper()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("Failed to change directory to project root: %v", err)
	}
	if err := LoadTemplates(); err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}
	if err := os.Chdir("handlers"); err != nil {
		t.Fatalf("Failed to change back to handlers directory: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	dbDir, err := os.MkdirTemp("", "cc_test_db_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dbDir, "test.db")
	dbService, err := database.InitDB(dbPath, filepath.Join(dbDir, "no-seed.yaml"), logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	uploadDir, err := os.MkdirTemp("", "cc_test_uploads_*")
	if err != nil {
		t.Fatalf("Failed to create temp upload dir: %v", err)
	}

	app := &MockApplication{
		db:          dbService,
		lexicon:     lexicon.New([]string{"hairball", "furball"}),
		rateLimiter: models.NewRateLimiter(time.Millisecond, 100, time.Hour, 24*time.Hour),
		validate:    validator.New(),
		storage:     &utils.LocalStorage{UploadDir: uploadDir},
		logger:      logger,
		uploadDir:   uploadDir,
	}

	t.Cleanup(func() {
		app.db.DB.Close()
		os.RemoveAll(dbDir)
		os.RemoveAll(uploadDir)
	})

	return app
}

// createTestUser registers an account directly through the database layer
// and bumps its role when needed.
func createTestUser(t *testing.T, app *MockApplication, username string, role models.Role) *models.User {
	t.Helper()
	id, err := app.db.CreateUser(username, username+"@example.com", "a-long-test-password")
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	if role != models.RoleRegistered {
		if _, err := app.db.DB.Exec(`UPDATE users SET role = ? WHERE id = ?`, role, id); err != nil {
			t.Fatalf("Failed to set role for %s: %v", username, err)
		}
	}
	user, err := app.db.GetUserByID(id)
	if err != nil {
		t.Fatalf("Failed to reload test user %s: %v", username, err)
	}
	return user
}

// newTestRequest builds a request carrying an authenticated user and a CSRF
// token, as the middleware stack would.
func newTestRequest(_ *testing.T, user *models.User, method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	ctx := context.WithValue(req.Context(), CSRFTokenKey, "test-csrf-token")
	if user != nil {
		ctx = context.WithValue(ctx, CurrentUserKey, user)
	}
	return req.WithContext(ctx)
}

// withChiParam attaches a chi URL parameter for handlers called outside the
// router.
func withChiParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// mainCategoryID returns the ID of the first seeded main category.
func mainCategoryID(t *testing.T, app *MockApplication) int64 {
	t.Helper()
	cats, err := app.db.GetCategories()
	if err != nil || len(cats) == 0 {
		t.Fatalf("Expected seeded categories, got err=%v", err)
	}
	return cats[0].ID
}
