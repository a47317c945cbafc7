package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"moneybook/internal/handlers"
	"moneybook/internal/logger"
	"moneybook/internal/middleware"
	"moneybook/internal/models"
	"moneybook/internal/services"
	"moneybook/internal/session"
	"moneybook/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Group{},
		&models.UserGroupRelation{},
		&models.Book{},
		&models.Account{},
		&models.Category{},
		&models.Tag{},
		&models.Payee{},
		&models.BalanceFlow{},
		&models.CategoryRelation{},
		&models.TagRelation{},
		&models.NoteDay{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	resolver := session.NewResolver(db)
	bookService := services.NewBookService(db)
	userService := services.NewUserService(db, bookService)
	groupService := services.NewGroupService(db, bookService, resolver)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	tagService := services.NewTagService(db)
	payeeService := services.NewPayeeService(db)
	flowService := services.NewFlowService(db)
	noteDayService := services.NewNoteDayService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService)
	bookHandler := handlers.NewBookHandler(bookService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	tagHandler := handlers.NewTagHandler(tagService)
	payeeHandler := handlers.NewPayeeHandler(payeeService)
	flowHandler := handlers.NewFlowHandler(flowService)
	noteDayHandler := handlers.NewNoteDayHandler(noteDayService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(resolver))

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/password", authHandler.ChangePassword)

	groups := protected.Group("/groups")
	groups.GET("", groupHandler.GetGroups)
	groups.POST("", groupHandler.CreateGroup)
	groups.PUT("/:id", groupHandler.UpdateGroup)
	groups.DELETE("/:id", groupHandler.DeleteGroup)
	groups.POST("/:id/invite", groupHandler.InviteUser)
	groups.POST("/:id/agree", groupHandler.AgreeInvite)
	groups.POST("/:id/reject", groupHandler.RejectInvite)
	groups.GET("/:id/users", groupHandler.GetGroupUsers)
	groups.DELETE("/:id/users/:user_id", groupHandler.RemoveUser)

	books := protected.Group("/books")
	books.GET("", bookHandler.GetBooks)
	books.POST("", bookHandler.CreateBook)
	books.GET("/:id", bookHandler.GetBookByID)
	books.PUT("/:id", bookHandler.UpdateBook)
	books.DELETE("/:id", bookHandler.DeleteBook)

	accounts := protected.Group("/accounts")
	accounts.GET("", accountHandler.GetAccounts)
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.POST("/:id/adjust", accountHandler.AdjustBalance)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	tags := protected.Group("/tags")
	tags.GET("", tagHandler.GetTags)
	tags.POST("", tagHandler.CreateTag)
	tags.PUT("/:id", tagHandler.UpdateTag)
	tags.DELETE("/:id", tagHandler.DeleteTag)

	payees := protected.Group("/payees")
	payees.GET("", payeeHandler.GetPayees)
	payees.POST("", payeeHandler.CreatePayee)
	payees.PUT("/:id", payeeHandler.UpdatePayee)
	payees.DELETE("/:id", payeeHandler.DeletePayee)

	flows := protected.Group("/balance-flows")
	flows.GET("", flowHandler.GetFlows)
	flows.POST("", flowHandler.CreateFlow)
	flows.GET("/:id", flowHandler.GetFlowByID)
	flows.PUT("/:id", flowHandler.UpdateFlow)
	flows.DELETE("/:id", flowHandler.DeleteFlow)
	flows.POST("/:id/confirm", flowHandler.ConfirmFlow)

	noteDays := protected.Group("/note-days")
	noteDays.GET("", noteDayHandler.GetNoteDays)
	noteDays.POST("", noteDayHandler.CreateNoteDay)
	noteDays.GET("/:id", noteDayHandler.GetNoteDayByID)
	noteDays.PUT("/:id", noteDayHandler.UpdateNoteDay)
	noteDays.DELETE("/:id", noteDayHandler.DeleteNoteDay)
	noteDays.POST("/:id/run", noteDayHandler.RunNoteDay)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, username, password string) (token string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q,"nick_name":"Test User"}`, username, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(float64)
}

// loginUser logs in and returns the token.
func (app *testApp) loginUser(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["token"].(string)
}
