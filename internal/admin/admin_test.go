package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testCfg = &config.Config{JWTSecret: "0123456789abcdef0123456789abcdef"}

// countingIndex reads stores straight from the database and counts
// invalidations.
type countingIndex struct{ invalidated int }

func (x *countingIndex) Index(ctx context.Context) (scope.StoreIndex, error) {
	var stores []models.Store
	if err := database.DB.WithContext(ctx).Find(&stores).Error; err != nil {
		return scope.StoreIndex{}, err
	}
	return scope.NewStoreIndex(stores), nil
}

func (x *countingIndex) Invalidate(context.Context) { x.invalidated++ }

func uptr(v uint) *uint { return &v }

func setup(t *testing.T) (*fiber.App, *countingIndex) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	require.NoError(t, db.Create(&models.Branch{ID: 1, Name: "Busan", Code: "PUS"}).Error)
	require.NoError(t, db.Create(&models.Store{ID: 42, BranchID: 1, Name: "Seomyeon", Code: "PUS-01"}).Error)
	require.NoError(t, db.Create(&[]models.User{
		{ID: 1, Name: "HQ", Email: "hq@example.com", PasswordHash: "x", Role: models.RoleHeadquarters},
		{ID: 2, Name: "Branch", Email: "branch@example.com", PasswordHash: "x", Role: models.RoleBranch, BranchID: uptr(1)},
		{ID: 3, Name: "Store", Email: "store@example.com", PasswordHash: "x", Role: models.RoleStore, BranchID: uptr(1), StoreID: uptr(42)},
	}).Error)

	index := &countingIndex{}
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(zap.NewNop())})
	api := app.Group("/api", auth.JWTMiddleware(testCfg), auth.ScopeMiddleware(index))
	api.Get("/stores", ListStoresHandler())
	api.Get("/stores/:id", GetStoreHandler())
	api.Get("/goals", ListGoalsHandler())

	adm := api.Group("/admin", auth.RequireRole(models.RoleHeadquarters, models.RoleDeveloper))
	adm.Post("/branches", CreateBranchHandler())
	adm.Get("/branches", ListBranchesHandler())
	adm.Get("/branches/:id", GetBranchHandler())
	adm.Put("/branches/:id", UpdateBranchHandler())
	adm.Post("/stores", CreateStoreHandler(index))
	adm.Put("/stores/:id", UpdateStoreHandler(index))
	adm.Post("/users", CreateUserHandler())
	adm.Get("/users", ListUsersHandler())
	adm.Put("/goals", UpsertGoalHandler())
	return app, index
}

func do(t *testing.T, app *fiber.App, method, path string, user uint, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	tok, err := auth.GenerateToken(testCfg.JWTSecret, &models.User{ID: user})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestBranches(t *testing.T) {
	app, _ := setup(t)

	status, body := do(t, app, "POST", "/api/admin/branches", 1, `{"name":"Incheon","code":" ict "}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	created := body["data"].(map[string]any)
	assert.Equal(t, "ICT", created["code"])

	status, _ = do(t, app, "POST", "/api/admin/branches", 1, `{"name":"Other","code":"ICT"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = do(t, app, "POST", "/api/admin/branches", 1, `{"code":"X"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "name", body["field"])

	status, _ = do(t, app, "POST", "/api/admin/branches", 2, `{"name":"Mine","code":"MINE"}`)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = do(t, app, "PUT", "/api/admin/branches/1", 1, `{"code":"NEW"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "code", body["field"])

	status, body = do(t, app, "PUT", "/api/admin/branches/1", 1, `{"name":"Busan Metro","code":"pus"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Busan Metro", body["data"].(map[string]any)["name"])
	assert.Equal(t, "PUS", body["data"].(map[string]any)["code"])

	_, body = do(t, app, "GET", "/api/admin/branches", 1, "")
	list := body["data"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, float64(1), list[0].(map[string]any)["store_count"])

	status, _ = do(t, app, "GET", "/api/admin/branches/99", 1, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	var logs int64
	require.NoError(t, database.DB.Model(&models.AuditLog{}).Where("entity_type = ?", "branch").Count(&logs).Error)
	assert.Equal(t, int64(2), logs)
}

func TestStores(t *testing.T) {
	app, index := setup(t)

	status, body := do(t, app, "POST", "/api/admin/stores", 1, `{"branch_id":1,"name":"Haeundae","code":"pus-02"}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	store := body["data"].(map[string]any)
	assert.Equal(t, "PUS-02", store["code"])
	assert.Equal(t, "active", store["status"])
	assert.Equal(t, "Busan", store["branch_name"])
	assert.Equal(t, 1, index.invalidated)
	newID := uint(store["id"].(float64))

	status, _ = do(t, app, "POST", "/api/admin/stores", 1, `{"branch_id":9,"name":"X","code":"X-1"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = do(t, app, "POST", "/api/admin/stores", 1, `{"branch_id":1,"name":"X","code":"PUS-01"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	t.Run("branch user lists its stores", func(t *testing.T) {
		_, body := do(t, app, "GET", "/api/stores", 2, "")
		assert.Len(t, body["data"], 2)
	})

	t.Run("store user sees only its store", func(t *testing.T) {
		_, body := do(t, app, "GET", "/api/stores", 3, "")
		assert.Len(t, body["data"], 1)
		status, _ := do(t, app, "GET", "/api/stores/"+jsonID(newID), 3, "")
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("deactivate through status", func(t *testing.T) {
		status, body := do(t, app, "PUT", "/api/admin/stores/"+jsonID(newID), 1, `{"status":"closed"}`)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, "status", body["field"])

		status, body = do(t, app, "PUT", "/api/admin/stores/"+jsonID(newID), 1, `{"status":"inactive"}`)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "inactive", body["data"].(map[string]any)["status"])
		assert.Equal(t, 2, index.invalidated)

		status, _ = do(t, app, "PUT", "/api/admin/stores/"+jsonID(newID), 1, `{"code":"OTHER"}`)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	})
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestUsers(t *testing.T) {
	app, _ := setup(t)

	status, body := do(t, app, "POST", "/api/admin/users", 1, `{"name":"S","email":"s@example.com","password":"password123","role":"store"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "store_id", body["field"])

	status, body = do(t, app, "POST", "/api/admin/users", 1, `{"name":"S","email":"s@example.com","password":"password123","role":"admin"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "role", body["field"])

	status, body = do(t, app, "POST", "/api/admin/users", 1, `{"name":"S","email":"S@example.com","password":"password123","role":"store","store_id":42}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "s@example.com", data["email"])
	assert.Equal(t, float64(1), data["branch_id"])
	assert.NotContains(t, data, "password_hash")

	status, _ = do(t, app, "POST", "/api/admin/users", 1, `{"name":"S","email":"s@example.com","password":"password123","role":"branch","branch_id":1}`)
	assert.Equal(t, fiber.StatusConflict, status)

	_, body = do(t, app, "GET", "/api/admin/users?role=store", 1, "")
	assert.Len(t, body["data"], 2)
}

func TestGoals(t *testing.T) {
	app, _ := setup(t)

	status, body := do(t, app, "PUT", "/api/admin/goals", 1, `{"store_id":42,"year":2024,"month":3,"sales_target":"300000","activation_target":2}`)
	require.Equal(t, fiber.StatusOK, status, body)
	status, _ = do(t, app, "PUT", "/api/admin/goals", 1, `{"store_id":42,"year":2024,"month":3,"sales_target":350000,"activation_target":3}`)
	require.Equal(t, fiber.StatusOK, status)

	status, body = do(t, app, "PUT", "/api/admin/goals", 1, `{"store_id":42,"year":2024,"month":13,"sales_target":"1"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "month", body["field"])
	status, body = do(t, app, "PUT", "/api/admin/goals", 1, `{"store_id":42,"year":2024,"month":3,"sales_target":"-1"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "sales_target", body["field"])
	status, _ = do(t, app, "PUT", "/api/admin/goals", 1, `{"store_id":77,"year":2024,"month":3,"sales_target":"1"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	_, body = do(t, app, "GET", "/api/goals?year=2024&month=3", 3, "")
	goals := body["data"].([]any)
	require.Len(t, goals, 1)
	assert.Equal(t, "350000", goals[0].(map[string]any)["sales_target"])
	assert.Equal(t, float64(3), goals[0].(map[string]any)["activation_target"])

	status, _ = do(t, app, "GET", "/api/goals", 3, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
