package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/scope"
	"telecom-erp-backend/internal/settlement"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testCfg = &config.Config{
	JWTSecret:        "0123456789abcdef0123456789abcdef",
	StatsPageSize:    50,
	StatsMaxPageSize: 500,
}

type dbIndex struct{}

func (dbIndex) Index(ctx context.Context) (scope.StoreIndex, error) {
	var stores []models.Store
	if err := database.DB.WithContext(ctx).Find(&stores).Error; err != nil {
		return scope.StoreIndex{}, err
	}
	return scope.NewStoreIndex(stores), nil
}

func uptr(v uint) *uint { return &v }

func setup(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	require.NoError(t, db.Create(&[]models.Branch{{ID: 1, Name: "Busan", Code: "PUS"}, {ID: 2, Name: "Seoul", Code: "SEL"}}).Error)
	require.NoError(t, db.Create(&[]models.Store{
		{ID: 42, BranchID: 1, Name: "Seomyeon", Code: "PUS-01", Status: models.StoreStatusActive},
		{ID: 43, BranchID: 1, Name: "Haeundae", Code: "PUS-02", Status: models.StoreStatusInactive},
		{ID: 50, BranchID: 2, Name: "Gangnam", Code: "SEL-01", Status: models.StoreStatusActive},
	}).Error)
	require.NoError(t, db.Create(&[]models.User{
		{ID: 1, Name: "HQ", Email: "hq@example.com", PasswordHash: "x", Role: models.RoleHeadquarters},
		{ID: 2, Name: "Branch", Email: "branch@example.com", PasswordHash: "x", Role: models.RoleBranch, BranchID: uptr(1)},
		{ID: 3, Name: "Store", Email: "store@example.com", PasswordHash: "x", Role: models.RoleStore, BranchID: uptr(1), StoreID: uptr(42)},
	}).Error)

	calc := settlement.New()
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(zap.NewNop())})
	api := app.Group("/api", auth.JWTMiddleware(testCfg), auth.ScopeMiddleware(dbIndex{}))
	api.Post("/sales", CreateSaleHandler(calc))
	api.Post("/sales/import", ImportSalesHandler(calc))
	api.Post("/sales/recompute", auth.RequireRole(models.RoleHeadquarters, models.RoleDeveloper), RecomputeHandler(calc))
	api.Get("/sales", ListSalesHandler(testCfg))
	api.Get("/sales/:id", GetSaleHandler())
	return app
}

func token(t *testing.T, id uint) string {
	t.Helper()
	tok, err := auth.GenerateToken(testCfg.JWTSecret, &models.User{ID: id})
	require.NoError(t, err)
	return tok
}

func send(t *testing.T, app *fiber.App, method, path string, user uint, contentType string, body io.Reader) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token(t, user))
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func do(t *testing.T, app *fiber.App, method, path string, user uint, body string) (int, map[string]any) {
	return send(t, app, method, path, user, "application/json", strings.NewReader(body))
}

const literalEntry = `"sale_date":"2024-03-05","carrier":"sk","activation_type":"new",
	"face_value":100000,"verbal1":"30000","verbal2":20000,"paper_cash":10000,"sim_fee":5000,"tax_rate":"0.133"`

func countSales(t *testing.T) int64 {
	var n int64
	require.NoError(t, database.DB.Model(&models.SaleRecord{}).Count(&n).Error)
	return n
}

func TestCreateSale(t *testing.T) {
	app := setup(t)

	t.Run("store user books to own store", func(t *testing.T) {
		status, body := do(t, app, "POST", "/api/sales", 3, "{"+literalEntry+"}")
		require.Equal(t, fiber.StatusCreated, status, body)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(42), data["store_id"])
		assert.Equal(t, "SKT", data["carrier"])
		assert.Equal(t, "150000", data["rebate_total"])
		assert.Equal(t, "145000", data["settlement_amount"])
		assert.Equal(t, "19285", data["vat"])
		assert.Equal(t, "125715", data["post_tax_margin"])

		var rec models.SaleRecord
		require.NoError(t, database.DB.First(&rec, uint(data["id"].(float64))).Error)
		assert.True(t, rec.HasComputed())
		assert.Equal(t, uint(3), rec.CreatedBy)

		var logs int64
		require.NoError(t, database.DB.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ?", "sale_record", rec.ID).Count(&logs).Error)
		assert.Equal(t, int64(1), logs)
	})

	t.Run("store user cannot book elsewhere", func(t *testing.T) {
		status, body := do(t, app, "POST", "/api/sales", 3, `{"store_id":50,`+literalEntry+"}")
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.NotContains(t, body, "data")
	})

	t.Run("invalid field is rejected before persisting", func(t *testing.T) {
		before := countSales(t)
		status, body := do(t, app, "POST", "/api/sales", 3, `{"sale_date":"2024-03-05","carrier":"KT","activation_type":"mnp","face_value":"abc"}`)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, "face_value", body["field"])
		assert.Equal(t, before, countSales(t))
	})

	t.Run("invalid date and tax rate name their field", func(t *testing.T) {
		_, body := do(t, app, "POST", "/api/sales", 3, `{"sale_date":"2024-13-01","carrier":"KT","activation_type":"new"}`)
		assert.Equal(t, "sale_date", body["field"])
		_, body = do(t, app, "POST", "/api/sales", 3, `{"sale_date":"2024-03-01","carrier":"KT","activation_type":"new","tax_rate":"1.5"}`)
		assert.Equal(t, "tax_rate", body["field"])
	})

	t.Run("headquarters must name a store", func(t *testing.T) {
		status, body := do(t, app, "POST", "/api/sales", 1, "{"+literalEntry+"}")
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, "store_id", body["field"])

		status, _ = do(t, app, "POST", "/api/sales", 1, `{"store_id":50,`+literalEntry+"}")
		assert.Equal(t, fiber.StatusCreated, status)
	})

	t.Run("branch user books inside its branch only", func(t *testing.T) {
		status, _ := do(t, app, "POST", "/api/sales", 2, `{"store_id":42,`+literalEntry+"}")
		assert.Equal(t, fiber.StatusCreated, status)
		status, _ = do(t, app, "POST", "/api/sales", 2, `{"store_id":50,`+literalEntry+"}")
		assert.Equal(t, fiber.StatusForbidden, status)
		status, _ = do(t, app, "POST", "/api/sales", 2, `{"store_id":43,`+literalEntry+"}")
		assert.Equal(t, fiber.StatusConflict, status)
	})

	t.Run("default tax rate leaves the column null", func(t *testing.T) {
		status, body := do(t, app, "POST", "/api/sales", 3, `{"sale_date":"2024-03-06","carrier":"KT","activation_type":"change","face_value":"1000"}`)
		require.Equal(t, fiber.StatusCreated, status)
		data := body["data"].(map[string]any)
		assert.Nil(t, data["tax_rate"])
		assert.Equal(t, "133", data["vat"])
	})
}

func TestListAndGetSales(t *testing.T) {
	app := setup(t)
	for _, store := range []string{"42", "50"} {
		status, _ := do(t, app, "POST", "/api/sales", 1, `{"store_id":`+store+`,`+literalEntry+"}")
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, body := do(t, app, "GET", "/api/sales?from=2024-03-01&to=2024-03-31", 3, "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total"])

	status, body = do(t, app, "GET", "/api/sales?from=2024-03-01&to=2024-03-31", 1, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["data"].(map[string]any)["total"])

	_, body = do(t, app, "GET", "/api/sales?from=2024-03-01&to=2024-03-31&store_id=50", 3, "")
	assert.Equal(t, float64(0), body["data"].(map[string]any)["total"])

	status, _ = do(t, app, "GET", "/api/sales?from=03/01/2024", 1, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "GET", "/api/sales/2", 3, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = do(t, app, "GET", "/api/sales/1", 3, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRecompute(t *testing.T) {
	app := setup(t)
	legacy := []models.SaleRecord{
		{StoreID: 42, SaleDate: "2024-03-10", CarrierRaw: "lg", ActivationType: "MNP", FaceValue: decimal.NewFromInt(100000)},
		{StoreID: 42, SaleDate: "2024-03-11", CarrierRaw: "", ActivationType: "new", FaceValue: decimal.NewFromInt(5000)},
		{StoreID: 50, SaleDate: "2024-04-01", CarrierRaw: "kt", ActivationType: "new", FaceValue: decimal.NewFromInt(5000)},
	}
	require.NoError(t, database.DB.Create(&legacy).Error)

	status, _ := do(t, app, "POST", "/api/sales/recompute?year=2024&month=3", 2, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := do(t, app, "POST", "/api/sales/recompute?year=2024&month=3", 1, "")
	require.Equal(t, fiber.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, []any{float64(legacy[0].ID)}, data["updated"])
	skipped := data["skipped"].([]any)
	require.Len(t, skipped, 1)
	assert.Equal(t, float64(legacy[1].ID), skipped[0].(map[string]any)["id"])

	var rec models.SaleRecord
	require.NoError(t, database.DB.First(&rec, legacy[0].ID).Error)
	assert.True(t, rec.HasComputed())
	assert.Equal(t, "LGU+", rec.CarrierNormalized)
	assert.Equal(t, "mnp", rec.ActivationType)
	assert.True(t, rec.VAT.Decimal.Equal(decimal.NewFromInt(13300)))

	var untouched models.SaleRecord
	require.NoError(t, database.DB.First(&untouched, legacy[2].ID).Error)
	assert.False(t, untouched.HasComputed())

	_, body = do(t, app, "POST", "/api/sales/recompute?year=2024&month=3", 1, "")
	data = body["data"].(map[string]any)
	assert.Empty(t, data["updated"])
	assert.Equal(t, float64(1), data["unchanged"])

	status, _ = do(t, app, "POST", "/api/sales/recompute?year=2024", 1, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	header := make([]any, len(SheetColumns))
	for i, c := range SheetColumns {
		header[i] = c
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseSheet(t *testing.T) {
	buf := workbook(t, [][]any{
		{"2024-03-05", "sk", "new", 100000, 30000, 20000, nil, nil, 10000, 5000, nil, nil, nil, "0.133"},
		{},
		{"2024-03-06", "kt", "mnp", 50000},
	})
	rows, err := ParseSheet(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, 4, rows[1].Row)

	c, err := settlement.Compute(rows[0].Raw)
	require.NoError(t, err)
	assert.True(t, c.SettlementAmount.Equal(decimal.NewFromInt(145000)))
	assert.True(t, rows[1].Raw.TaxRate.IsMissing())

	_, err = ParseSheet(strings.NewReader("not a workbook"))
	assert.Error(t, err)
}

func TestImportSales(t *testing.T) {
	app := setup(t)
	buf := workbook(t, [][]any{
		{"2024-03-05", "sk", "new", 100000, 30000, 20000, nil, nil, 10000, 5000, nil, nil, nil, "0.133"},
		{"2024-03-06", "kt", "mnp", "12a"},
		{"2024-03-07", "lg", "change", 1000},
	})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "march.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(part, buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	status, out := send(t, app, "POST", "/api/sales/import", 3, w.FormDataContentType(), &body)
	require.Equal(t, fiber.StatusOK, status, out)
	data := out["data"].(map[string]any)
	assert.Len(t, data["imported"], 2)
	rejected := data["rejected"].([]any)
	require.Len(t, rejected, 1)
	assert.Equal(t, float64(3), rejected[0].(map[string]any)["row"])
	assert.Equal(t, "face_value", rejected[0].(map[string]any)["field"])
	assert.Equal(t, int64(2), countSales(t))

	var stored []models.SaleRecord
	require.NoError(t, database.DB.Order("id").Find(&stored).Error)
	for _, r := range stored {
		assert.Equal(t, uint(42), r.StoreID, fmt.Sprint(r.ID))
		assert.True(t, r.HasComputed())
	}
}
