package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/validate"
	"vendor-service/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTest(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := &config.Config{
		JWT:     config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1},
		Metrics: config.MetricsConfig{Prefix: "vendor_test"},
	}
	jwtutil.Initialize(&cfg.JWT)
	prometheus.InitMetrics(cfg)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Vendor{},
		&model.VendorCredential{},
		&model.PurchaseOrder{},
		&model.HistoricalPerformance{},
	))
	database.SetDB(db)

	e := echo.New()
	e.Validator = validate.New()
	return e
}

// call invokes a handler directly with an optional JSON body and :id param
func call(e *echo.Echo, h echo.HandlerFunc, method, body, id string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	_ = h(c)
	return rec
}

func createTestVendor(t *testing.T, e *echo.Echo, code string) model.Vendor {
	t.Helper()

	body := `{"name":"Acme Supplies","vendor_code":"` + code + `","contact_details":"acme@example.com","address":"1 Main St"}`
	rec := call(e, CreateVendor, http.MethodPost, body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Vendor model.Vendor `json:"vendor"`
		Token  string       `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Vendor
}

func createTestOrder(t *testing.T, e *echo.Echo, vendorID uint, poNumber, status string, rating *float64) model.PurchaseOrder {
	t.Helper()

	issue := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	req := PurchaseOrderRequest{
		PONumber:     poNumber,
		VendorID:     vendorID,
		OrderDate:    issue,
		DeliveryDate: issue.Add(24 * time.Hour),
		IssueDate:    issue,
		Items:        datatypes.JSON(`[{"sku":"WIDGET-1","qty":10}]`),
		Quantity:     10,
		Status:       status,
	}
	if rating != nil {
		req.QualityRating = rating
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := call(e, CreatePurchaseOrder, http.MethodPost, string(body), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order model.PurchaseOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	return order
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func timeAt(hour int) time.Time {
	return time.Date(2024, 3, 1, hour, 0, 0, 0, time.UTC)
}

// newListRequest performs a GET with a query string against the purchase
// order list handler and returns the response body
func newListRequest(t *testing.T, e *echo.Echo, target string) []byte {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, ListPurchaseOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.Bytes()
}
