package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthTest(t *testing.T) (*echo.Echo, model.Vendor, string) {
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
	require.NoError(t, db.AutoMigrate(&model.Vendor{}, &model.VendorCredential{}))
	database.SetDB(db)

	vendor := model.Vendor{Name: "Acme Supplies", VendorCode: "ACME-1"}
	require.NoError(t, db.Create(&vendor).Error)

	token, jti, err := jwtutil.GenerateVendorToken(vendor.ID, vendor.VendorCode)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.VendorCredential{
		VendorID: vendor.ID,
		Token:    token,
		JTI:      jti,
		IssuedAt: time.Now(),
	}).Error)

	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"vendor_id": c.Get("vendor_id"),
		})
	}, AuthMiddleware)

	return e, vendor, token
}

func doRequest(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	e, vendor, token := setupAuthTest(t)

	t.Run("MissingToken", func(t *testing.T) {
		rec := doRequest(e, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MalformedToken", func(t *testing.T) {
		rec := doRequest(e, "Bearer not-a-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidToken", func(t *testing.T) {
		rec := doRequest(e, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ValidTokenWithoutBearerPrefix", func(t *testing.T) {
		rec := doRequest(e, token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("RevokedCredential", func(t *testing.T) {
		require.NoError(t, database.GetDB().
			Where("vendor_id = ?", vendor.ID).
			Delete(&model.VendorCredential{}).Error)

		rec := doRequest(e, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
