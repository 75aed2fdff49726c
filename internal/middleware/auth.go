package middleware

import (
	"net/http"
	"strings"

	"vendor-service/internal/model"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the vendor credential token and stores the caller's
// vendor identity in the context. A token is only accepted while its issuance
// is still on record for that vendor; deleting the vendor revokes it.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Track authentication attempts
		prometheus.AuthAttemptsCounter.Inc()

		// Extract the token from the Authorization header
		tokenString := c.Request().Header.Get("Authorization")
		if tokenString == "" {
			log.Warn("Missing authorization token")
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		// Remove "Bearer " prefix if present
		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:7]) == "BEARER " {
			tokenString = tokenString[7:]
		}

		// Validate the token signature and expiry
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid token", zap.Error(err))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		// The issuance must still be on record for this vendor
		var credential model.VendorCredential
		result := database.GetDB().
			Where("vendor_id = ? AND jti = ?", claims.VendorID, claims.ID).
			First(&credential)
		if result.Error != nil {
			log.Warn("Credential not on record",
				zap.Uint("vendor_id", claims.VendorID),
				zap.Error(result.Error))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		// Increment successful auth counter
		prometheus.AuthSuccessCounter.Inc()

		// Store vendor identity in the context
		c.Set("vendor_id", claims.VendorID)
		c.Set("vendor_code", claims.VendorCode)

		// Update logger with vendor identity
		log = log.With(
			zap.Uint("auth_vendor_id", claims.VendorID),
			zap.String("auth_vendor_code", claims.VendorCode),
		)
		c.Set("logger", log)

		// Call the next handler
		return next(c)
	}
}
