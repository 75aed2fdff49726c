package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"vendor-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtConfig *config.JWTConfig

// VendorClaims carries the vendor identity a credential token is bound to
type VendorClaims struct {
	VendorID   uint   `json:"vendor_id"`
	VendorCode string `json:"vendor_code"`
	jwt.RegisteredClaims
}

// Initialize sets up the JWT utility with configuration
func Initialize(config *config.JWTConfig) {
	jwtConfig = config
}

// GenerateVendorToken creates a signed credential token for a vendor. The
// returned JTI identifies this issuance and is stored alongside the token.
func GenerateVendorToken(vendorID uint, vendorCode string) (token string, jti string, err error) {
	if jwtConfig == nil {
		return "", "", errors.New("JWT configuration not initialized")
	}

	jti = uuid.New().String()

	claims := &VendorClaims{
		VendorID:   vendorID,
		VendorCode: vendorCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(jwtConfig.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(jwtConfig.SigningKey))
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// ValidateToken validates the token and returns the claims
func ValidateToken(tokenString string) (*VendorClaims, error) {
	if jwtConfig == nil {
		return nil, errors.New("JWT configuration not initialized")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&VendorClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtConfig.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*VendorClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
