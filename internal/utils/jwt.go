package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/golang-jwt/jwt/v5"
)

// ValidateAndParseJWTToken validates the given JWT token string and extracts
// the platform claim set.
//
// Validation includes:
//   - Signature verification using the provided sign key (HMAC-SHA256)
//   - Issuer (iss) claim check against the provided tokenIssuer
//   - Expiration (exp) claim check
//   - Subject (sub) and tenant_id claim presence (via IdentityFromClaims)
//
// Parameters:
//
//	tokenString  - the raw signed JWT string to validate and parse
//	tokenSignKey - secret key used to verify the token signature
//	tokenIssuer  - expected issuer value to validate against the iss claim
//
// Returns:
//
//	models.Identity - the authenticated identity extracted from the claims
//	error           - non-nil if validation fails or required claims are missing
func ValidateAndParseJWTToken(tokenString, tokenSignKey, tokenIssuer string) (models.Identity, error) {
	claims := &models.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return models.Identity{}, fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	identity, err := models.IdentityFromClaims(claims)
	if err != nil {
		return models.Identity{}, fmt.Errorf("error building identity from claims: %w", err)
	}

	return identity, nil
}

// ParseBearerToken extracts the bearer token string from a raw
// "Authorization" HTTP header value of the form "<scheme> <token>".
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Split(strings.TrimSpace(authorizationHeader), " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}

// ParseIdentityFromJWT extracts the identity claims from a token without
// verifying its signature. The client uses this to learn its own tenant and
// user ID from a token issued by the platform; verification happens
// server-side on every authenticated call.
func ParseIdentityFromJWT(tokenString string) (models.Identity, error) {
	claims := &models.Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return models.Identity{}, err
	}

	return models.IdentityFromClaims(claims)
}
