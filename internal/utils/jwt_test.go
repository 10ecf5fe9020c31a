package utils

import (
	"testing"
	"time"

	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSignKey = "test-sign-key"
	testIssuer  = "flock-auth"
)

func signTestToken(t *testing.T, claims *models.Claims, key string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func validClaims() *models.Claims {
	return &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TenantID:  "tenant-1",
		ChurchIDs: []string{"church-1"},
		Roles:     []models.Role{models.RoleLeader},
	}
}

func TestValidateAndParseJWTToken_Valid(t *testing.T) {
	signed := signTestToken(t, validClaims(), testSignKey)

	identity, err := ValidateAndParseJWTToken(signed, testSignKey, testIssuer)
	require.NoError(t, err)

	assert.Equal(t, "user-42", identity.UserID)
	assert.Equal(t, "tenant-1", identity.TenantID)
	assert.Equal(t, []string{"church-1"}, identity.ChurchIDs)
	assert.True(t, identity.HasRole(models.RoleLeader))
}

func TestValidateAndParseJWTToken_WrongKey(t *testing.T) {
	signed := signTestToken(t, validClaims(), "other-key")

	_, err := ValidateAndParseJWTToken(signed, testSignKey, testIssuer)
	require.Error(t, err)
}

func TestValidateAndParseJWTToken_WrongIssuer(t *testing.T) {
	claims := validClaims()
	claims.Issuer = "imposter"
	signed := signTestToken(t, claims, testSignKey)

	_, err := ValidateAndParseJWTToken(signed, testSignKey, testIssuer)
	require.Error(t, err)
}

func TestValidateAndParseJWTToken_Expired(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	signed := signTestToken(t, claims, testSignKey)

	_, err := ValidateAndParseJWTToken(signed, testSignKey, testIssuer)
	require.Error(t, err)
}

func TestValidateAndParseJWTToken_MissingTenant(t *testing.T) {
	claims := validClaims()
	claims.TenantID = ""
	signed := signTestToken(t, claims, testSignKey)

	_, err := ValidateAndParseJWTToken(signed, testSignKey, testIssuer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity")
}

func TestParseIdentityFromJWT_NoVerification(t *testing.T) {
	// Signed with a key the client does not know; unverified parse still
	// extracts the claims.
	signed := signTestToken(t, validClaims(), "server-only-key")

	identity, err := ParseIdentityFromJWT(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-42", identity.UserID)
	assert.Equal(t, "tenant-1", identity.TenantID)
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "missing token", header: "Bearer", wantErr: true},
		{name: "empty header", header: "", wantErr: true},
		{name: "empty token part", header: "Bearer ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearerToken(tt.header)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
