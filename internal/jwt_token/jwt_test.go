package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "campus", "campus-api")
var userID = id.NewUserID()

func Test_GenerateAndValidate(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_Garbage(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_Expired(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token has expired")
}

func Test_ValidateToken_WrongKeyOrAudience(t *testing.T) {
	token, err := NewJWTService("other-key", "campus", "campus-api").GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	token, err = NewJWTService("test-signing-key", "campus", "elsewhere").GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    "campus",
		Audience:  []string{"campus-api"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_AdapterMapsSubject(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.NotEmpty(t, claims.TokenID)
}
