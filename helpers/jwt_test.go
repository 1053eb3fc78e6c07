package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateUserToken(42, "ADMIN")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, float64(42), claims["userId"])
	assert.Equal(t, "ADMIN", claims["role"])
}

func TestUserTokenOmitsEmptyRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateUserToken(7, "")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)

	_, hasRole := claims["role"]
	assert.False(t, hasRole)
}

func TestPartnerTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GeneratePartnerToken(9, "P1")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, float64(9), claims["partnerId"])
	assert.Equal(t, "P1", claims["partnerCode"])
}

func TestParseToken_WrongSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	token, err := GenerateUserToken(1, "")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "some-other-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}
