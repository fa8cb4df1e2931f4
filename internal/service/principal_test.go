package service

import (
	"testing"
	"time"

	"github.com/agrimart/ordercore/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalTokenRoundTrip(t *testing.T) {
	token, err := SignPrincipalToken("secret", Principal{ID: 12, Role: constants.RoleVendor}, time.Hour)
	require.NoError(t, err)

	principal, err := ParsePrincipalToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(12), principal.ID)
	assert.Equal(t, constants.RoleVendor, principal.Role)
	assert.Equal(t, constants.ActorVendor, principal.TimelineActor())
}

func TestParsePrincipalTokenRejects(t *testing.T) {
	token, err := SignPrincipalToken("secret", Principal{ID: 12, Role: constants.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	_, err = ParsePrincipalToken("other", token)
	assert.Error(t, err, "wrong secret")

	expired, err := SignPrincipalToken("secret", Principal{ID: 12, Role: constants.RoleAdmin}, -time.Minute)
	require.NoError(t, err)
	_, err = ParsePrincipalToken("secret", expired)
	assert.Error(t, err, "expired")

	unknown, err := SignPrincipalToken("secret", Principal{ID: 12, Role: "root"}, time.Hour)
	require.NoError(t, err)
	_, err = ParsePrincipalToken("secret", unknown)
	assert.Error(t, err, "unknown role")
}
