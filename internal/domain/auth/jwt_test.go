package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "storeledger/internal/core/context"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))

	token, exp, err := svc.GenerateAccessToken(appctx.UserContext{
		UserID:      "u-1",
		StoreID:     "store-1",
		Permissions: []string{PermLedgerRead},
	})
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UserID)
	assert.Equal(t, "store-1", user.StoreID)
	assert.Equal(t, []string{PermLedgerRead}, user.Permissions)
	assert.False(t, user.IsAdmin)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(DefaultJWTConfig("other"))
		token, _, err := other.GenerateAccessToken(appctx.UserContext{UserID: "u", StoreID: "s"})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(JWTConfig{Secret: "secret", Issuer: "someone-else"})
		token, _, err := other.GenerateAccessToken(appctx.UserContext{UserID: "u", StoreID: "s"})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		other := NewJWTService(JWTConfig{Secret: "secret", AccessTokenTTL: time.Nanosecond})
		token, _, err := other.GenerateAccessToken(appctx.UserContext{UserID: "u", StoreID: "s"})
		require.NoError(t, err)
		time.Sleep(1100 * time.Millisecond)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("missing store", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken(appctx.UserContext{UserID: "u"})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
