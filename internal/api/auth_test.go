package api

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/hangoutx/hangoutx-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("password123")
	require.NoError(t, err, "expected password to hash")
	assert.NotEqual(t, "password123", hash, "expected hash to differ from plaintext")

	assert.True(t, verifyPassword(hash, "password123"), "expected matching password to verify")
	assert.False(t, verifyPassword(hash, "wrong-password"), "expected wrong password to fail")
}

func TestJwtRoundTrip(t *testing.T) {
	app := &HangoutApp{signingKey: []byte("test-signing-key"), log: testutil.TestLogger(t)}

	token, err := app.createJwt(42, time.Hour)
	require.NoError(t, err, "expected token to be created")

	userId, err := app.extractUserIdFromToken(token)
	require.NoError(t, err, "expected token to verify")
	assert.Equal(t, 42, userId, "expected user id claim to round-trip")
}

func TestJwtExpired(t *testing.T) {
	app := &HangoutApp{signingKey: []byte("test-signing-key"), log: testutil.TestLogger(t)}

	token, err := app.createJwt(42, -time.Minute)
	require.NoError(t, err, "expected token to be created")

	_, err = app.extractUserIdFromToken(token)
	assert.Error(t, err, "expected expired token to be rejected")
}

func TestJwtWrongKey(t *testing.T) {
	app := &HangoutApp{signingKey: []byte("test-signing-key"), log: testutil.TestLogger(t)}
	other := &HangoutApp{signingKey: []byte("other-signing-key"), log: testutil.TestLogger(t)}

	token, err := other.createJwt(42, time.Hour)
	require.NoError(t, err, "expected token to be created")

	_, err = app.extractUserIdFromToken(token)
	assert.Error(t, err, "expected token signed with another key to be rejected")
}

func TestJwtRejectsUnexpectedSigningMethod(t *testing.T) {
	app := &HangoutApp{signingKey: []byte("test-signing-key"), log: testutil.TestLogger(t)}

	// alg "none" must never be accepted
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		userIdClaim: 42,
		expClaim:    time.Now().Add(time.Hour).Unix(),
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = app.extractUserIdFromToken(tokenString)
	assert.Error(t, err, "expected unsigned token to be rejected")
}

func TestUserIdContext(t *testing.T) {
	ctx := context.Background()

	_, ok := UserId(ctx)
	assert.False(t, ok, "expected no user id on a fresh context")

	ctx = WithUserId(ctx, 7)
	userId, ok := UserId(ctx)
	assert.True(t, ok, "expected user id to be set")
	assert.Equal(t, 7, userId)
}
