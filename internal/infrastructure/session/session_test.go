package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return signed
}

func TestSetExtractsIdentity(t *testing.T) {
	sess := New()
	token := mintToken(t, jwt.MapClaims{
		"sub":  "user-1",
		"name": "Ayu",
		"role": "freelancer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	require.NoError(t, sess.Set(token))

	identity := sess.Identity()
	require.NotNil(t, identity)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "Ayu", identity.Name)
	assert.Equal(t, "freelancer", identity.Role)
	assert.Equal(t, token, sess.Token())
}

func TestSetRejectsMalformedToken(t *testing.T) {
	sess := New()
	assert.Error(t, sess.Set("not-a-jwt"))
	assert.Nil(t, sess.Identity())
}

func TestSetRejectsTokenWithoutSubject(t *testing.T) {
	sess := New()
	token := mintToken(t, jwt.MapClaims{"name": "Nobody"})
	assert.Error(t, sess.Set(token))
	assert.Nil(t, sess.Identity())
}

func TestClear(t *testing.T) {
	sess := New()
	require.NoError(t, sess.Set(mintToken(t, jwt.MapClaims{"sub": "user-1"})))

	sess.Clear()
	assert.Nil(t, sess.Identity())
	assert.Equal(t, "", sess.Token())
}

func TestIdentityReturnsCopy(t *testing.T) {
	sess := New()
	require.NoError(t, sess.Set(mintToken(t, jwt.MapClaims{"sub": "user-1"})))

	first := sess.Identity()
	first.UserID = "tampered"
	assert.Equal(t, "user-1", sess.Identity().UserID)
}
