package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndParse(t *testing.T) {
	tok, err := GenerateToken("abc123", secret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	sid, err := GetSessionIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sid)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := GenerateToken("abc123", secret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(tok, []byte("other"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	tok, err := GenerateToken("abc123", secret, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	for _, s := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := GetSessionIDFromToken(s, secret)
		assert.ErrorIs(t, err, common.ErrInvalidToken, s)
	}
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		SessionID:        "abc123",
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(s, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_RequiresSessionAndExpiry(t *testing.T) {
	noSid, err := GenerateToken("", secret, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = GetSessionIDFromToken(noSid, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{SessionID: "abc"}).SignedString(secret)
	require.NoError(t, err)
	_, err = GetSessionIDFromToken(noExp, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
