package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketbari/apperr"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated, h)
	}
}

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier([]byte("secret"), "ticketbari")
	ctx := context.Background()

	token, err := v.Sign("Vendor@X.com", time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "vendor@x.com", p.Email)

	_, err = v.Verify(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = NewJWTVerifier([]byte("other"), "ticketbari").Verify(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)

	_, err = NewJWTVerifier([]byte("secret"), "someone-else").Verify(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)

	expired, err := v.Sign("a@x.com", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, expired)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)
}

func TestJWTVerifierRequiresEmail(t *testing.T) {
	v := NewJWTVerifier([]byte("secret"), "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)
}

type stubIDTokens struct {
	token *auth.Token
	err   error
}

func (s stubIDTokens) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return s.token, s.err
}

func TestFirebaseVerifier(t *testing.T) {
	ctx := context.Background()

	v := &FirebaseVerifier{client: stubIDTokens{token: &auth.Token{
		UID:    "uid-1",
		Claims: map[string]interface{}{"email": "Buyer@X.com"},
	}}}
	p, err := v.Verify(ctx, "id-token")
	require.NoError(t, err)
	assert.Equal(t, Principal{Email: "buyer@x.com", UID: "uid-1"}, p)

	v = &FirebaseVerifier{client: stubIDTokens{err: errors.New("ID token has expired")}}
	_, err = v.Verify(ctx, "id-token")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)

	v = &FirebaseVerifier{client: stubIDTokens{token: &auth.Token{Claims: map[string]interface{}{}}}}
	_, err = v.Verify(ctx, "id-token")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)

	_, err = v.Verify(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
