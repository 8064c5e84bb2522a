package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123"

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(secret, "fintrack")
	require.NoError(t, err)
	return v
}

func TestIssueAndVerify(t *testing.T) {
	v := newVerifier(t)
	tok, err := v.Issue("user-1", time.Hour)
	require.NoError(t, err)

	user, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user)
}

func TestVerifyRejects(t *testing.T) {
	v := newVerifier(t)
	good, err := v.Issue("user-1", time.Hour)
	require.NoError(t, err)

	other, err := NewVerifier("another-secret-value", "fintrack")
	require.NoError(t, err)
	foreign, err := other.Issue("user-1", time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewVerifier(secret, "someone-else")
	require.NoError(t, err)
	misissued, err := wrongIssuer.Issue("user-1", time.Hour)
	require.NoError(t, err)

	past := newVerifier(t)
	past.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := past.Issue("user-1", time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1", Issuer: "fintrack"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"tampered":     good[:len(good)-2] + "xx",
		"wrong secret": foreign,
		"wrong issuer": misissued,
		"expired":      expired,
		"alg none":     unsigned,
		"garbage":      "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewVerifierWeakSecret(t *testing.T) {
	_, err := NewVerifier("short", "fintrack")
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestIssueRequiresUser(t *testing.T) {
	_, err := newVerifier(t).Issue("  ", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	v := newVerifier(t)
	tok, err := v.Issue("user-1", time.Hour)
	require.NoError(t, err)

	var seen string
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFrom(r.Context())
	}))

	t.Run("header", func(t *testing.T) {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", seen)
	})

	t.Run("query parameter", func(t *testing.T) {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/api/stream?access_token="+tok, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", seen)
	})

	t.Run("missing", func(t *testing.T) {
		seen = ""
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
		assert.Empty(t, seen)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		req.Header.Set("Authorization", "Basic "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
