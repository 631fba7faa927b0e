package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dioscarr/Topapi/internal/apperr"
)

const (
	aliceID = "0b6f7c5e-3f1a-4c1e-9d7a-2f9a1c3b5d7e"
	bobID   = "6a1d2c3b-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

type stubOracle struct {
	identities map[string]*Identity
	calls      int
}

func (s *stubOracle) Identify(_ context.Context, token string) (*Identity, error) {
	s.calls++
	ident, ok := s.identities[token]
	if !ok {
		return nil, errors.New("invalid JWT")
	}
	return ident, nil
}

type stubRoles map[string]string

func (s stubRoles) RoleOf(_ context.Context, userID string) (string, error) {
	role, ok := s[userID]
	if !ok {
		return "", errors.New("no rows")
	}
	return role, nil
}

func newStubOracle() *stubOracle {
	return &stubOracle{identities: map[string]*Identity{
		"alice-token": {ID: aliceID, Email: "alice@example.com", Role: "Admin"},
		"bob-token":   {ID: bobID, Email: "bob@example.com"},
		"empty-token": {},
	}}
}

func TestVerifyResolvesOracleIdentity(t *testing.T) {
	v := NewVerifier(newStubOracle(), nil)

	p, err := v.Verify(context.Background(), "Bearer alice-token")
	require.NoError(t, err)
	assert.Equal(t, aliceID, p.ID)
	assert.Equal(t, RoleAdmin, p.Role, "role must be canonicalized")
	assert.Equal(t, "alice-token", p.Token)
}

func TestVerifyRejectsBadHeaders(t *testing.T) {
	oracle := newStubOracle()
	v := NewVerifier(oracle, nil)

	for _, header := range []string{"", "alice-token", "Basic alice-token", "Bearer ", "Bearer unknown", "Bearer empty-token"} {
		_, err := v.Verify(context.Background(), header)
		require.Error(t, err, header)
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated), header)

		p, ok := v.VerifyOptional(context.Background(), header)
		assert.False(t, ok, header)
		assert.Empty(t, p.ID)
	}
}

func TestVerifySchemeIsCaseInsensitive(t *testing.T) {
	v := NewVerifier(newStubOracle(), nil)
	p, err := v.Verify(context.Background(), "bearer bob-token")
	require.NoError(t, err)
	assert.Equal(t, bobID, p.ID)
}

func TestVerifyFallsBackToStoredRole(t *testing.T) {
	v := NewVerifier(newStubOracle(), stubRoles{bobID: "ADMIN"})
	p, err := v.Verify(context.Background(), "Bearer bob-token")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, p.Role)

	v = NewVerifier(newStubOracle(), stubRoles{})
	p, err = v.Verify(context.Background(), "Bearer bob-token")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, p.Role)
}

func TestVerifyCallsOracleEveryTime(t *testing.T) {
	oracle := newStubOracle()
	v := NewVerifier(oracle, nil)
	for i := 0; i < 3; i++ {
		_, err := v.Verify(context.Background(), "Bearer bob-token")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, oracle.calls)
}

func TestCanMutate(t *testing.T) {
	cases := []struct {
		name  string
		p     Principal
		owner string
		want  bool
	}{
		{"owner", Principal{ID: aliceID, Role: RoleStaff}, aliceID, true},
		{"other staff", Principal{ID: bobID, Role: RoleStaff}, aliceID, false},
		{"admin lower", Principal{ID: bobID, Role: "admin"}, aliceID, true},
		{"admin mixed case", Principal{ID: bobID, Role: "Admin"}, aliceID, true},
		{"admin upper", Principal{ID: bobID, Role: "ADMIN"}, aliceID, true},
		{"empty principal", Principal{}, "", false},
		{"unknown role", Principal{ID: bobID, Role: "superuser"}, aliceID, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanMutate(tc.p, tc.owner))
			err := RequireMutate(tc.p, tc.owner)
			if tc.want {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(Principal{ID: aliceID, Role: "Admin"}))
	err := RequireAdmin(Principal{ID: bobID, Role: RoleStaff})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTOracle(t *testing.T) {
	oracle := NewJWTOracle("super-secret")
	now := time.Now()

	valid := signToken(t, "super-secret", Claims{
		Email:       "alice@example.com",
		Role:        "authenticated",
		AppMetadata: map[string]any{"role": "admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   aliceID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	ident, err := oracle.Identify(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, aliceID, ident.ID)
	assert.Equal(t, "admin", ident.Role)

	expired := signToken(t, "super-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   aliceID,
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	})
	_, err = oracle.Identify(context.Background(), expired)
	assert.Error(t, err)

	wrongKey := signToken(t, "other-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   aliceID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	_, err = oracle.Identify(context.Background(), wrongKey)
	assert.Error(t, err)

	badSubject := signToken(t, "super-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	_, err = oracle.Identify(context.Background(), badSubject)
	assert.Error(t, err)
}

func TestMetadataRoleIgnoresUserMetadata(t *testing.T) {
	assert.Equal(t, "admin", MetadataRole(map[string]any{"role": "admin"}))
	assert.Equal(t, "", MetadataRole(map[string]any{"role": 7}))
	assert.Equal(t, "", MetadataRole(nil))

	oracle := NewJWTOracle("super-secret")
	tok := signToken(t, "super-secret", Claims{
		UserMetadata: map[string]any{"role": "admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   aliceID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	ident, err := oracle.Identify(context.Background(), tok)
	require.NoError(t, err)
	assert.Empty(t, ident.Role, "self-editable metadata must not grant roles")
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(newStubOracle(), nil)
	var seen Principal
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	v.Authenticate(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bob-token")
	rr = httptest.NewRecorder()
	v.Authenticate(AdminOnly(ok)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr = httptest.NewRecorder()
	v.Authenticate(AdminOnly(ok)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, aliceID, seen.ID)

	seen = Principal{}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	v.OptionalAuthenticate(ok).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, seen.ID)
}
