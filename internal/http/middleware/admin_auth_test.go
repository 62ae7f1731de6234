package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func runAdmin(t *testing.T, secret, header string) (*httptest.ResponseRecorder, *AdminClaims) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()

	var seen *AdminClaims
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := AdminClaimsFromContext(r.Context()); ok {
			seen = &c
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, seen
}

func TestAdminJWTMissingSecret(t *testing.T) {
	rec, _ := runAdmin(t, "", "Bearer "+signedAdminToken(t, "secret", "admin", time.Minute))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTMissingHeader(t *testing.T) {
	rec, _ := runAdmin(t, "secret", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header")
	}
}

func TestAdminJWTRejectsBadTokens(t *testing.T) {
	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{Role: "admin"})
	noExpiryToken, err := noExpiry.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	cases := map[string]string{
		"wrong secret": signedAdminToken(t, "wrong", "admin", time.Minute),
		"expired":      signedAdminToken(t, "secret", "admin", -time.Minute),
		"no expiry":    noExpiryToken,
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _ := runAdmin(t, "secret", "Bearer "+token)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}
}

func TestAdminJWTRejectsOtherRoles(t *testing.T) {
	rec, _ := runAdmin(t, "secret", "Bearer "+signedAdminToken(t, "secret", "receptionist", time.Minute))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	rec, claims := runAdmin(t, "secret", "Bearer "+signedAdminToken(t, "secret", "admin", 5*time.Minute))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if claims == nil || claims.Subject != "ops-user" {
		t.Fatalf("expected admin claims in context, got %+v", claims)
	}
}

func signedAdminToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	claims := AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
