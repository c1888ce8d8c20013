package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey int

const userKey contextKey = 0

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = 30 * 24 * time.Hour

// IssueToken signs an access token for the given user.
func IssueToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString(secret)
}

func parseToken(secret []byte, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return secret, nil
	})
	if err != nil {
		return "", err
	}

	return parsed.Claims.(*jwt.RegisteredClaims).Subject, nil
}

// Auth extracts the acting user from the Authorization header and puts it into
// the request context. Requests without a valid token pass through as guests,
// handlers that need an identity use RequireAuth on top.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				if userID, err := parseToken(secret, strings.TrimPrefix(header, "Bearer ")); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), userKey, userID))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects guests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authorization required"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserID returns the acting user id put into ctx by Auth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey).(string)

	return id, ok
}
