package middleware

import (
	"context"
	"net/http"
	"strings"

	"dawaam/internal/domain/auth"
)

type ctxKeyType string

const ctxKeyAccount ctxKeyType = "account"

// Auth parses a bearer token when present and attaches the account context.
// Requests without a valid token pass through anonymously; route guards
// decide whether that is acceptable.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAccount, auth.AccountContext{
				AccountID: claims.AccountID,
				Role:      claims.Role,
				SessionID: claims.SessionID,
				Email:     claims.Subject,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAccount(ctx context.Context) (auth.AccountContext, bool) {
	account, ok := ctx.Value(ctxKeyAccount).(auth.AccountContext)
	return account, ok
}
