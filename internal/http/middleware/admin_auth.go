package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// AdminIssuer is the issuer stamped on operator tokens.
const AdminIssuer = "hijama-dm-responder"

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// AdminJWT guards admin endpoints with an HS256 token issued by
// IssueAdminToken. An empty secret disables every admin route.
func AdminJWT(secret string, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(AdminIssuer),
		jwt.WithExpirationRequired(),
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := jwt.RegisteredClaims{}
			token, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				logger.Warn("admin token rejected", "path", r.URL.Path, "expired", errors.Is(err, jwt.ErrTokenExpired))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// IssueAdminToken signs an operator token for subject valid for ttl.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("middleware: admin secret is empty")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("middleware: subject is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    AdminIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("middleware: sign admin token: %w", err)
	}
	return signed, nil
}

// AdminSubject returns the operator named by the request's admin token.
func AdminSubject(ctx context.Context) (string, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(jwt.RegisteredClaims)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}
