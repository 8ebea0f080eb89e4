/**
 * @description
 * This file contains custom middleware for the HTTP router. The operator auth
 * middleware validates the admin panel's JWT and places the acting operator's
 * identity and roles on the request context for handlers to forward to the
 * Flash API.
 *
 * @dependencies
 * - context, fmt, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Token validation.
 * - internal/domain: The Operator model.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lnflash/admin-service/internal/domain"
)

// OperatorContextKey is a custom type for the context key to avoid collisions.
type OperatorContextKey string

const operatorKey OperatorContextKey = "operator"

// OperatorAuthMiddleware creates a middleware that validates the admin
// panel's HS256 JWT and extracts the operator identity from its claims.
func OperatorAuthMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(signingSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			subject, ok := claims["sub"].(string)
			if !ok || subject == "" {
				http.Error(w, "Operator ID not found in token", http.StatusUnauthorized)
				return
			}

			operator := domain.Operator{ID: subject}
			if rawRoles, ok := claims["roles"].([]interface{}); ok {
				for _, rawRole := range rawRoles {
					if role, ok := rawRole.(string); ok {
						operator.Roles = append(operator.Roles, role)
					}
				}
			}

			ctx := context.WithValue(r.Context(), operatorKey, operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorFromContext retrieves the authenticated operator from the context.
func OperatorFromContext(ctx context.Context) (domain.Operator, bool) {
	operator, ok := ctx.Value(operatorKey).(domain.Operator)
	return operator, ok
}
