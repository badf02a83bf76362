package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apiContext "notably/internal/api/context"
	"notably/internal/pkg/errors"
	"notably/internal/platform/auth"
)

type AuthMiddleware struct {
	tokenSvc *auth.TokenService
}

func NewAuthMiddleware(tokenSvc *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Access denied. No token provided.", nil)
			return
		}

		// Bearer prefix is the documented format but a bare token is tolerated
		token = strings.TrimPrefix(token, "Bearer ")
		if token == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Access denied. Invalid token format.", nil)
			return
		}

		claims, err := m.tokenSvc.ValidateToken(token)
		if err != nil {
			message := "Invalid token"
			if stderrors.Is(err, jwt.ErrTokenExpired) {
				message = "Token expired"
			}
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, message, nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		next(w, r.WithContext(ctx))
	}
}
