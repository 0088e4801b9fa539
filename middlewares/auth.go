package middlewares

import (
	"context"
	"net/http"
	"strings"

	"crm/schemas"
	"crm/utils"
)

type contextKey string

const UserContextKey = contextKey("crm_user")

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(token string) (schemas.Actor, error)
}

// TokenFromRequest reads the token from x-auth-token, falling back to an
// Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get("x-auth-token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Auth rejects requests without a valid token and stores the caller in the
// request context.
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				utils.SendResponse(w, http.StatusUnauthorized, "No token, authorization denied", nil, 0)
				return
			}
			actor, err := auth.Authenticate(token)
			if err != nil {
				utils.SendResponse(w, http.StatusUnauthorized, "Token is not valid", nil, 0)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor returns the caller stored by Auth.
func GetActor(ctx context.Context) (schemas.Actor, bool) {
	actor, ok := ctx.Value(UserContextKey).(schemas.Actor)
	return actor, ok
}

// WithActor stores actor in ctx the way Auth does.
func WithActor(ctx context.Context, actor schemas.Actor) context.Context {
	return context.WithValue(ctx, UserContextKey, actor)
}

// RequireActor returns the caller stored by Auth, answering 401 when the
// route was mounted without it.
func RequireActor(w http.ResponseWriter, r *http.Request) (schemas.Actor, bool) {
	actor, ok := GetActor(r.Context())
	if !ok {
		utils.SendResponse(w, http.StatusUnauthorized, "No token, authorization denied", nil, 0)
	}
	return actor, ok
}
