package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/esports-admin/models"
	"github.com/Dosada05/esports-admin/permissions"
	"github.com/Dosada05/esports-admin/services"
)

type TokenParser interface {
	ParseToken(tokenString string) (*services.TokenClaims, error)
}

type EngineLoader interface {
	LoadEngine(ctx context.Context, userID int) (*permissions.Engine, error)
}

// Authenticate verifies the bearer token and attaches the user's permission engine to the
// request context. The engine is rebuilt on every request so permission edits apply
// immediately.
func Authenticate(tokens TokenParser, users EngineLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.ParseToken(tokenString)
			if err != nil {
				logger.Debug("rejected token", slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			engine, err := users.LoadEngine(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, services.ErrUserNotFound) {
					writeError(w, http.StatusUnauthorized, "user no longer exists")
					return
				}
				logger.Error("failed to load permissions",
					slog.Int("user_id", claims.UserID),
					slog.Any("error", err),
				)
				writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims.UserID, engine)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequirePermission lets the request through only when the session's engine grants
// action on entity.
func RequirePermission(entity string, action models.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !EngineFromContext(r.Context()).HasPermission(entity, action) {
				writeError(w, http.StatusForbidden, "you do not have permission to "+string(action)+" "+entity)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
