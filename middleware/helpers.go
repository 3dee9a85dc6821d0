package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dosada05/esports-admin/permissions"
)

type contextKey string

const (
	userIDContextKey contextKey = "user_id"
	engineContextKey contextKey = "permission_engine"
)

var ErrNoSession = errors.New("no authenticated user in context")

func withSession(ctx context.Context, userID int, engine *permissions.Engine) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	return context.WithValue(ctx, engineContextKey, engine)
}

func GetUserIDFromContext(ctx context.Context) (int, error) {
	userID, ok := ctx.Value(userIDContextKey).(int)
	if !ok || userID <= 0 {
		return 0, ErrNoSession
	}
	return userID, nil
}

// EngineFromContext returns the permission engine of the current request. Without a
// session the result is nil, which denies everything.
func EngineFromContext(ctx context.Context) *permissions.Engine {
	engine, _ := ctx.Value(engineContextKey).(*permissions.Engine)
	return engine
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
