package middleware

import (
	"net/http"
	"strings"
)

// WebSocketAuthProtocol is the subprotocol browsers offer together with their token:
// new WebSocket(url, ["bearer", token]).
const WebSocketAuthProtocol = "bearer"

// WebSocketToken lifts a token offered through Sec-WebSocket-Protocol into the
// Authorization header so Authenticate can verify it. Browsers cannot set headers on a
// websocket handshake, and query strings end up in access logs.
func WebSocketToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if token, ok := subprotocolToken(r); ok {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func subprotocolToken(r *http.Request) (string, bool) {
	var offered []string
	for _, h := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(h, ",") {
			if p = strings.TrimSpace(p); p != "" {
				offered = append(offered, p)
			}
		}
	}
	for i := 0; i+1 < len(offered); i++ {
		if strings.EqualFold(offered[i], WebSocketAuthProtocol) {
			return offered[i+1], true
		}
	}
	return "", false
}
