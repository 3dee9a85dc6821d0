package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/esports-admin/brackets"
	"github.com/Dosada05/esports-admin/handlers"
	"github.com/Dosada05/esports-admin/middleware"
	"github.com/Dosada05/esports-admin/models"
	"github.com/Dosada05/esports-admin/repositories"
	"github.com/Dosada05/esports-admin/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[int]*models.User
	perms map[int][]models.PermissionRecord
}

func (m *memoryUsers) CreateWithPermissions(_ context.Context, user *models.User, records []models.PermissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = len(m.users) + 1
	cp := *user
	m.users[user.ID] = &cp
	m.perms[user.ID] = append([]models.PermissionRecord{}, records...)
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memoryUsers) ListPermissions(_ context.Context, userID int) ([]models.PermissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.PermissionRecord{}, m.perms[userID]...), nil
}

func (m *memoryUsers) ReplacePermissions(_ context.Context, userID int, records []models.PermissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return repositories.ErrUserNotFound
	}
	m.perms[userID] = records
	return nil
}

type memoryTournaments struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
}

func (m *memoryTournaments) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memoryTournaments) ListByIDs(ctx context.Context, ids []int) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0, len(ids))
	for _, id := range ids {
		if t, err := m.GetByID(ctx, id); err == nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memoryTournaments) UpdateBracketConfig(_ context.Context, id int, bt models.BracketType, teamCount int, cfg models.BracketConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BracketType, t.TeamCount, t.Config = bt, teamCount, cfg
	return nil
}

func (m *memoryTournaments) UpdateBracketState(_ context.Context, id int, state json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.State = state
	return nil
}

type testServer struct {
	handler http.Handler
	users   services.UserService
	hub     *brackets.Hub
}

func newTestServer(t *testing.T, loginRate int) *testServer {
	return newTestServerWith(t, Options{
		AllowedOrigins: []string{"*"},
		LoginLimiter:   middleware.NewRateLimiter(loginRate),
	})
}

func newTestServerWith(t *testing.T, opts Options) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Logger = logger

	userRepo := &memoryUsers{users: map[int]*models.User{}, perms: map[int][]models.PermissionRecord{}}
	tournamentRepo := &memoryTournaments{tournaments: map[int]*models.Tournament{
		1: {ID: 1, Name: "Spring Cup", BracketType: models.BracketSingleElimination, TeamCount: 8},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	authService := services.NewAuthService(userRepo, []byte("routes-test"), time.Hour)
	userService := services.NewUserService(userRepo)
	hub := brackets.NewHub(logger)
	go hub.Run(ctx)
	bracketService := services.NewBracketService(tournamentRepo, nil, hub, logger)

	router := chi.NewRouter()
	SetupRoutes(router,
		opts,
		authService,
		userService,
		handlers.NewAuthHandler(authService),
		handlers.NewUserHandler(userService),
		handlers.NewBracketHandler(bracketService),
		handlers.NewWebSocketHandler(hub, opts.AllowedOrigins, logger),
	)
	return &testServer{handler: router, users: userService, hub: hub}
}

func (s *testServer) createUser(t *testing.T, email string, role models.UserRole, perms ...models.PermissionRecord) {
	t.Helper()
	_, err := s.users.CreateUser(context.Background(), services.CreateUserInput{
		Email: email, Password: "password123", Role: role, Permissions: perms,
	})
	require.NoError(t, err)
}

func (s *testServer) do(method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "192.0.2.1:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rr := s.do(http.MethodPost, "/api/v1/auth/login", "", `{"email":"`+email+`","password":"password123"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Token
}

func TestRoutes_PermissionGating(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.createUser(t, "root@example.com", models.RoleAdmin)
	srv.createUser(t, "viewer@example.com", models.RoleUser,
		models.PermissionRecord{Entity: "Tournament", Actions: []models.Action{models.ActionRead}})
	srv.createUser(t, "nobody@example.com", models.RoleUser)

	admin := srv.login(t, "root@example.com")
	viewer := srv.login(t, "viewer@example.com")
	nobody := srv.login(t, "nobody@example.com")

	tests := []struct {
		name, method, target, token, body string
		want                              int
	}{
		{"anonymous", http.MethodGet, "/api/v1/tournaments/1/bracket", "", "", http.StatusUnauthorized},
		{"no grants", http.MethodGet, "/api/v1/tournaments/1/bracket", nobody, "", http.StatusForbidden},
		{"viewer reads", http.MethodGet, "/api/v1/tournaments/1/bracket", viewer, "", http.StatusOK},
		{"viewer batch progress", http.MethodGet, "/api/v1/tournaments/progress?ids=1,2", viewer, "", http.StatusOK},
		{"viewer estimates", http.MethodPost, "/api/v1/brackets/estimate", viewer, `{"bracketType":"swiss","teamCount":16}`, http.StatusOK},
		{"viewer cannot configure", http.MethodPut, "/api/v1/tournaments/1/bracket/config", viewer, `{"bracketType":"swiss","teamCount":16}`, http.StatusForbidden},
		{"viewer cannot edit state", http.MethodPut, "/api/v1/tournaments/1/bracket/state", viewer, `{}`, http.StatusForbidden},
		{"admin configures", http.MethodPut, "/api/v1/tournaments/1/bracket/config", admin, `{"bracketType":"swiss","teamCount":16}`, http.StatusOK},
		{"admin edits state", http.MethodPut, "/api/v1/tournaments/1/bracket/state", admin, `{"swissRounds":[]}`, http.StatusOK},
		{"admin unknown tournament", http.MethodGet, "/api/v1/tournaments/9/bracket", admin, "", http.StatusNotFound},
		{"viewer cannot export", http.MethodPost, "/api/v1/tournaments/1/bracket/export", viewer, "", http.StatusForbidden},
		{"export disabled", http.MethodPost, "/api/v1/tournaments/1/bracket/export", admin, "", http.StatusServiceUnavailable},
		{"viewer cannot read users", http.MethodGet, "/api/v1/users/1", viewer, "", http.StatusForbidden},
		{"admin reads users", http.MethodGet, "/api/v1/users/2", admin, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(tt.method, tt.target, tt.token, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestRoutes_PermissionChangesApplyImmediately(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.createUser(t, "root@example.com", models.RoleAdmin)
	srv.createUser(t, "editor@example.com", models.RoleUser)
	admin := srv.login(t, "root@example.com")
	editor := srv.login(t, "editor@example.com")

	rr := srv.do(http.MethodGet, "/api/v1/tournaments/1/bracket/progress", editor, "")
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = srv.do(http.MethodPut, "/api/v1/users/2/permissions", admin,
		`{"permissions":[{"entity":"Tournament","actions":["read"]}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = srv.do(http.MethodGet, "/api/v1/tournaments/1/bracket/progress", editor, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRoutes_MyPermissions(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.createUser(t, "editor@example.com", models.RoleUser,
		models.PermissionRecord{Entity: "Match", Actions: []models.Action{models.ActionRead, models.ActionUpdate}})
	token := srv.login(t, "editor@example.com")

	rr := srv.do(http.MethodGet, "/api/v1/me/permissions", token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		UserID       int                        `json:"user_id"`
		IsAdmin      bool                       `json:"is_admin"`
		Capabilities map[string]map[string]bool `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.UserID)
	assert.False(t, body.IsAdmin)
	assert.Equal(t, map[string]bool{"create": false, "read": true, "update": true, "delete": false}, body.Capabilities["Match"])
	assert.False(t, body.Capabilities["Team"]["read"])
	assert.Len(t, body.Capabilities, 10)
}

func TestRoutes_LoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	body := `{"email":"ghost@example.com","password":"nope-nope"}`

	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodPost, "/api/v1/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodPost, "/api/v1/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, srv.do(http.MethodPost, "/api/v1/auth/login", "", body).Code)
}

func TestRoutes_LoginLimitIgnoresUntrustedForwardedHeaders(t *testing.T) {
	srv := newTestServer(t, 2)
	body := `{"email":"ghost@example.com","password":"nope-nope"}`

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.RemoteAddr = "192.0.2.1:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		rr := httptest.NewRecorder()
		srv.handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestRoutes_LoginLimitTrustsConfiguredProxy(t *testing.T) {
	srv := newTestServerWith(t, Options{
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("192.0.2.0/24")},
		LoginLimiter:   middleware.NewRateLimiter(1),
	})
	body := `{"email":"ghost@example.com","password":"nope-nope"}`
	login := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.RemoteAddr = "192.0.2.1:5555"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rr := httptest.NewRecorder()
		srv.handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusUnauthorized, login("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("203.0.113.1"))
	assert.Equal(t, http.StatusUnauthorized, login("203.0.113.2"), "clients behind the proxy are told apart")
}

func TestRoutes_CORSRefusesOriginsByDefault(t *testing.T) {
	srv := newTestServerWith(t, Options{LoginLimiter: middleware.NewRateLimiter(10)})

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	srv.handler.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	allowed := newTestServerWith(t, Options{
		AllowedOrigins: []string{"https://admin.example.com"},
		LoginLimiter:   middleware.NewRateLimiter(10),
	})
	req = httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rr = httptest.NewRecorder()
	allowed.handler.ServeHTTP(rr, req)
	assert.Equal(t, "https://admin.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRoutes_WebSocketRequiresTournamentRead(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.createUser(t, "root@example.com", models.RoleAdmin)
	srv.createUser(t, "viewer@example.com", models.RoleUser,
		models.PermissionRecord{Entity: "Tournament", Actions: []models.Action{models.ActionRead}})
	srv.createUser(t, "nobody@example.com", models.RoleUser)
	admin := srv.login(t, "root@example.com")
	viewer := srv.login(t, "viewer@example.com")
	nobody := srv.login(t, "nobody@example.com")

	ts := httptest.NewServer(srv.handler)
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/tournaments/1"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + nobody}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// браузерный вариант: токен в подпротоколе
	dialer := websocket.Dialer{Subprotocols: []string{middleware.WebSocketAuthProtocol, viewer}}
	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, middleware.WebSocketAuthProtocol, resp.Header.Get("Sec-WebSocket-Protocol"))

	room := brackets.TournamentRoom(1)
	require.Eventually(t, func() bool { return srv.hub.ClientCount(room) == 1 }, time.Second, 5*time.Millisecond)

	rr := srv.do(http.MethodPut, "/api/v1/tournaments/1/bracket/config", admin, `{"bracketType":"swiss","teamCount":16}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), brackets.MessageBracketUpdated)
}

func TestRoutes_SwaggerAndNotFound(t *testing.T) {
	srv := newTestServer(t, 10)

	rr := srv.do(http.MethodGet, "/swagger/doc.json", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/brackets/estimate")

	rr = srv.do(http.MethodGet, "/api/v1/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
