package routes

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	_ "github.com/Dosada05/esports-admin/docs"
	"github.com/Dosada05/esports-admin/handlers"
	"github.com/Dosada05/esports-admin/middleware"
	"github.com/Dosada05/esports-admin/models"
	"github.com/Dosada05/esports-admin/permissions"
	"github.com/Dosada05/esports-admin/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// AllowedOrigins lists browser origins for CORS; empty refuses every cross-origin request.
	AllowedOrigins []string
	TrustedProxies []netip.Prefix
	LoginLimiter   *middleware.RateLimiter
	Logger         *slog.Logger
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	authService services.AuthService,
	userService services.UserService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	bracketHandler *handlers.BracketHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TrustedRealIP(opts.TrustedProxies))
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(corsOptions(opts.AllowedOrigins)))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	loginLimiter := opts.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.NewRateLimiter(10)
	}
	authenticate := middleware.Authenticate(authService, userService, logger)
	can := middleware.RequirePermission

	// без Timeout: соединение живёт долго
	router.With(
		middleware.WebSocketToken,
		authenticate,
		can(permissions.EntityTournament, models.ActionRead),
	).Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Route("/api/v1", func(r chi.Router) {
		r.With(loginLimiter.Handler).Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))
			r.Use(authenticate)

			r.Get("/me/permissions", userHandler.MyPermissions)

			r.With(can(permissions.EntityTournament, models.ActionRead)).Post("/brackets/estimate", bracketHandler.Estimate)

			r.Route("/tournaments", func(r chi.Router) {
				r.With(can(permissions.EntityTournament, models.ActionRead)).Get("/progress", bracketHandler.ListProgress)

				r.Route("/{tournamentID}/bracket", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(can(permissions.EntityTournament, models.ActionRead))
						r.Get("/", bracketHandler.GetOverview)
						r.Get("/progress", bracketHandler.GetProgress)
					})
					r.Group(func(r chi.Router) {
						r.Use(can(permissions.EntityTournament, models.ActionUpdate))
						r.Post("/export", bracketHandler.Export)
						r.Put("/config", bracketHandler.SaveConfig)
						r.Post("/generate", bracketHandler.Generate)
					})
					r.With(can(permissions.EntityMatch, models.ActionUpdate)).Put("/state", bracketHandler.SaveState)
					r.With(can(permissions.EntityTournament, models.ActionDelete)).Delete("/exports/{exportID}", bracketHandler.DeleteExport)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.With(can(permissions.EntityUser, models.ActionCreate)).Post("/", userHandler.CreateUser)
				r.With(can(permissions.EntityUser, models.ActionRead)).Get("/{userID}", userHandler.GetUser)
				r.With(can(permissions.EntityUser, models.ActionUpdate)).Put("/{userID}/permissions", userHandler.SetPermissions)
			})
		})
	})
}

func corsOptions(origins []string) cors.Options {
	o := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}
	// пустой список в go-chi/cors означает "все источники"
	if len(origins) == 0 {
		o.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	anyOrigin := false
	for _, origin := range origins {
		if origin == "*" {
			anyOrigin = true
		}
	}
	o.AllowCredentials = len(origins) > 0 && !anyOrigin
	return o
}
