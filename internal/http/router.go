package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clicimobiliaria/crm/internal/config"
	"github.com/clicimobiliaria/crm/internal/contatos"
	"github.com/clicimobiliaria/crm/internal/fases"
	httpmiddleware "github.com/clicimobiliaria/crm/internal/http/middleware"
	"github.com/clicimobiliaria/crm/internal/repo"
	"github.com/clicimobiliaria/crm/internal/service"
	"github.com/clicimobiliaria/crm/internal/tenant"
)

// Handler agrega serviços expostos pela API.
type Handler struct {
	cfg           *config.Config
	authService   *service.AuthService
	tenants       *tenant.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, error) {
	tenantRepo := tenant.NewRepository(pool)
	tenantService := tenant.NewService(tenantRepo)

	queries := repo.New(pool)
	rbac := service.NewRBACService(queries)

	fasesRepo := fases.NewRepository(pool)
	fasesService := fases.NewService(fasesRepo, redisClient, cfg.RankingCacheTTL)

	contatosRepo := contatos.NewRepository(pool)
	contatosService := contatos.NewService(contatosRepo)

	fasesHandler := fases.NewHandler(fasesService, contatosService)

	h := &Handler{
		cfg:           cfg,
		authService:   authService,
		tenants:       tenantService,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "banco indisponível", nil)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// Rotas públicas com limite por IP.
	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.IPRateLimit(h.publicLimiter))
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/refresh", h.handleRefresh)
		r.Post("/auth/logout", h.handleLogout)
	})

	// Rotas autenticadas.
	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.Auth(authService.JWT()))
		r.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		r.Get("/me", h.handleMe)

		r.Route("/tenants", func(r chi.Router) {
			r.Use(httpmiddleware.RequireAdmin)
			r.Get("/", h.handleListTenants)
			r.Post("/", h.handleCreateTenant)
			r.Put("/{id}/settings", h.handleUpdateTenantSettings)
		})

		// Rotas escopadas por imobiliária (header X-Tenant).
		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.Scope(rbac))
			fases.Mount(r, fasesHandler)
		})
	})

	return r, nil
}
