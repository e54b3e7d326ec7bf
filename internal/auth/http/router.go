package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/service"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/pkg/httpx"
	"github.com/instamakaan/makaan/pkg/jwtx"
	"github.com/instamakaan/makaan/pkg/slogx"

	_ "github.com/instamakaan/makaan/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// Limits defaults to the httpx profiles. Set before ApplyRoutes.
	Limits RateLimits
	// TrustedProxies may report the client address in X-Forwarded-For.
	// Empty keys every limiter on the socket peer. Set before ApplyRoutes.
	TrustedProxies httpx.TrustedProxies

	store        store.Store
	AuthService  *service.AuthService
	UserService  *service.UserService
	AuditService *service.AuditService
	Guard        *service.Guard
}

// RateLimits selects the limiter profile for each class of endpoint.
type RateLimits struct {
	Strict   httpx.RateLimitConfig // register, login, admin login
	Moderate httpx.RateLimitConfig // refresh, logout, admin mutations
	Lenient  httpx.RateLimitConfig // authenticated reads
	Public   httpx.RateLimitConfig // health probes and docs
}

// DefaultRateLimits returns the httpx profiles, including RATELIMIT_* overrides.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
		Public:   httpx.PublicLimit,
	}
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		Limits:       DefaultRateLimits(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RateLimitByIP(r.Limits.Public, r.TrustedProxies.ClientIP),
	))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Makaan Authentication Service API
//	@version		0.1.0
//	@description	Email and password authentication for InstaMakaan. Access tokens are HS256 JWTs
//	@description	carrying the user id as "sub". Refresh tokens are single use and rotate on every refresh.
//
//	@contact.name				InstaMakaan Team
//	@contact.url				https://github.com/instamakaan/makaan
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints - strict limit by client IP, and again by IP + email
	credentials := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.RateLimitByIP(r.Limits.Strict, r.TrustedProxies.ClientIP),
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, r.TrustedProxies.ClientIP, "email"),
		)
	}

	r.Mux.Handle("POST /auth/register", credentials(h.HandleRegister))
	r.Mux.Handle("POST /auth/login", credentials(h.HandleLogin))
	r.Mux.Handle("POST /auth/admin/login", credentials(h.HandleAdminLogin))

	// Token endpoints - moderate limit by IP
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.Limits.Moderate, r.TrustedProxies.ClientIP),
		),
	)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(r.Limits.Moderate, r.TrustedProxies.ClientIP),
		),
	)
}

func (r *Router) registerUsers() {
	// Any authenticated role - lenient limit by user
	r.Mux.Handle("GET /auth/me", r.protect(
		httpx.Chain(&MeHandler{}, httpx.RateLimitByUser(r.Limits.Lenient, r.TrustedProxies.ClientIP)),
	))
}

func (r *Router) registerAdmin() {
	admin := domain.RoleAdmin.String()

	// PUT /admin/users/{id}/role - moderate limit by user (admin mutation)
	r.Mux.Handle("PUT /admin/users/{id}/role", r.protect(
		httpx.Chain(&RoleChangeHandler{UserService: r.UserService},
			httpx.RateLimitByUser(r.Limits.Moderate, r.TrustedProxies.ClientIP),
		),
		admin,
	))

	// GET /admin/audit - lenient limit by user (admin read)
	r.Mux.Handle("GET /admin/audit", r.protect(
		httpx.Chain(&AuditHandler{AuditService: r.AuditService},
			httpx.RateLimitByUser(r.Limits.Lenient, r.TrustedProxies.ClientIP),
		),
		admin,
	))
}

func (r *Router) registerSystem() {
	h := &HealthHandler{
		StartTime: r.startTime,
		Version:   r.buildVersion,
		Store:     r.store,
		Keys:      r.keys,
	}

	// Probes - public limits, monitoring systems poll frequently
	public := httpx.RateLimitByIP(r.Limits.Public, r.TrustedProxies.ClientIP)
	r.Mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(h.HandleLivez), public))
	r.Mux.Handle("GET /readyz", httpx.Chain(http.HandlerFunc(h.HandleReadyz), public))
}
