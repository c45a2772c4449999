package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lodgeworks/backoffice/internal/admin/domain"
	"github.com/lodgeworks/backoffice/internal/admin/service"
	"github.com/lodgeworks/backoffice/internal/admin/store"
	"github.com/lodgeworks/backoffice/pkg/httpx"
	"github.com/lodgeworks/backoffice/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookies      CookieSettings

	store               store.Store
	AuthService         *service.AuthService
	TwoFactorService    *service.TwoFactorService
	AccountService      *service.AccountService
	VerificationService *service.VerificationService
	TenantService       *service.TenantService
	Audit               *service.AuditRecorder
}

func NewRouter(buildVersion string, st store.Store, cookies CookieSettings, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		cookies:      cookies,
		store:        st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTwoFactor()
	r.registerAccounts("/root-users", domain.PoolRoot)
	r.registerAccounts("/users", domain.PoolTenant)
	r.registerTenants()
	r.registerAudit()
	r.registerSystem()
}

// ServeHTTP applies the global middleware chain in front of the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// session resolves the cookie on every route that can use it; the guards
// are layered per route group.
func (r *Router) session() httpx.Middleware {
	return SessionMiddleware(r.AuthService)
}

// secured is the full guard stack for admin resources: a session must
// exist, its second factor must be verified, and the account must have
// completed enrollment. The guard order keeps the responses precise: no
// session is always 401, an enabled-but-unverified factor is 403
// two_factor_required, and an unenrolled account is 403
// two_factor_setup_required.
func (r *Router) secured(h http.Handler, limit httpx.Middleware) http.Handler {
	return httpx.Chain(h,
		r.session(),
		RequireSession(),
		RequireTwoFactorVerified(),
		RequireTwoFactorEnrolled(),
		limit,
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService:         r.AuthService,
		VerificationService: r.VerificationService,
		Cookies:             r.cookies,
	}

	// The strict login limit is keyed by IP plus the submitted email.
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	// The second-factor endpoints need a pending session but must stay
	// reachable before verification, so they carry only RequireSession.
	r.Mux.Handle("POST /auth/verify-2fa",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyTOTP),
			r.session(),
			RequireSession(),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/verify-recovery",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyRecovery),
			r.session(),
			RequireSession(),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.session(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.session(),
			RequireSession(),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// Public: the caller holds only the emailed token, no session yet.
	r.Mux.Handle("POST /auth/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTwoFactor() {
	h := &TwoFactorHandler{TwoFactorService: r.TwoFactorService}

	// Setup and confirm run before the account has a working second factor,
	// so they cannot sit behind the verified/enrolled guards.
	r.Mux.Handle("GET /auth/2fa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			r.session(),
			RequireSession(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /auth/2fa/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			r.session(),
			RequireSession(),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /auth/2fa/status",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			r.session(),
			RequireSession(),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAccounts(prefix string, pool domain.Pool) {
	h := &AccountsHandler{
		Pool:                pool,
		AccountService:      r.AccountService,
		VerificationService: r.VerificationService,
	}

	reads := httpx.RateLimitByUser(httpx.LenientLimit)
	writes := httpx.RateLimitByUser(httpx.ModerateLimit)

	r.Mux.Handle("POST "+prefix, r.secured(http.HandlerFunc(h.HandleCreate), writes))
	r.Mux.Handle("GET "+prefix, r.secured(http.HandlerFunc(h.HandleList), reads))
	r.Mux.Handle("GET "+prefix+"/{id}", r.secured(http.HandlerFunc(h.HandleGet), reads))
	r.Mux.Handle("PATCH "+prefix+"/{id}", r.secured(http.HandlerFunc(h.HandleUpdate), writes))
	r.Mux.Handle("DELETE "+prefix+"/{id}", r.secured(http.HandlerFunc(h.HandleDelete), writes))
	r.Mux.Handle("PATCH "+prefix+"/{id}/deactivate", r.secured(http.HandlerFunc(h.HandleDeactivate), writes))
	r.Mux.Handle("PATCH "+prefix+"/{id}/activate", r.secured(http.HandlerFunc(h.HandleActivate), writes))
	r.Mux.Handle("PATCH "+prefix+"/{id}/password", r.secured(http.HandlerFunc(h.HandleChangePassword), writes))
	r.Mux.Handle("POST "+prefix+"/{id}/resend-verification", r.secured(http.HandlerFunc(h.HandleResendVerification), writes))
}

func (r *Router) registerTenants() {
	h := &TenantsHandler{TenantService: r.TenantService}

	reads := httpx.RateLimitByUser(httpx.LenientLimit)
	writes := httpx.RateLimitByUser(httpx.ModerateLimit)

	r.Mux.Handle("POST /tenants", r.secured(http.HandlerFunc(h.HandleCreate), writes))
	r.Mux.Handle("GET /tenants", r.secured(http.HandlerFunc(h.HandleList), reads))
	r.Mux.Handle("GET /tenants/{id}", r.secured(http.HandlerFunc(h.HandleGet), reads))
	r.Mux.Handle("PATCH /tenants/{id}", r.secured(http.HandlerFunc(h.HandleUpdate), writes))
	r.Mux.Handle("DELETE /tenants/{id}", r.secured(http.HandlerFunc(h.HandleDelete), writes))
	r.Mux.Handle("POST /tenants/{id}/admin", r.secured(http.HandlerFunc(h.HandleCreateAdmin), writes))
	r.Mux.Handle("GET /tenants/{id}/admin", r.secured(http.HandlerFunc(h.HandleGetAdmin), reads))
}

func (r *Router) registerAudit() {
	h := &AuditHandler{Audit: r.Audit}
	r.Mux.Handle("GET /audit-logs",
		r.secured(http.HandlerFunc(h.HandleList), httpx.RateLimitByUser(httpx.LenientLimit)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
