package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"code2deploy-console/internal/config"
	"code2deploy-console/internal/handler"
	"code2deploy-console/internal/middleware"
	"code2deploy-console/internal/model"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Activity *handler.ActivityHandler
	Drafts   *handler.DraftHandler
	Docs     *handler.DocsHandler
	Health   *handler.HealthHandler

	// Admin resources mount under /api/v1/admin/{name}; Me resources are
	// the signed-in user's own collections under /api/v1/me/{name}.
	Admin []handler.Mountable
	Me    []handler.Mountable
}

func New(cfg *config.Config, logger *slog.Logger, sessions *middleware.SessionMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.ClientIP(cfg.TrustedProxyNets))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Head("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/swagger", h.Docs.SwaggerUI)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(rateLimitMiddleware.Handler)
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Auth.Login)
			auth.Post("/signup", h.Auth.Signup)
			auth.Post("/logout", h.Auth.Logout)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.Get("/status", h.Auth.Status)
			auth.Post("/password/reset", h.Auth.RequestPasswordReset)
			auth.Post("/password/reset/confirm", h.Auth.ResetPassword)
			auth.Post("/confirm-email", h.Auth.ConfirmEmail)
			auth.Post("/resend-confirmation", h.Auth.ResendConfirmation)
		})

		api.Group(func(authed chi.Router) {
			authed.Use(sessions.RequireSession)

			authed.Get("/dashboard", h.Auth.Dashboard)

			authed.Route("/me", func(me chi.Router) {
				me.Get("/", h.Auth.Me)
				me.Patch("/", h.Auth.UpdateProfile)
				me.Post("/avatar", h.Auth.UploadAvatar)
				me.Post("/password", h.Auth.ChangePassword)
				me.Post("/delete", h.Auth.RequestAccountDeletion)
				me.Get("/export", h.Auth.ExportData)

				for _, res := range h.Me {
					me.Mount("/"+res.Name(), res.Routes())
				}
			})

			authed.Route("/admin", func(admin chi.Router) {
				admin.Use(sessions.RequireRoles(model.RoleAdmin))

				admin.Get("/activity", h.Activity.List)
				admin.Route("/pages/{key}/draft", func(pages chi.Router) {
					pages.Get("/", h.Drafts.Get)
					pages.Put("/", h.Drafts.Save)
					pages.Delete("/", h.Drafts.Delete)
				})

				for _, res := range h.Admin {
					admin.Mount("/"+res.Name(), res.Routes())
				}
			})
		})
	})

	return r
}
