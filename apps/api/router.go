package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	activitieshandler "github.com/tourbase-hq/reservations/domains/activities/be/handler"
	authhandler "github.com/tourbase-hq/reservations/domains/auth/be/handler"
	companieshandler "github.com/tourbase-hq/reservations/domains/companies/be/handler"
	invitationshandler "github.com/tourbase-hq/reservations/domains/invitations/be/handler"
	usershandler "github.com/tourbase-hq/reservations/domains/users/be/handler"
	platformauth "github.com/tourbase-hq/reservations/platform/go/auth"
	platformlogging "github.com/tourbase-hq/reservations/platform/go/logging"
	"github.com/tourbase-hq/reservations/platform/go/metrics"
	platformmiddleware "github.com/tourbase-hq/reservations/platform/go/middleware"
	"github.com/tourbase-hq/reservations/platform/go/policy"
)

// routerDeps gathers everything newRouter needs so tests can assemble the full
// HTTP surface on in-memory repositories.
type routerDeps struct {
	logger         *zap.Logger
	verify         platformauth.VerifyFunc
	requestTimeout time.Duration

	auth        *authhandler.Handler
	companies   *companieshandler.Handler
	invitations *invitationshandler.Handler
	users       *usershandler.Handler
	activities  *activitieshandler.Handler
}

func newRouter(d routerDeps) chi.Router {
	root := chi.NewRouter()

	root.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(d.requestTimeout),
		platformmiddleware.DefaultCORS(),
	)
	root.Use(platformlogging.RequestLogger(d.logger))
	root.Use(metrics.Middleware)

	root.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	root.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	root.Handle("/metrics", metrics.Handler())

	api := chi.NewRouter()
	api.Use(platformauth.Middleware(d.verify))
	api.Use(platformmiddleware.RequestTrace)

	d.auth.Routes(api)
	d.companies.Routes(api)

	// Everything under a company passes the tenant guard exactly once, here.
	guarded := func(routes func(chi.Router)) func(chi.Router) {
		return func(r chi.Router) {
			r.Use(policy.Guard())
			routes(r)
		}
	}
	api.Route("/companies/{companyID}/users", guarded(d.users.Routes))
	api.Route("/companies/{companyID}/invitations", guarded(d.invitations.Routes))
	api.Route("/companies/{companyID}/activities", guarded(d.activities.Routes))
	api.With(policy.Guard()).Get("/companies/{companyID}/guides", d.users.GuideOptions)

	root.Mount("/api/v1", api)

	return root
}
