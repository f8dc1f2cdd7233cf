// Package api wires the HTTP trigger surface.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/fishandtips/newsletter/routehandlers"
	"github.com/fishandtips/newsletter/session"
	"github.com/fishandtips/newsletter/webutil"
)

const requestTimeout = 60 * time.Second

// SetupRoutes builds the router. Everything under /api requires a
// verified session; /healthz is open.
func SetupRoutes(
	newsletterHandler *rh.NewsletterHandler,
	schedulerHandler *rh.SchedulerHandler,
	sessionSecret []byte,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Use(session.Require(sessionSecret))

		r.Route("/newsletter", func(r chi.Router) {
			r.Post("/send", webutil.MakeHandler(newsletterHandler.HandleSend))
			r.Get("/send", webutil.MakeHandler(newsletterHandler.HandleSendTest))
		})

		r.Route("/scheduler", func(r chi.Router) {
			r.Post("/test", webutil.MakeHandler(schedulerHandler.HandleAction))
			r.Get("/test", webutil.MakeHandler(schedulerHandler.HandleStats))
		})
	})

	r.Get("/healthz", handleHealthCheck)

	return r
}

func handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
