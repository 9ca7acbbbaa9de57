package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		app.Http.Response(w, r, nil, "", http.StatusMethodNotAllowed)
	})
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.CORS)
	router.Use(app.RateLimiter)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", app.listMovies)
			r.Post("/", app.createMovie)
			r.Get("/featured", app.featuredMovies)
			r.Get("/search", app.searchMovies)
			r.Delete("/", app.deleteMovies)
			r.Get("/{id}", app.getMovie)
			r.Patch("/{id}", app.updateMovie)
			r.Delete("/{id}", app.deleteMovie)
			r.Get("/{id}/related", app.relatedMovies)
			r.Put("/{id}/video", app.uploadVideo)
		})
		r.Get("/plans", app.listPlans)
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/signup", app.signup)
			r.Post("/login", app.login)
			r.Post("/logout", app.logout)
			r.Get("/session", app.session)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", app.listUsers)
			r.Get("/{id}", app.getUser)
			r.Patch("/{id}", app.updateUser)
			r.Delete("/{id}", app.deleteUser)
		})
		r.Group(func(r chi.Router) {
			r.Use(app.requireSession)
			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", app.startCheckout)
				r.Get("/{checkoutID}", app.getCheckout)
				r.Delete("/{checkoutID}", app.cancelCheckout)
				r.Put("/{checkoutID}/account", app.setCheckoutAccount)
				r.Put("/{checkoutID}/payment", app.setCheckoutPayment)
				r.Put("/{checkoutID}/terms", app.setCheckoutTerms)
				r.Post("/{checkoutID}/promo", app.applyPromoCode)
				r.Post("/{checkoutID}/next", app.nextCheckoutStep)
				r.Post("/{checkoutID}/previous", app.previousCheckoutStep)
				r.Post("/{checkoutID}/complete", app.completeCheckout)
			})
			r.Post("/gifts", app.sendGift)
			r.Route("/progress", func(r chi.Router) {
				r.Get("/", app.continueWatching)
				r.Get("/{id}", app.resumePosition)
				r.Put("/{id}", app.saveProgress)
				r.Delete("/{id}", app.forgetProgress)
			})
		})
		r.Route("/admin", func(r chi.Router) {
			r.Get("/stats", app.adminStats)
			r.Get("/report", app.adminReport)
			r.Get("/export", app.exportData)
			r.Post("/import", app.importData)
		})
	})
	return router
}
