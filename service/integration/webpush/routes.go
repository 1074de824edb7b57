package webpush

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(router chi.Router, handlers *Handlers, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/webpush/subscriptions", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", handlers.HandleRegister)
		r.Delete("/{subscriptionId}", handlers.HandleUnregister)
	})
}
