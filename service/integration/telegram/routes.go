package telegram

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(router chi.Router, handlers *Handlers, auth func(http.Handler) http.Handler) {
	if handlers == nil {
		return
	}

	router.Route("/api/v1/telegram", func(r chi.Router) {
		r.Use(auth)
		r.Get("/bot", handlers.HandleBot)
		r.Post("/subscriptions", handlers.HandleRegister)
		r.Delete("/subscriptions/{subscriptionId}", handlers.HandleUnregister)
	})
}
