package quotes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tradesphere/tradesphere-crm/internal/auth"
	"github.com/tradesphere/tradesphere-crm/internal/users"
)

// MountRoutes registers the quote routes. Approval and the all-quotes view
// are admin operations.
func (h *Handler) MountRoutes(r chi.Router, gate *auth.Middleware) {
	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", h.listMine)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Post("/{id}/stage", h.transitionStage)
		r.Delete("/{id}", h.remove)

		r.Group(func(r chi.Router) {
			r.Use(gate.RequireRole(users.RoleAdmin))
			r.Get("/all", h.listAll)
			r.Post("/{id}/approve", h.approve)
		})
	})
}
