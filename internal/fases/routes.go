package fases

import (
	"github.com/go-chi/chi/v5"
)

// Mount adiciona as rotas do sistema de fases no router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
