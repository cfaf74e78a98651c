package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/clicimobiliaria/crm/internal/tenant"
)

type createTenantRequest struct {
	Slug     string         `json:"slug"`
	Nome     string         `json:"nome"`
	Dominio  string         `json:"dominio"`
	Status   string         `json:"status"`
	Settings map[string]any `json:"settings"`
}

func (h *Handler) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("listar tenants falhou")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func (h *Handler) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if req.Slug == "" || req.Nome == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "slug e nome obrigatórios", nil)
		return
	}

	created, err := h.tenants.Create(r.Context(), tenant.CreateTenantInput{
		Slug:     req.Slug,
		Nome:     req.Nome,
		Dominio:  req.Dominio,
		Status:   req.Status,
		Settings: req.Settings,
	})
	if err != nil {
		log.Error().Err(err).Msg("criar tenant falhou")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
		return
	}

	WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateTenantSettings(w http.ResponseWriter, r *http.Request) {
	var settings map[string]any
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.tenants.UpdateSettings(r.Context(), chi.URLParam(r, "id"), settings); err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "imobiliária não encontrada", nil)
			return
		}
		log.Error().Err(err).Msg("atualizar settings falhou")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
