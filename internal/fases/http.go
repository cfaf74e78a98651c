package fases

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clicimobiliaria/crm/internal/contatos"
	httpmiddleware "github.com/clicimobiliaria/crm/internal/http/middleware"
)

// Handler orquestra as rotas do sistema de fases.
type Handler struct {
	service  *Service
	contatos *contatos.Service
}

func NewHandler(service *Service, contatosService *contatos.Service) *Handler {
	return &Handler{service: service, contatos: contatosService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/fases", func(r chi.Router) {
		r.Get("/config", h.handleGetConfig)
		r.Put("/config", h.handleUpsertConfig)
		r.Post("/config/ativar", h.handleSetAtivo)

		r.Get("/corretores", h.handleListCorretores)
		r.Get("/corretores/{id}", h.handleGetEstado)
		r.Post("/corretores/{id}/inscrever", h.handleInscrever)
		r.Post("/corretores/{id}/remover", h.handleRemover)

		r.Get("/ranking", h.handleRanking)
		r.Get("/historico", h.handleHistorico)

		r.Post("/vendas", h.handleVenda)

		r.Post("/leads/selecionar", h.handleSelecionar)
		r.Post("/leads/distribuir", h.handleDistribuir)
	})

	r.Route("/contatos", func(r chi.Router) {
		r.Get("/leads", h.handleListLeadsPool)
		r.Post("/{id}/lead-pool", h.handleMarcarLeadPool)
		r.Post("/{id}/atribuir", h.handleAtribuirLead)
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	cfg, err := h.service.GetConfig(ctx, tenantID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

func (h *Handler) handleUpsertConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID, err := subjectAsUUID(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !isGestor(ctx) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	var input UpsertConfigInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	cfg, err := h.service.UpsertConfig(ctx, tenantID, input)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	logRequest(ctx, "PUT /fases/config", userID, start)
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

func (h *Handler) handleSetAtivo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID, err := subjectAsUUID(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !isGestor(ctx) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	var req struct {
		Ativo bool `json:"ativo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.service.SetAtivo(ctx, tenantID, req.Ativo); err != nil {
		writeInternalError(w, err)
		return
	}

	logRequest(ctx, "POST /fases/config/ativar", userID, start)
	writeJSON(w, http.StatusOK, map[string]any{"ativo": req.Ativo})
}

func (h *Handler) handleListCorretores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	somenteInscritos := r.URL.Query().Get("inscritos") == "true"
	corretores, err := h.service.ListCorretores(ctx, tenantID, somenteInscritos)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"corretores": corretores})
}

func (h *Handler) handleGetEstado(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	corretorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corretor inválido", nil)
		return
	}

	estado, err := h.service.GetEstado(ctx, tenantID, corretorID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"estado": estado})
}

func (h *Handler) handleInscrever(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID, err := subjectAsUUID(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !isGestor(ctx) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	corretorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corretor inválido", nil)
		return
	}

	estado, err := h.service.Inscrever(ctx, tenantID, corretorID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "POST /fases/corretores/inscrever", userID, start)
	writeJSON(w, http.StatusOK, map[string]any{"estado": estado})
}

func (h *Handler) handleRemover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID, err := subjectAsUUID(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !isGestor(ctx) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	corretorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corretor inválido", nil)
		return
	}

	if err := h.service.Remover(ctx, tenantID, corretorID); err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "POST /fases/corretores/remover", userID, start)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	ranking, err := h.service.Ranking(ctx, tenantID, limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ranking": ranking})
}

func (h *Handler) handleHistorico(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	var corretorID *uuid.UUID
	if raw := r.URL.Query().Get("corretor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "corretor inválido", nil)
			return
		}
		corretorID = &id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	historico, err := h.service.ListHistorico(ctx, tenantID, corretorID, limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"historico": historico})
}

func (h *Handler) handleVenda(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID, err := subjectAsUUID(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	var req struct {
		CorretorID uuid.UUID `json:"corretor_id"`
		VendaID    uuid.UUID `json:"venda_id"`
		LeadPool   bool      `json:"lead_pool"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if req.CorretorID == uuid.Nil || req.VendaID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corretor_id e venda_id obrigatórios", nil)
		return
	}

	if err := h.service.ProcessarVenda(ctx, tenantID, req.CorretorID, req.VendaID, req.LeadPool); err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "POST /fases/vendas", userID, start)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSelecionar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	corretorID, err := h.service.SelecionarCorretor(ctx, tenantID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"corretor_id": corretorID})
}

// handleDistribuir sorteia um corretor elegível e já atribui o lead a ele na
// mesma chamada. Sem corretor elegível o lead permanece no pool.
func (h *Handler) handleDistribuir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID, err := subjectAsUUID(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	var req struct {
		ContatoID uuid.UUID `json:"contato_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if req.ContatoID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "contato_id obrigatório", nil)
		return
	}

	corretorID, err := h.service.SelecionarCorretor(ctx, tenantID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if corretorID == nil {
		writeJSON(w, http.StatusOK, map[string]any{"corretor_id": nil, "contato": nil})
		return
	}

	contato, err := h.contatos.AtribuirLead(ctx, tenantID, req.ContatoID, *corretorID)
	if err != nil {
		handleContatoError(w, err)
		return
	}

	logRequest(ctx, "POST /fases/leads/distribuir", userID, start)
	writeJSON(w, http.StatusOK, map[string]any{"corretor_id": corretorID, "contato": contato})
}

func (h *Handler) handleListLeadsPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	somenteSemCorretor := r.URL.Query().Get("sem_corretor") == "true"
	leads, err := h.contatos.ListLeadsPool(ctx, tenantID, somenteSemCorretor)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (h *Handler) handleMarcarLeadPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	contatoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "contato inválido", nil)
		return
	}

	var req struct {
		Origem string `json:"origem"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	contato, err := h.contatos.MarcarLeadPool(ctx, tenantID, contatoID, req.Origem)
	if err != nil {
		handleContatoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contato": contato})
}

func (h *Handler) handleAtribuirLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := tenantFromCtx(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "imobiliária inválida", nil)
		return
	}

	contatoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "contato inválido", nil)
		return
	}

	var req struct {
		CorretorID uuid.UUID `json:"corretor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CorretorID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corretor_id obrigatório", nil)
		return
	}

	contato, err := h.contatos.AtribuirLead(ctx, tenantID, contatoID, req.CorretorID)
	if err != nil {
		handleContatoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contato": contato})
}

func subjectAsUUID(ctx context.Context) (uuid.UUID, error) {
	sub := httpmiddleware.GetSubject(ctx)
	return uuid.Parse(sub)
}

func tenantFromCtx(ctx context.Context) (uuid.UUID, error) {
	return uuid.Parse(httpmiddleware.GetTenant(ctx))
}

func isGestor(ctx context.Context) bool {
	roles := httpmiddleware.GetRoles(ctx)
	for _, role := range roles {
		switch role {
		case "ADMIN", "GERENTE":
			return true
		}
	}
	return false
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado", nil)
	case errors.Is(err, ErrNaoInscrito):
		writeError(w, http.StatusConflict, "CONFLICT", "corretor não inscrito", nil)
	default:
		writeInternalError(w, err)
	}
}

func handleContatoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contatos.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "contato não encontrado", nil)
	case errors.Is(err, contatos.ErrNaoLeadPool):
		writeError(w, http.StatusConflict, "CONFLICT", "contato não está no pool de leads", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("fases handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

func logRequest(ctx context.Context, label string, userID uuid.UUID, start time.Time) {
	logger := log.Ctx(ctx)
	if logger == nil {
		logger = &log.Logger
	}
	reqID := chimiddleware.GetReqID(ctx)
	logger.Info().Str("request_id", reqID).Str("user_id", userID.String()).Str("label", label).Dur("duration", time.Since(start)).Msg("fases_request")
}

// Helpers de resposta JSON compatíveis com o resto do projeto.
type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
