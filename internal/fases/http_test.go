package fases

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clicimobiliaria/crm/internal/contatos"
	httpmiddleware "github.com/clicimobiliaria/crm/internal/http/middleware"
)

type stubLeadStore struct {
	contato contatos.Contato
}

func (s *stubLeadStore) Get(ctx context.Context, tenantID, contatoID uuid.UUID) (*contatos.Contato, error) {
	c := s.contato
	return &c, nil
}

func (s *stubLeadStore) ListLeadsPool(ctx context.Context, tenantID uuid.UUID, somenteSemCorretor bool) ([]contatos.Contato, error) {
	return []contatos.Contato{s.contato}, nil
}

func (s *stubLeadStore) MarcarLeadPool(ctx context.Context, tenantID, contatoID uuid.UUID, origem string) (*contatos.Contato, error) {
	c := s.contato
	c.LeadPool = true
	c.OrigemLead = &origem
	return &c, nil
}

func (s *stubLeadStore) AtribuirLead(ctx context.Context, tenantID, contatoID, corretorID uuid.UUID) (*contatos.Contato, error) {
	c := s.contato
	c.CorretorAtribuido = &corretorID
	return &c, nil
}

func TestFasesHandlers(t *testing.T) {
	tenantID := uuid.New()
	corretorID := uuid.New()
	contatoID := uuid.New()

	store := newStubStore()
	store.seed(tenantID, corretorID)
	store.estados[corretorID].Inscrito = true
	store.estados[corretorID].FaseAtual = 2
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, PesoFase1: 100, PesoFase2: 150, TentativasFase1: 3, MaxMesesSolitario: 3}

	svc := NewService(store, nil, 0)
	leadStore := &stubLeadStore{contato: contatos.Contato{ID: contatoID, TenantID: tenantID, Nome: "Lead", LeadPool: true}}
	handler := NewHandler(svc, contatos.NewService(leadStore))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		roles  []string
		status int
	}{
		{"config-get", http.MethodGet, "/fases/config", nil, []string{"CORRETOR"}, http.StatusOK},
		{"config-put", http.MethodPut, "/fases/config", map[string]any{"peso_fase1": 120}, []string{"GERENTE"}, http.StatusOK},
		{"config-put-sem-acesso", http.MethodPut, "/fases/config", map[string]any{"peso_fase1": 120}, []string{"CORRETOR"}, http.StatusForbidden},
		{"config-ativar", http.MethodPost, "/fases/config/ativar", map[string]any{"ativo": true}, []string{"ADMIN"}, http.StatusOK},
		{"corretores", http.MethodGet, "/fases/corretores", nil, []string{"CORRETOR"}, http.StatusOK},
		{"corretor-estado", http.MethodGet, "/fases/corretores/" + corretorID.String(), nil, []string{"CORRETOR"}, http.StatusOK},
		{"corretor-inexistente", http.MethodGet, "/fases/corretores/" + uuid.NewString(), nil, []string{"CORRETOR"}, http.StatusNotFound},
		{"inscrever", http.MethodPost, "/fases/corretores/" + corretorID.String() + "/inscrever", nil, []string{"GERENTE"}, http.StatusOK},
		{"inscrever-sem-acesso", http.MethodPost, "/fases/corretores/" + corretorID.String() + "/inscrever", nil, []string{"CORRETOR"}, http.StatusForbidden},
		{"remover", http.MethodPost, "/fases/corretores/" + corretorID.String() + "/remover", nil, []string{"ADMIN"}, http.StatusOK},
		{"ranking", http.MethodGet, "/fases/ranking?limit=5", nil, []string{"CORRETOR"}, http.StatusOK},
		{"historico", http.MethodGet, "/fases/historico?corretor=" + corretorID.String(), nil, []string{"CORRETOR"}, http.StatusOK},
		{"venda", http.MethodPost, "/fases/vendas", map[string]any{"corretor_id": corretorID, "venda_id": uuid.New(), "lead_pool": true}, []string{"GERENTE"}, http.StatusOK},
		{"venda-sem-corretor", http.MethodPost, "/fases/vendas", map[string]any{"venda_id": uuid.New()}, []string{"GERENTE"}, http.StatusBadRequest},
		{"selecionar", http.MethodPost, "/fases/leads/selecionar", nil, []string{"GERENTE"}, http.StatusOK},
		{"distribuir", http.MethodPost, "/fases/leads/distribuir", map[string]any{"contato_id": contatoID}, []string{"GERENTE"}, http.StatusOK},
		{"leads-pool", http.MethodGet, "/contatos/leads?sem_corretor=true", nil, []string{"CORRETOR"}, http.StatusOK},
		{"marcar-lead", http.MethodPost, "/contatos/" + contatoID.String() + "/lead-pool", map[string]any{"origem": "site"}, []string{"GERENTE"}, http.StatusOK},
		{"atribuir-lead", http.MethodPost, "/contatos/" + contatoID.String() + "/atribuir", map[string]any{"corretor_id": corretorID}, []string{"GERENTE"}, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			req = withScope(req, tenantID, tc.roles)
			rec := httptest.NewRecorder()

			r := chi.NewRouter()
			handler.RegisterRoutes(r)
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestFasesHandlersSemTenant(t *testing.T) {
	store := newStubStore()
	handler := NewHandler(NewService(store, nil, 0), contatos.NewService(&stubLeadStore{}))

	req := httptest.NewRequest(http.MethodGet, "/fases/config", nil)
	ctx := context.WithValue(req.Context(), httpmiddleware.ContextKeySubject, uuid.NewString())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRoles, []string{"GERENTE"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}

func withScope(req *http.Request, tenantID uuid.UUID, roles []string) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeySubject, uuid.NewString())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRoles, roles)
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyAudience, "crm")
	ctx = httpmiddleware.SetTenant(ctx, tenantID.String())
	return req.WithContext(ctx)
}
