package contatos

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// LeadStore é o contrato de persistência usado pelo serviço.
type LeadStore interface {
	Get(ctx context.Context, tenantID, contatoID uuid.UUID) (*Contato, error)
	ListLeadsPool(ctx context.Context, tenantID uuid.UUID, somenteSemCorretor bool) ([]Contato, error)
	MarcarLeadPool(ctx context.Context, tenantID, contatoID uuid.UUID, origem string) (*Contato, error)
	AtribuirLead(ctx context.Context, tenantID, contatoID, corretorID uuid.UUID) (*Contato, error)
}

// Service cobre as operações de lead do pool sobre contatos.
type Service struct {
	repo LeadStore
}

// NewService cria o serviço de contatos.
func NewService(repo LeadStore) *Service {
	return &Service{repo: repo}
}

// Get devolve o contato do tenant.
func (s *Service) Get(ctx context.Context, tenantID, contatoID uuid.UUID) (*Contato, error) {
	return s.repo.Get(ctx, tenantID, contatoID)
}

// ListLeadsPool lista os leads do pool, opcionalmente só os sem corretor.
func (s *Service) ListLeadsPool(ctx context.Context, tenantID uuid.UUID, somenteSemCorretor bool) ([]Contato, error) {
	return s.repo.ListLeadsPool(ctx, tenantID, somenteSemCorretor)
}

// MarcarLeadPool transforma contato existente em lead do pool.
func (s *Service) MarcarLeadPool(ctx context.Context, tenantID, contatoID uuid.UUID, origem string) (*Contato, error) {
	origem = strings.TrimSpace(origem)
	if origem == "" {
		origem = "pool"
	}
	return s.repo.MarcarLeadPool(ctx, tenantID, contatoID, origem)
}

// AtribuirLead define o corretor responsável por um lead do pool.
func (s *Service) AtribuirLead(ctx context.Context, tenantID, contatoID, corretorID uuid.UUID) (*Contato, error) {
	return s.repo.AtribuirLead(ctx, tenantID, contatoID, corretorID)
}
