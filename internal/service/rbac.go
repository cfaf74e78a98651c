package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clicimobiliaria/crm/internal/repo"
)

var (
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("acesso negado")
)

// RBACService opera regras de escopo e papéis.
type RBACService struct {
	repo *repo.Queries
}

// NewRBACService cria nova instância.
func NewRBACService(r *repo.Queries) *RBACService {
	return &RBACService{repo: r}
}

// ValidateTenantAccess garante que o usuário possua vínculo ativo com a
// imobiliária solicitada.
func (s *RBACService) ValidateTenantAccess(ctx context.Context, usuarioID, tenantID uuid.UUID) (repo.TenantVinculo, error) {
	vinculos, err := s.repo.ListVinculosByUsuario(ctx, usuarioID)
	if err != nil {
		return repo.TenantVinculo{}, err
	}
	for _, v := range vinculos {
		if v.TenantID == tenantID {
			return v, nil
		}
	}
	return repo.TenantVinculo{}, ErrForbidden
}
