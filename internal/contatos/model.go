package contatos

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indica contato inexistente no tenant.
	ErrNotFound = errors.New("contato não encontrado")
	// ErrNaoLeadPool impede atribuição de contato fora do pool.
	ErrNaoLeadPool = errors.New("contato não é lead do pool")
)

// Contato guarda os campos do contato tocados pela distribuição de leads.
type Contato struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	Nome              string     `json:"nome"`
	Email             *string    `json:"email"`
	Telefone          *string    `json:"telefone"`
	LeadPool          bool       `json:"lead_pool"`
	OrigemLead        *string    `json:"origem_lead"`
	CorretorAtribuido *uuid.UUID `json:"corretor_atribuido"`
	AtribuidoEm       *time.Time `json:"atribuido_em"`
	CriadoEm          time.Time  `json:"criado_em"`
}
