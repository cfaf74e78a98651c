package repo

import (
	"time"

	"github.com/google/uuid"
)

// Usuario representa pessoa com acesso ao CRM (corretores e gestores).
type Usuario struct {
	ID        uuid.UUID
	Nome      string
	Email     string
	SenhaHash string
	Ativo     bool
	CriadoEm  time.Time
}

// TenantVinculo liga usuário a uma imobiliária com papel.
type TenantVinculo struct {
	TenantID   uuid.UUID
	TenantNome string
	Slug       string
	Papel      string
}

// TokenRefresh modela tabela de refresh tokens.
type TokenRefresh struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
	Revogado  bool
}

// InsertRefreshTokenParams agrupa campos do insert de refresh.
type InsertRefreshTokenParams struct {
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
}
