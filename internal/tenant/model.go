package tenant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("tenant not found")
)

// Tenant representa uma imobiliária cliente da plataforma.
type Tenant struct {
	ID           uuid.UUID      `json:"id"`
	Slug         string         `json:"slug"`
	Nome         string         `json:"nome"`
	Dominio      string         `json:"dominio"`
	Status       string         `json:"status"`
	Settings     map[string]any `json:"settings"`
	CriadoEm     time.Time      `json:"criado_em"`
	AtualizadoEm time.Time      `json:"atualizado_em"`
}

// CreateTenantInput contém os campos necessários para registrar uma imobiliária.
type CreateTenantInput struct {
	Slug     string
	Nome     string
	Dominio  string
	Status   string
	Settings map[string]any
}
