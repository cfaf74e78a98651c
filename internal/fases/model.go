package fases

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	errNotFound = errors.New("not found")

	// ErrNaoInscrito indica corretor fora do sistema de fases.
	ErrNaoInscrito = errors.New("corretor não inscrito no sistema de fases")
)

// Fases válidas do sistema. Fase 0 é o modo solitário, uma trilha
// paralela de penalidade, não uma fase de distribuição.
const (
	FaseSolitario = 0
	FaseMinima    = 1
	FaseMaxima    = 5
)

// Tipos de mudança registrados no histórico (append-only).
const (
	MudancaInscricao      = "enroll"
	MudancaSaida          = "exit"
	MudancaAvanco         = "advance"
	MudancaRebaixamento   = "demote"
	MudancaEntraSolitario = "enter_solitary"
	MudancaSaiSolitario   = "exit_solitary"
	MudancaPrestigio      = "prestige"
	MudancaUltra          = "ultra"
)

// ConfigFases guarda parâmetros do sistema de fases por imobiliária.
type ConfigFases struct {
	TenantID          uuid.UUID  `json:"tenant_id"`
	Ativo             bool       `json:"ativo"`
	ImovelPoolID      *uuid.UUID `json:"imovel_pool_id"`
	ComissaoCorretor  int        `json:"comissao_corretor"`
	ComissaoEmpresa   int        `json:"comissao_empresa"`
	PesoFase1         int        `json:"peso_fase1"`
	PesoFase2         int        `json:"peso_fase2"`
	PesoFase3         int        `json:"peso_fase3"`
	PesoFase4         int        `json:"peso_fase4"`
	PesoFase5         int        `json:"peso_fase5"`
	TentativasFase1   int        `json:"tentativas_fase1"`
	MaxMesesSolitario int        `json:"max_meses_solitario"`
	CriadoEm          time.Time  `json:"criado_em"`
	AtualizadoEm      time.Time  `json:"atualizado_em"`
}

// PesoDaFase devolve o peso configurado para a fase informada.
// Fase 0 (solitário) nunca recebe leads e tem peso zero.
func (c *ConfigFases) PesoDaFase(fase int) int {
	switch fase {
	case 1:
		return c.PesoFase1
	case 2:
		return c.PesoFase2
	case 3:
		return c.PesoFase3
	case 4:
		return c.PesoFase4
	case 5:
		return c.PesoFase5
	}
	return 0
}

// UpsertConfigInput carrega campos parciais; ponteiros nulos preservam
// o valor atual (ou o default na criação).
type UpsertConfigInput struct {
	Ativo             *bool      `json:"ativo"`
	ImovelPoolID      *uuid.UUID `json:"imovel_pool_id"`
	ComissaoCorretor  *int       `json:"comissao_corretor"`
	ComissaoEmpresa   *int       `json:"comissao_empresa"`
	PesoFase1         *int       `json:"peso_fase1"`
	PesoFase2         *int       `json:"peso_fase2"`
	PesoFase3         *int       `json:"peso_fase3"`
	PesoFase4         *int       `json:"peso_fase4"`
	PesoFase5         *int       `json:"peso_fase5"`
	TentativasFase1   *int       `json:"tentativas_fase1"`
	MaxMesesSolitario *int       `json:"max_meses_solitario"`
}

// DefaultConfig devolve configuração com os pesos e limites padrão.
func DefaultConfig(tenantID uuid.UUID) ConfigFases {
	return ConfigFases{
		TenantID:          tenantID,
		Ativo:             false,
		ComissaoCorretor:  50,
		ComissaoEmpresa:   50,
		PesoFase1:         100,
		PesoFase2:         150,
		PesoFase3:         200,
		PesoFase4:         250,
		PesoFase5:         300,
		TentativasFase1:   3,
		MaxMesesSolitario: 3,
	}
}

// EstadoCorretor é o registro mutável por (tenant, corretor), embutido
// no vínculo usuarios_tenants.
type EstadoCorretor struct {
	TenantID               uuid.UUID  `json:"tenant_id"`
	CorretorID             uuid.UUID  `json:"corretor_id"`
	Inscrito               bool       `json:"inscrito"`
	FaseAtual              int        `json:"fase_atual"`
	Solitario              bool       `json:"solitario"`
	TentativasFase1        int        `json:"tentativas_fase1_usadas"`
	MesesSolitarioSemVenda int        `json:"meses_solitario_sem_venda"`
	Prestigio              int        `json:"prestigio"`
	ContadorVendasFase5    int        `json:"contador_vendas_fase5"`
	RecordeUltra           int        `json:"recorde_ultra"`
	MesUltra               *string    `json:"mes_ultra"`
	VendasMes              int        `json:"vendas_mes"`
	MesAcompanhamento      *string    `json:"mes_acompanhamento"`
	InscritoEm             *time.Time `json:"inscrito_em"`
}

// CorretorFase agrega estado com dados básicos do corretor para listagens.
type CorretorFase struct {
	EstadoCorretor
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Ativo bool   `json:"ativo"`
}

// HistoricoFase é uma entrada imutável do log de mudanças.
type HistoricoFase struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	CorretorID     uuid.UUID  `json:"corretor_id"`
	FaseAnterior   int        `json:"fase_anterior"`
	FaseNova       int        `json:"fase_nova"`
	TipoMudanca    string     `json:"tipo_mudanca"`
	Motivo         string     `json:"motivo"`
	VendaID        *uuid.UUID `json:"venda_id,omitempty"`
	ValorPrestigio *int       `json:"valor_prestigio,omitempty"`
	ValorUltra     *int       `json:"valor_ultra,omitempty"`
	CriadoEm       time.Time  `json:"criado_em"`
}
