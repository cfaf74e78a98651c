package fases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Store é o contrato de persistência do sistema de fases.
type Store interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID) (*ConfigFases, error)
	SaveConfig(ctx context.Context, cfg ConfigFases) (*ConfigFases, error)
	SetConfigAtivo(ctx context.Context, tenantID uuid.UUID, ativo bool) error
	GetEstado(ctx context.Context, tenantID, corretorID uuid.UUID) (*EstadoCorretor, error)
	GetEstadoForUpdate(ctx context.Context, tenantID, corretorID uuid.UUID) (*EstadoCorretor, error)
	SalvarEstado(ctx context.Context, estado EstadoCorretor) error
	ListCorretores(ctx context.Context, tenantID uuid.UUID, somenteInscritos bool) ([]CorretorFase, error)
	ListElegiveis(ctx context.Context, tenantID uuid.UUID) ([]CorretorFase, error)
	Ranking(ctx context.Context, tenantID uuid.UUID, limit int) ([]CorretorFase, error)
	InsertHistorico(ctx context.Context, entrada HistoricoFase) error
	ListHistorico(ctx context.Context, tenantID uuid.UUID, corretorID *uuid.UUID, limit int) ([]HistoricoFase, error)
	EmTransacao(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// Service concentra as regras do sistema de fases e distribuição de leads.
type Service struct {
	repo       Store
	cache      *redis.Client
	rankingTTL time.Duration
	sorteio    Sorteio
	agora      func() time.Time
}

// NewService cria o serviço com fonte de aleatoriedade padrão.
func NewService(repo Store, cache *redis.Client, rankingTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		cache:      cache,
		rankingTTL: rankingTTL,
		sorteio:    NovoSorteio(),
		agora:      time.Now,
	}
}

// GetConfig devolve a configuração do tenant, ou nil quando não existe.
func (s *Service) GetConfig(ctx context.Context, tenantID uuid.UUID) (*ConfigFases, error) {
	cfg, err := s.repo.GetConfig(ctx, tenantID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cfg, nil
}

// UpsertConfig cria a configuração com defaults quando ausente ou aplica
// apenas os campos informados sobre a existente. Não valida pesos nem
// percentuais; o comportamento de referência aceita qualquer valor.
func (s *Service) UpsertConfig(ctx context.Context, tenantID uuid.UUID, input UpsertConfigInput) (*ConfigFases, error) {
	atual, err := s.repo.GetConfig(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, errNotFound) {
			return nil, err
		}
		base := DefaultConfig(tenantID)
		atual = &base
	}

	aplicarConfig(atual, input)
	return s.repo.SaveConfig(ctx, *atual)
}

// SetAtivo liga ou desliga a distribuição. Tenant sem configuração é no-op.
func (s *Service) SetAtivo(ctx context.Context, tenantID uuid.UUID, ativo bool) error {
	if err := s.repo.SetConfigAtivo(ctx, tenantID, ativo); err != nil {
		if errors.Is(err, errNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func aplicarConfig(cfg *ConfigFases, input UpsertConfigInput) {
	if input.Ativo != nil {
		cfg.Ativo = *input.Ativo
	}
	if input.ImovelPoolID != nil {
		cfg.ImovelPoolID = input.ImovelPoolID
	}
	if input.ComissaoCorretor != nil {
		cfg.ComissaoCorretor = *input.ComissaoCorretor
	}
	if input.ComissaoEmpresa != nil {
		cfg.ComissaoEmpresa = *input.ComissaoEmpresa
	}
	if input.PesoFase1 != nil {
		cfg.PesoFase1 = *input.PesoFase1
	}
	if input.PesoFase2 != nil {
		cfg.PesoFase2 = *input.PesoFase2
	}
	if input.PesoFase3 != nil {
		cfg.PesoFase3 = *input.PesoFase3
	}
	if input.PesoFase4 != nil {
		cfg.PesoFase4 = *input.PesoFase4
	}
	if input.PesoFase5 != nil {
		cfg.PesoFase5 = *input.PesoFase5
	}
	if input.TentativasFase1 != nil {
		cfg.TentativasFase1 = *input.TentativasFase1
	}
	if input.MaxMesesSolitario != nil {
		cfg.MaxMesesSolitario = *input.MaxMesesSolitario
	}
}

// Inscrever coloca o corretor na fase 1 zerando contadores. Reexecutar
// apenas recarimba o timestamp de inscrição.
func (s *Service) Inscrever(ctx context.Context, tenantID, corretorID uuid.UUID) (*EstadoCorretor, error) {
	var resultado *EstadoCorretor

	err := s.repo.EmTransacao(ctx, func(ctx context.Context, store Store) error {
		estado, err := store.GetEstadoForUpdate(ctx, tenantID, corretorID)
		if err != nil {
			return err
		}

		faseAnterior := estado.FaseAtual
		agora := s.agora()
		mes := mesDe(agora)

		estado.Inscrito = true
		estado.FaseAtual = FaseMinima
		estado.Solitario = false
		estado.TentativasFase1 = 0
		estado.MesesSolitarioSemVenda = 0
		estado.ContadorVendasFase5 = 0
		estado.VendasMes = 0
		estado.MesAcompanhamento = &mes
		estado.InscritoEm = &agora

		if err := store.SalvarEstado(ctx, *estado); err != nil {
			return err
		}

		if err := store.InsertHistorico(ctx, HistoricoFase{
			TenantID:     tenantID,
			CorretorID:   corretorID,
			FaseAnterior: faseAnterior,
			FaseNova:     FaseMinima,
			TipoMudanca:  MudancaInscricao,
			Motivo:       "Inscrição no sistema de fases",
		}); err != nil {
			return err
		}

		resultado = estado
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resultado, nil
}

// Remover tira o corretor do sistema registrando a fase no momento da
// saída. Corretor já fora é no-op.
func (s *Service) Remover(ctx context.Context, tenantID, corretorID uuid.UUID) error {
	return s.repo.EmTransacao(ctx, func(ctx context.Context, store Store) error {
		estado, err := store.GetEstadoForUpdate(ctx, tenantID, corretorID)
		if err != nil {
			return err
		}
		if !estado.Inscrito {
			return nil
		}

		estado.Inscrito = false
		if err := store.SalvarEstado(ctx, *estado); err != nil {
			return err
		}

		return store.InsertHistorico(ctx, HistoricoFase{
			TenantID:     tenantID,
			CorretorID:   corretorID,
			FaseAnterior: estado.FaseAtual,
			FaseNova:     estado.FaseAtual,
			TipoMudanca:  MudancaSaida,
			Motivo:       "Remoção do sistema de fases",
		})
	})
}

// GetEstado devolve o estado atual do corretor.
func (s *Service) GetEstado(ctx context.Context, tenantID, corretorID uuid.UUID) (*EstadoCorretor, error) {
	return s.repo.GetEstado(ctx, tenantID, corretorID)
}

// ListCorretores devolve todos os corretores do tenant com estado de fases.
func (s *Service) ListCorretores(ctx context.Context, tenantID uuid.UUID, somenteInscritos bool) ([]CorretorFase, error) {
	return s.repo.ListCorretores(ctx, tenantID, somenteInscritos)
}

// Ranking devolve os corretores mais bem colocados, com cache curto.
func (s *Service) Ranking(ctx context.Context, tenantID uuid.UUID, limit int) ([]CorretorFase, error) {
	if limit <= 0 {
		limit = 20
	}

	key := fmt.Sprintf("fases:ranking:%s:%d", tenantID.String(), limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var ranking []CorretorFase
			if json.Unmarshal(data, &ranking) == nil {
				return ranking, nil
			}
		}
	}

	ranking, err := s.repo.Ranking(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(ranking); err == nil {
			_ = s.cache.Set(ctx, key, payload, s.rankingTTL).Err()
		}
	}

	return ranking, nil
}

// ListHistorico devolve o log de mudanças mais recente.
func (s *Service) ListHistorico(ctx context.Context, tenantID uuid.UUID, corretorID *uuid.UUID, limit int) ([]HistoricoFase, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListHistorico(ctx, tenantID, corretorID, limit)
}

// SelecionarCorretor sorteia o corretor que recebe o próximo lead do pool
// por roleta proporcional ao peso da fase. Devolve nil quando o sistema
// está inativo ou não há elegíveis.
func (s *Service) SelecionarCorretor(ctx context.Context, tenantID uuid.UUID) (*uuid.UUID, error) {
	cfg, err := s.repo.GetConfig(ctx, tenantID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !cfg.Ativo {
		return nil, nil
	}

	candidatos, err := s.repo.ListElegiveis(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(candidatos) == 0 {
		return nil, nil
	}

	total := 0
	for _, c := range candidatos {
		total += cfg.PesoDaFase(c.FaseAtual)
	}
	if total <= 0 {
		return nil, nil
	}

	r := s.sorteio.Float64() * float64(total)
	acumulado := 0
	for _, c := range candidatos {
		acumulado += cfg.PesoDaFase(c.FaseAtual)
		if float64(acumulado) >= r {
			id := c.CorretorID
			return &id, nil
		}
	}

	// Proteção contra borda de ponto flutuante.
	id := candidatos[0].CorretorID
	return &id, nil
}

// ProcessarVenda avança a máquina de estados do corretor após o fechamento
// de uma venda. Roda inteira em uma transação com a linha de estado travada,
// serializando vendas concorrentes do mesmo corretor. Corretor não inscrito
// e tenant sem configuração são no-ops silenciosos.
func (s *Service) ProcessarVenda(ctx context.Context, tenantID, corretorID, vendaID uuid.UUID, leadPool bool) error {
	return s.repo.EmTransacao(ctx, func(ctx context.Context, store Store) error {
		estado, err := store.GetEstadoForUpdate(ctx, tenantID, corretorID)
		if err != nil {
			if errors.Is(err, errNotFound) {
				log.Debug().Str("corretor", corretorID.String()).Msg("fases: venda ignorada, vínculo inexistente")
				return nil
			}
			return err
		}
		if !estado.Inscrito {
			log.Debug().Str("corretor", corretorID.String()).Msg("fases: venda ignorada, corretor não inscrito")
			return nil
		}

		cfg, err := store.GetConfig(ctx, tenantID)
		if err != nil {
			if errors.Is(err, errNotFound) {
				return nil
			}
			return err
		}

		agora := s.agora()
		mesAtual := mesDe(agora)

		// Virada de mês preguiçosa: avaliada apenas quando chega uma venda,
		// nunca por timer. Corretor que não vende não decai.
		historicos := aplicarViradaDeMes(estado, cfg, mesAtual)
		for i := range historicos {
			historicos[i].TenantID = tenantID
			historicos[i].CorretorID = corretorID
			if err := store.InsertHistorico(ctx, historicos[i]); err != nil {
				return err
			}
		}
		if !estado.Inscrito {
			// A virada esgotou os meses em modo solitário; a venda atual
			// encontra o corretor já fora do sistema e é ignorada.
			return store.SalvarEstado(ctx, *estado)
		}

		estado.VendasMes++

		switch {
		case estado.Solitario:
			faseAnterior := estado.FaseAtual
			estado.Solitario = false
			estado.FaseAtual = FaseMinima
			estado.TentativasFase1 = 0
			if err := store.InsertHistorico(ctx, HistoricoFase{
				TenantID:     tenantID,
				CorretorID:   corretorID,
				FaseAnterior: faseAnterior,
				FaseNova:     FaseMinima,
				TipoMudanca:  MudancaSaiSolitario,
				Motivo:       "Venda fechada em modo solitário",
				VendaID:      &vendaID,
			}); err != nil {
				return err
			}

		case estado.FaseAtual < FaseMaxima:
			faseAnterior := estado.FaseAtual
			estado.FaseAtual++
			estado.TentativasFase1 = 0
			if err := store.InsertHistorico(ctx, HistoricoFase{
				TenantID:     tenantID,
				CorretorID:   corretorID,
				FaseAnterior: faseAnterior,
				FaseNova:     estado.FaseAtual,
				TipoMudanca:  MudancaAvanco,
				Motivo:       motivoVenda(leadPool),
				VendaID:      &vendaID,
			}); err != nil {
				return err
			}

		default: // fase 5
			estado.ContadorVendasFase5++
			ganho := estado.ContadorVendasFase5 / 3
			if ganho > 0 {
				estado.Prestigio += ganho
				estado.ContadorVendasFase5 %= 3
				valor := estado.Prestigio
				if err := store.InsertHistorico(ctx, HistoricoFase{
					TenantID:       tenantID,
					CorretorID:     corretorID,
					FaseAnterior:   FaseMaxima,
					FaseNova:       FaseMaxima,
					TipoMudanca:    MudancaPrestigio,
					Motivo:         "Terceira venda acumulada na fase 5",
					VendaID:        &vendaID,
					ValorPrestigio: &valor,
				}); err != nil {
					return err
				}
			}

			if estado.VendasMes > estado.RecordeUltra {
				estado.RecordeUltra = estado.VendasMes
				estado.MesUltra = &mesAtual
				valor := estado.RecordeUltra
				if err := store.InsertHistorico(ctx, HistoricoFase{
					TenantID:     tenantID,
					CorretorID:   corretorID,
					FaseAnterior: FaseMaxima,
					FaseNova:     FaseMaxima,
					TipoMudanca:  MudancaUltra,
					Motivo:       "Novo recorde de vendas em um mês",
					VendaID:      &vendaID,
					ValorUltra:   &valor,
				}); err != nil {
					return err
				}
			}
		}

		return store.SalvarEstado(ctx, *estado)
	})
}

// aplicarViradaDeMes aplica o decaimento mensal sobre o estado carregado e
// devolve as entradas de histórico geradas (sem tenant/corretor preenchidos).
// Função pura sobre o estado; quem chama persiste.
func aplicarViradaDeMes(estado *EstadoCorretor, cfg *ConfigFases, mesAtual string) []HistoricoFase {
	if estado.MesAcompanhamento == nil {
		estado.MesAcompanhamento = &mesAtual
		return nil
	}
	if *estado.MesAcompanhamento == mesAtual {
		return nil
	}

	var historicos []HistoricoFase

	if estado.VendasMes == 0 {
		switch {
		case estado.Solitario:
			estado.MesesSolitarioSemVenda++
			if estado.MesesSolitarioSemVenda >= cfg.MaxMesesSolitario {
				estado.Inscrito = false
				historicos = append(historicos, HistoricoFase{
					FaseAnterior: estado.FaseAtual,
					FaseNova:     estado.FaseAtual,
					TipoMudanca:  MudancaSaida,
					Motivo:       fmt.Sprintf("%d meses em modo solitário sem venda", estado.MesesSolitarioSemVenda),
				})
			}

		case estado.FaseAtual == FaseMinima:
			estado.TentativasFase1++
			if estado.TentativasFase1 >= cfg.TentativasFase1 {
				estado.FaseAtual = FaseSolitario
				estado.Solitario = true
				estado.TentativasFase1 = 0
				estado.MesesSolitarioSemVenda = 0
				historicos = append(historicos, HistoricoFase{
					FaseAnterior: FaseMinima,
					FaseNova:     FaseSolitario,
					TipoMudanca:  MudancaEntraSolitario,
					Motivo:       "Tentativas na fase 1 esgotadas",
				})
			}

		case estado.FaseAtual > FaseMinima:
			faseAnterior := estado.FaseAtual
			estado.FaseAtual--
			historicos = append(historicos, HistoricoFase{
				FaseAnterior: faseAnterior,
				FaseNova:     estado.FaseAtual,
				TipoMudanca:  MudancaRebaixamento,
				Motivo:       "Mês sem vendas",
			})
		}
	}

	estado.VendasMes = 0
	estado.MesAcompanhamento = &mesAtual

	return historicos
}

func motivoVenda(leadPool bool) string {
	if leadPool {
		return "Venda de lead do pool"
	}
	return "Venda própria"
}

func mesDe(t time.Time) string {
	return t.Format("2006-01")
}
