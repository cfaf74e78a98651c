package fases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clicimobiliaria/crm/internal/db"
)

// querier cobre pool e transação, permitindo reusar as mesmas queries
// dentro e fora de EmTransacao.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provê acesso SQL ao sistema de fases.
type Repository struct {
	pool *pgxpool.Pool
	q    querier
}

// NewRepository cria repositório sobre o pool informado.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

// EmTransacao executa fn com um repositório preso a uma transação.
func (r *Repository) EmTransacao(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &Repository{pool: r.pool, q: tx})
	})
}

const configColumns = `
    tenant_id, ativo, imovel_pool_id, comissao_corretor, comissao_empresa,
    peso_fase1, peso_fase2, peso_fase3, peso_fase4, peso_fase5,
    tentativas_fase1, max_meses_solitario, criado_em, atualizado_em
`

// GetConfig busca configuração do tenant. errNotFound quando ausente.
func (r *Repository) GetConfig(ctx context.Context, tenantID uuid.UUID) (*ConfigFases, error) {
	query := `SELECT ` + configColumns + ` FROM fases_config WHERE tenant_id = $1`

	return scanConfig(r.q.QueryRow(ctx, query, tenantID))
}

// SaveConfig insere ou substitui a configuração inteira do tenant.
func (r *Repository) SaveConfig(ctx context.Context, cfg ConfigFases) (*ConfigFases, error) {
	query := `
        INSERT INTO fases_config (
            tenant_id, ativo, imovel_pool_id, comissao_corretor, comissao_empresa,
            peso_fase1, peso_fase2, peso_fase3, peso_fase4, peso_fase5,
            tentativas_fase1, max_meses_solitario
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (tenant_id) DO UPDATE SET
            ativo = EXCLUDED.ativo,
            imovel_pool_id = EXCLUDED.imovel_pool_id,
            comissao_corretor = EXCLUDED.comissao_corretor,
            comissao_empresa = EXCLUDED.comissao_empresa,
            peso_fase1 = EXCLUDED.peso_fase1,
            peso_fase2 = EXCLUDED.peso_fase2,
            peso_fase3 = EXCLUDED.peso_fase3,
            peso_fase4 = EXCLUDED.peso_fase4,
            peso_fase5 = EXCLUDED.peso_fase5,
            tentativas_fase1 = EXCLUDED.tentativas_fase1,
            max_meses_solitario = EXCLUDED.max_meses_solitario,
            atualizado_em = now()
        RETURNING ` + configColumns

	row := r.q.QueryRow(ctx, query,
		cfg.TenantID, cfg.Ativo, cfg.ImovelPoolID, cfg.ComissaoCorretor, cfg.ComissaoEmpresa,
		cfg.PesoFase1, cfg.PesoFase2, cfg.PesoFase3, cfg.PesoFase4, cfg.PesoFase5,
		cfg.TentativasFase1, cfg.MaxMesesSolitario,
	)
	return scanConfig(row)
}

// SetConfigAtivo liga/desliga o sistema sem tocar nos demais campos.
func (r *Repository) SetConfigAtivo(ctx context.Context, tenantID uuid.UUID, ativo bool) error {
	const query = `
        UPDATE fases_config SET ativo = $2, atualizado_em = now() WHERE tenant_id = $1
    `

	tag, err := r.q.Exec(ctx, query, tenantID, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

const estadoColumns = `
    tenant_id, usuario_id, fases_inscrito, fase_atual, solitario,
    tentativas_fase1, meses_solitario_sem_venda, prestigio,
    contador_vendas_fase5, recorde_ultra, mes_ultra, vendas_mes,
    mes_acompanhamento, fases_inscrito_em
`

// GetEstado lê o estado de fases do vínculo (tenant, corretor).
func (r *Repository) GetEstado(ctx context.Context, tenantID, corretorID uuid.UUID) (*EstadoCorretor, error) {
	query := `
        SELECT ` + estadoColumns + `
        FROM usuarios_tenants
        WHERE tenant_id = $1 AND usuario_id = $2
    `

	return scanEstado(r.q.QueryRow(ctx, query, tenantID, corretorID))
}

// GetEstadoForUpdate lê o estado travando a linha até o fim da transação.
// Serializa vendas concorrentes do mesmo corretor.
func (r *Repository) GetEstadoForUpdate(ctx context.Context, tenantID, corretorID uuid.UUID) (*EstadoCorretor, error) {
	query := `
        SELECT ` + estadoColumns + `
        FROM usuarios_tenants
        WHERE tenant_id = $1 AND usuario_id = $2
        FOR UPDATE
    `

	return scanEstado(r.q.QueryRow(ctx, query, tenantID, corretorID))
}

// SalvarEstado persiste todos os campos mutáveis do estado.
func (r *Repository) SalvarEstado(ctx context.Context, estado EstadoCorretor) error {
	const query = `
        UPDATE usuarios_tenants
        SET fases_inscrito = $3,
            fase_atual = $4,
            solitario = $5,
            tentativas_fase1 = $6,
            meses_solitario_sem_venda = $7,
            prestigio = $8,
            contador_vendas_fase5 = $9,
            recorde_ultra = $10,
            mes_ultra = $11,
            vendas_mes = $12,
            mes_acompanhamento = $13,
            fases_inscrito_em = $14
        WHERE tenant_id = $1 AND usuario_id = $2
    `

	tag, err := r.q.Exec(ctx, query,
		estado.TenantID, estado.CorretorID,
		estado.Inscrito, estado.FaseAtual, estado.Solitario,
		estado.TentativasFase1, estado.MesesSolitarioSemVenda, estado.Prestigio,
		estado.ContadorVendasFase5, estado.RecordeUltra, estado.MesUltra,
		estado.VendasMes, estado.MesAcompanhamento, estado.InscritoEm,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

const corretorColumns = `
    ut.tenant_id, ut.usuario_id, ut.fases_inscrito, ut.fase_atual, ut.solitario,
    ut.tentativas_fase1, ut.meses_solitario_sem_venda, ut.prestigio,
    ut.contador_vendas_fase5, ut.recorde_ultra, ut.mes_ultra, ut.vendas_mes,
    ut.mes_acompanhamento, ut.fases_inscrito_em,
    u.nome, u.email, u.ativo
`

// ListCorretores devolve corretores do tenant com seus estados,
// ordenados por prestígio, fase e recorde ultra.
func (r *Repository) ListCorretores(ctx context.Context, tenantID uuid.UUID, somenteInscritos bool) ([]CorretorFase, error) {
	query := `
        SELECT ` + corretorColumns + `
        FROM usuarios_tenants ut
        JOIN usuarios u ON u.id = ut.usuario_id
        WHERE ut.tenant_id = $1 AND ut.ativo
    `
	if somenteInscritos {
		query += ` AND ut.fases_inscrito`
	}
	query += ` ORDER BY ut.prestigio DESC, ut.fase_atual DESC, ut.recorde_ultra DESC`

	return r.queryCorretores(ctx, query, tenantID)
}

// ListElegiveis devolve candidatos à distribuição de leads: inscritos,
// fora do modo solitário e ativos. Ordem estável para a roleta.
func (r *Repository) ListElegiveis(ctx context.Context, tenantID uuid.UUID) ([]CorretorFase, error) {
	query := `
        SELECT ` + corretorColumns + `
        FROM usuarios_tenants ut
        JOIN usuarios u ON u.id = ut.usuario_id
        WHERE ut.tenant_id = $1 AND ut.ativo AND u.ativo
          AND ut.fases_inscrito AND NOT ut.solitario
        ORDER BY ut.usuario_id
    `

	return r.queryCorretores(ctx, query, tenantID)
}

// Ranking ordena também por vendas do mês corrente.
func (r *Repository) Ranking(ctx context.Context, tenantID uuid.UUID, limit int) ([]CorretorFase, error) {
	query := `
        SELECT ` + corretorColumns + `
        FROM usuarios_tenants ut
        JOIN usuarios u ON u.id = ut.usuario_id
        WHERE ut.tenant_id = $1 AND ut.ativo AND ut.fases_inscrito
        ORDER BY ut.prestigio DESC, ut.fase_atual DESC, ut.recorde_ultra DESC, ut.vendas_mes DESC
        LIMIT $2
    `

	return r.queryCorretores(ctx, query, tenantID, limit)
}

func (r *Repository) queryCorretores(ctx context.Context, query string, args ...any) ([]CorretorFase, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var corretores []CorretorFase
	for rows.Next() {
		var c CorretorFase
		if err := rows.Scan(
			&c.TenantID, &c.CorretorID, &c.Inscrito, &c.FaseAtual, &c.Solitario,
			&c.TentativasFase1, &c.MesesSolitarioSemVenda, &c.Prestigio,
			&c.ContadorVendasFase5, &c.RecordeUltra, &c.MesUltra, &c.VendasMes,
			&c.MesAcompanhamento, &c.InscritoEm,
			&c.Nome, &c.Email, &c.Ativo,
		); err != nil {
			return nil, err
		}
		corretores = append(corretores, c)
	}
	return corretores, rows.Err()
}

// InsertHistorico grava entrada imutável no log de fases.
func (r *Repository) InsertHistorico(ctx context.Context, entrada HistoricoFase) error {
	const query = `
        INSERT INTO fases_historico (
            tenant_id, corretor_id, fase_anterior, fase_nova, tipo_mudanca,
            motivo, venda_id, valor_prestigio, valor_ultra
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

	_, err := r.q.Exec(ctx, query,
		entrada.TenantID, entrada.CorretorID, entrada.FaseAnterior, entrada.FaseNova,
		entrada.TipoMudanca, entrada.Motivo, entrada.VendaID,
		entrada.ValorPrestigio, entrada.ValorUltra,
	)
	return err
}

// ListHistorico devolve entradas mais recentes, opcionalmente filtradas
// por corretor.
func (r *Repository) ListHistorico(ctx context.Context, tenantID uuid.UUID, corretorID *uuid.UUID, limit int) ([]HistoricoFase, error) {
	query := `
        SELECT id, tenant_id, corretor_id, fase_anterior, fase_nova, tipo_mudanca,
               motivo, venda_id, valor_prestigio, valor_ultra, criado_em
        FROM fases_historico
        WHERE tenant_id = $1
    `
	args := []any{tenantID}
	if corretorID != nil {
		query += ` AND corretor_id = $2 ORDER BY criado_em DESC LIMIT $3`
		args = append(args, *corretorID, limit)
	} else {
		query += ` ORDER BY criado_em DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entradas []HistoricoFase
	for rows.Next() {
		var h HistoricoFase
		if err := rows.Scan(
			&h.ID, &h.TenantID, &h.CorretorID, &h.FaseAnterior, &h.FaseNova,
			&h.TipoMudanca, &h.Motivo, &h.VendaID, &h.ValorPrestigio, &h.ValorUltra,
			&h.CriadoEm,
		); err != nil {
			return nil, err
		}
		entradas = append(entradas, h)
	}
	return entradas, rows.Err()
}

func scanConfig(row pgx.Row) (*ConfigFases, error) {
	var c ConfigFases
	if err := row.Scan(
		&c.TenantID, &c.Ativo, &c.ImovelPoolID, &c.ComissaoCorretor, &c.ComissaoEmpresa,
		&c.PesoFase1, &c.PesoFase2, &c.PesoFase3, &c.PesoFase4, &c.PesoFase5,
		&c.TentativasFase1, &c.MaxMesesSolitario, &c.CriadoEm, &c.AtualizadoEm,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanEstado(row pgx.Row) (*EstadoCorretor, error) {
	var e EstadoCorretor
	if err := row.Scan(
		&e.TenantID, &e.CorretorID, &e.Inscrito, &e.FaseAtual, &e.Solitario,
		&e.TentativasFase1, &e.MesesSolitarioSemVenda, &e.Prestigio,
		&e.ContadorVendasFase5, &e.RecordeUltra, &e.MesUltra, &e.VendasMes,
		&e.MesAcompanhamento, &e.InscritoEm,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &e, nil
}
