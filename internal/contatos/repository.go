package contatos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso SQL aos contatos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria repositório de contatos.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contatoColumns = `
    id, tenant_id, nome, email, telefone, lead_pool, origem_lead,
    corretor_atribuido, atribuido_em, criado_em
`

// Get busca contato pelo id dentro do tenant.
func (r *Repository) Get(ctx context.Context, tenantID, contatoID uuid.UUID) (*Contato, error) {
	query := `SELECT ` + contatoColumns + ` FROM contatos WHERE tenant_id = $1 AND id = $2`

	return scanContato(r.pool.QueryRow(ctx, query, tenantID, contatoID))
}

// ListLeadsPool devolve contatos marcados como lead do pool.
func (r *Repository) ListLeadsPool(ctx context.Context, tenantID uuid.UUID, somenteSemCorretor bool) ([]Contato, error) {
	query := `SELECT ` + contatoColumns + ` FROM contatos WHERE tenant_id = $1 AND lead_pool`
	if somenteSemCorretor {
		query += ` AND corretor_atribuido IS NULL`
	}
	query += ` ORDER BY criado_em DESC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contatos []Contato
	for rows.Next() {
		c, err := scanContato(rows)
		if err != nil {
			return nil, err
		}
		contatos = append(contatos, *c)
	}
	return contatos, rows.Err()
}

// MarcarLeadPool sinaliza o contato como lead do pool com a origem informada.
func (r *Repository) MarcarLeadPool(ctx context.Context, tenantID, contatoID uuid.UUID, origem string) (*Contato, error) {
	query := `
        UPDATE contatos
        SET lead_pool = TRUE,
            origem_lead = $3
        WHERE tenant_id = $1 AND id = $2
        RETURNING ` + contatoColumns

	return scanContato(r.pool.QueryRow(ctx, query, tenantID, contatoID, origem))
}

// AtribuirLead grava o corretor responsável. Reatribuição sobrescreve;
// leads nunca são desatribuídos automaticamente.
func (r *Repository) AtribuirLead(ctx context.Context, tenantID, contatoID, corretorID uuid.UUID) (*Contato, error) {
	query := `
        UPDATE contatos
        SET corretor_atribuido = $3,
            atribuido_em = $4
        WHERE tenant_id = $1 AND id = $2 AND lead_pool
        RETURNING ` + contatoColumns

	contato, err := scanContato(r.pool.QueryRow(ctx, query, tenantID, contatoID, corretorID, time.Now()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Distingue contato inexistente de contato fora do pool.
			if _, getErr := r.Get(ctx, tenantID, contatoID); getErr == nil {
				return nil, ErrNaoLeadPool
			}
			return nil, ErrNotFound
		}
		return nil, err
	}
	return contato, nil
}

func scanContato(row pgx.Row) (*Contato, error) {
	var c Contato
	if err := row.Scan(
		&c.ID, &c.TenantID, &c.Nome, &c.Email, &c.Telefone, &c.LeadPool,
		&c.OrigemLead, &c.CorretorAtribuido, &c.AtribuidoEm, &c.CriadoEm,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
