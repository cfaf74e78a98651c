package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso ao armazenamento de tenants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de tenants.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByDomain busca tenant pelo domínio normalizado.
func (r *Repository) GetByDomain(ctx context.Context, dominio string) (*Tenant, error) {
	const query = `
        SELECT id, slug, nome, dominio, status, settings, criado_em, atualizado_em
        FROM tenants
        WHERE dominio = $1
    `

	return scanTenant(r.pool.QueryRow(ctx, query, dominio))
}

// GetByID busca tenant pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	const query = `
        SELECT id, slug, nome, dominio, status, settings, criado_em, atualizado_em
        FROM tenants
        WHERE id = $1
    `

	return scanTenant(r.pool.QueryRow(ctx, query, id))
}

// GetBySlug busca tenant pelo slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	const query = `
        SELECT id, slug, nome, dominio, status, settings, criado_em, atualizado_em
        FROM tenants
        WHERE slug = $1
    `

	return scanTenant(r.pool.QueryRow(ctx, query, slug))
}

// List devolve todos os tenants ordenados por criação.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	const query = `
        SELECT id, slug, nome, dominio, status, settings, criado_em, atualizado_em
        FROM tenants
        ORDER BY criado_em DESC
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}

	return tenants, rows.Err()
}

// Create insere um novo tenant e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, input CreateTenantInput) (*Tenant, error) {
	const query = `
        INSERT INTO tenants (slug, nome, dominio, status, settings)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, slug, nome, dominio, status, settings, criado_em, atualizado_em
    `

	settingsJSON, err := jsonMarshalMap(input.Settings)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(strings.ToLower(input.Slug)),
		strings.TrimSpace(input.Nome),
		strings.TrimSpace(strings.ToLower(input.Dominio)),
		strings.TrimSpace(strings.ToLower(input.Status)),
		settingsJSON,
	)

	return scanTenant(row)
}

// UpdateSettings atualiza apenas o campo settings e o timestamp.
func (r *Repository) UpdateSettings(ctx context.Context, tenantID uuid.UUID, settings map[string]any) error {
	const query = `
        UPDATE tenants
        SET settings = $2,
            atualizado_em = $3
        WHERE id = $1
    `

	settingsJSON, err := jsonMarshalMap(settings)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query, tenantID, settingsJSON, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var (
		t           Tenant
		settingsRaw []byte
	)

	if err := row.Scan(&t.ID, &t.Slug, &t.Nome, &t.Dominio, &t.Status, &settingsRaw, &t.CriadoEm, &t.AtualizadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	settings, err := decodeJSONMap(settingsRaw)
	if err != nil {
		return nil, err
	}
	t.Settings = settings

	return &t, nil
}

func decodeJSONMap(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return map[string]any{}, nil
	}
	return result, nil
}

func jsonMarshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
