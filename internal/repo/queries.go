package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries concentra acesso SQL às tabelas de usuários e sessões.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria Queries sobre o pool informado.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// GetUsuarioByEmail busca usuário pelo e-mail normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	const query = `
        SELECT id, nome, email, senha_hash, ativo, criado_em
        FROM usuarios
        WHERE email = $1
    `

	row := q.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	return scanUsuario(row)
}

// GetUsuarioByID busca usuário pelo identificador.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	const query = `
        SELECT id, nome, email, senha_hash, ativo, criado_em
        FROM usuarios
        WHERE id = $1
    `

	row := q.pool.QueryRow(ctx, query, id)
	return scanUsuario(row)
}

// ListVinculosByUsuario devolve as imobiliárias às quais o usuário pertence.
func (q *Queries) ListVinculosByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]TenantVinculo, error) {
	const query = `
        SELECT ut.tenant_id, t.nome, t.slug, ut.papel
        FROM usuarios_tenants ut
        JOIN tenants t ON t.id = ut.tenant_id
        WHERE ut.usuario_id = $1 AND ut.ativo
        ORDER BY t.nome
    `

	rows, err := q.pool.Query(ctx, query, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vinculos []TenantVinculo
	for rows.Next() {
		var v TenantVinculo
		if err := rows.Scan(&v.TenantID, &v.TenantNome, &v.Slug, &v.Papel); err != nil {
			return nil, err
		}
		vinculos = append(vinculos, v)
	}
	return vinculos, rows.Err()
}

// HasVinculo verifica se o usuário pertence ao tenant.
func (q *Queries) HasVinculo(ctx context.Context, usuarioID, tenantID uuid.UUID) (bool, error) {
	const query = `
        SELECT EXISTS(
            SELECT 1 FROM usuarios_tenants
            WHERE usuario_id = $1 AND tenant_id = $2 AND ativo
        )
    `

	var exists bool
	if err := q.pool.QueryRow(ctx, query, usuarioID, tenantID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// InsertRefreshToken grava refresh token já hasheado.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (TokenRefresh, error) {
	const query = `
        INSERT INTO tokens_refresh (subject, audience, token_hash, expiracao)
        VALUES ($1, $2, $3, $4)
        RETURNING id, subject, audience, token_hash, expiracao, criado_em, revogado
    `

	row := q.pool.QueryRow(ctx, query, arg.Subject, arg.Audience, arg.TokenHash, arg.Expiracao)
	return scanTokenRefresh(row)
}

// GetRefreshTokenByHash busca refresh válido pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	const query = `
        SELECT id, subject, audience, token_hash, expiracao, criado_em, revogado
        FROM tokens_refresh
        WHERE token_hash = $1
    `

	row := q.pool.QueryRow(ctx, query, tokenHash)
	return scanTokenRefresh(row)
}

// RevokeRefreshToken marca o token como revogado.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	const query = `
        UPDATE tokens_refresh SET revogado = TRUE WHERE token_hash = $1
    `

	_, err := q.pool.Exec(ctx, query, tokenHash)
	return err
}

// InvalidateOtherRefreshTokens revoga sessões antigas do mesmo subject.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	const query = `
        UPDATE tokens_refresh
        SET revogado = TRUE
        WHERE subject = $1 AND audience = $2 AND token_hash <> $3 AND NOT revogado
    `

	_, err := q.pool.Exec(ctx, query, subject, audience, keepHash)
	return err
}

// DeleteExpiredRefreshTokens limpa tokens vencidos.
func (q *Queries) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) error {
	const query = `
        DELETE FROM tokens_refresh WHERE expiracao < $1
    `

	_, err := q.pool.Exec(ctx, query, before)
	return err
}

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	if err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Ativo, &u.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

func scanTokenRefresh(row pgx.Row) (TokenRefresh, error) {
	var t TokenRefresh
	if err := row.Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenRefresh{}, ErrNotFound
		}
		return TokenRefresh{}, err
	}
	return t, nil
}
