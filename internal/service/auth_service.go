package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/clicimobiliaria/crm/internal/auth"
	"github.com/clicimobiliaria/crm/internal/repo"
)

// AudienceCRM é a única audience emitida pela API.
const AudienceCRM = "crm"

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrNoEligibleRoles indica ausência de papéis autorizados.
	ErrNoEligibleRoles = errors.New("usuário sem papel elegível")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	ListVinculosByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]repo.TenantVinculo, error)
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	Subject       uuid.UUID
	Roles         []string
	Profile       *Profile
	RefreshExpiry time.Time
}

// Profile descreve o usuário logado e suas imobiliárias.
type Profile struct {
	ID       string        `json:"id"`
	Nome     string        `json:"nome"`
	Email    string        `json:"email"`
	Vinculos []TenantPapel `json:"vinculos"`
}

// TenantPapel apresenta vínculo e papel.
type TenantPapel struct {
	TenantID string `json:"tenant_id"`
	Nome     string `json:"nome"`
	Slug     string `json:"slug"`
	Papel    string `json:"papel"`
}

// Login autentica usuário do CRM por e-mail e senha.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	return s.loginFromUser(ctx, user)
}

func (s *AuthService) loginFromUser(ctx context.Context, user repo.Usuario) (*LoginResult, error) {
	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	profile, roles, err := s.profileAndRoles(ctx, user)
	if err != nil {
		return nil, err
	}

	token, _, err := s.jwt.GenerateAccessToken(user.ID.String(), AudienceCRM, roles)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, user.ID, refreshHash, expires); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		Subject:       user.ID,
		Roles:         roles,
		Profile:       profile,
		RefreshExpiry: expires,
	}, nil
}

// Refresh troca refresh token válido por novos tokens.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revogado || time.Now().UTC().After(record.Expiracao) || record.Audience != AudienceCRM {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(AudienceCRM, hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUsuarioByID(ctx, record.Subject)
	if err != nil {
		return nil, err
	}

	result, err := s.loginFromUser(ctx, user)
	if err != nil {
		return nil, err
	}

	// Revoga token anterior (DB + Redis).
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revoga refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	redisKey := auth.RefreshRedisKey(AudienceCRM, hash)
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe retorna perfil completo do subject autenticado.
func (s *AuthService) GetMe(ctx context.Context, subject uuid.UUID) (*Profile, []string, error) {
	user, err := s.repo.GetUsuarioByID(ctx, subject)
	if err != nil {
		return nil, nil, err
	}
	profile, roles, err := s.profileAndRoles(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return profile, roles, nil
}

func (s *AuthService) profileAndRoles(ctx context.Context, user repo.Usuario) (*Profile, []string, error) {
	vinculos, err := s.repo.ListVinculosByUsuario(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	roles := buildRolesFromVinculos(vinculos)
	if len(roles) == 0 {
		return nil, nil, ErrNoEligibleRoles
	}

	profile := &Profile{
		ID:    user.ID.String(),
		Nome:  user.Nome,
		Email: user.Email,
	}
	for _, v := range vinculos {
		profile.Vinculos = append(profile.Vinculos, TenantPapel{
			TenantID: v.TenantID.String(),
			Nome:     v.TenantNome,
			Slug:     v.Slug,
			Papel:    v.Papel,
		})
	}

	return profile, roles, nil
}

func (s *AuthService) persistRefresh(ctx context.Context, subject uuid.UUID, hash string, expires time.Time) error {
	_, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		Subject:   subject,
		Audience:  AudienceCRM,
		TokenHash: hash,
		Expiracao: expires,
	})
	if err != nil {
		return err
	}

	if err := s.repo.InvalidateOtherRefreshTokens(ctx, subject, AudienceCRM, hash); err != nil {
		return err
	}

	return s.redis.Set(ctx, auth.RefreshRedisKey(AudienceCRM, hash), "active", time.Until(expires)).Err()
}

func buildRolesFromVinculos(vinculos []repo.TenantVinculo) []string {
	roles := make([]string, 0, len(vinculos))
	for _, v := range vinculos {
		role := strings.ToUpper(strings.TrimSpace(v.Papel))
		if role == "" {
			continue
		}
		roles = appendIfMissing(roles, role)
	}
	return roles
}

func appendIfMissing(values []string, value string) []string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return values
	}
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
