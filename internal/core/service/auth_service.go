package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

// Claims is the signed session payload. Capabilities are resolved at login
// and travel with the token so requests never re-derive them.
type Claims struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"cargo"`
	Capabilities []string    `json:"caps"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login and session validation.
type AuthService struct {
	accounts  ports.AccountRepository
	roles     ports.RoleRepository
	revoker   ports.TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(
	accounts ports.AccountRepository,
	roles ports.RoleRepository,
	revoker ports.TokenRevoker,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		accounts:  accounts,
		roles:     roles,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if in.RoleID == "" && in.LegacyRole == "" {
		return nil, domain.NewValidationError("cargo", "is required")
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Active:       true,
		PasswordHash: string(hash),
		RoleID:       in.RoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.RoleID == "" {
		account.Cargo = domain.LegacyRole(in.LegacyRole)
	}

	role, err := s.resolveRole(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", account.ID).Str("cargo", role.Canonical().Name).Bool("legacy_cargo", role.IsLegacy()).Msg("account registered")
	u := account.ToUser(role)
	return &u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !account.Active {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	role, err := s.resolveRole(ctx, account)
	if err != nil {
		return nil, err
	}

	session, err := s.issue(account.ToUser(role))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", account.ID).Str("landing", session.Landing()).Msg("login")
	return session, nil
}

// Logout revokes the session token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil || session.TokenID == "" {
		return domain.ErrUnauthenticated
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, session.TokenID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", session.UserID()).Msg("logout")
	return nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthenticated
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("token_id", claims.ID).Msg("revocation check failed")
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if revoked {
		return nil, domain.ErrUnauthenticated
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &domain.Session{
		TokenID: claims.ID,
		Token:   token,
		User: domain.User{
			ID:     claims.Subject,
			Name:   claims.Name,
			Email:  claims.Email,
			Active: true,
			Role:   claims.Role,
		},
		Capabilities: claims.Capabilities,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *AuthService) issue(u domain.User) (*domain.Session, error) {
	now := s.now()
	session := domain.NewSession(u, "", uuid.NewString(), now.Add(s.tokenTTL))

	claims := Claims{
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Capabilities: session.Capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.TokenID,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}
	session.Token = token
	return session, nil
}

// resolveRole prefers the structured role referenced by RoleID and falls
// back to whatever shape is embedded in the account.
func (s *AuthService) resolveRole(ctx context.Context, account *domain.Account) (domain.RoleRef, error) {
	if account.RoleID != "" {
		role, err := s.roles.FindByID(ctx, account.RoleID)
		switch {
		case err == nil:
			return domain.StructuredRole(*role), nil
		case !errors.Is(err, domain.ErrRoleNotFound):
			return domain.RoleRef{}, fmt.Errorf("resolve role: %w", err)
		}
		if account.Cargo.IsZero() {
			return domain.RoleRef{}, domain.ErrRoleNotFound
		}
		s.log.Warn().Str("user_id", account.ID).Str("role_id", account.RoleID).Msg("role not found, using embedded cargo")
	}
	return account.Cargo, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
