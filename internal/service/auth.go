package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
)

// SignupRequest is the payload for local registration.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role,omitempty"`
	Code     string `json:"code,omitempty" validate:"max=64"`
}

// LoginRequest is the payload for password sign-in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by every successful sign-in.
type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// AuthService defines identity and session operations.
type AuthService interface {
	Register(ctx context.Context, req SignupRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	GoogleLogin(ctx context.Context, credential string) (*TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, token string) error
	VerifyBearer(token string) (*Identity, error)
	Profile(ctx context.Context, identity *Identity) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GrantRole(ctx context.Context, email, role string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService JWTService
	hasher     PasswordHasher
	google     GoogleVerifier
	redis      *redis.Client

	// decoyOnce guards decoyHash, compared on sign-ins that have no stored
	// hash so they cost the same as a wrong password.
	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService creates a new AuthService instance. google may be nil,
// in which case federated sign-in always fails.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService JWTService,
	hasher PasswordHasher,
	google GoogleVerifier,
	redisClient *redis.Client,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		hasher:     hasher,
		google:     google,
		redis:      redisClient,
	}
}

func refreshTokenKey(userID string) string {
	return fmt.Sprintf("refresh_token:%s", userID)
}

func (s *authService) Register(ctx context.Context, req SignupRequest) (*TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.SelfAssignableRoles[role] {
		return nil, fmt.Errorf("%w: role %q cannot be requested at signup", ErrValidation, role)
	}

	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: user %s", ErrConflict, req.Email)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Code:         req.Code,
		AuthProvider: models.AuthProviderLocal,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user %s", ErrConflict, req.Email)
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.compareDecoy(req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.HasPassword() {
		s.compareDecoy(req.Password)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Compare(user.PasswordHash, req.Password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) compareDecoy(password string) {
	s.decoyOnce.Do(func() {
		s.decoyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	_, _ = s.hasher.Compare(s.decoyHash, password)
}

func (s *authService) GoogleLogin(ctx context.Context, credential string) (*TokenResponse, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: credential is required", ErrValidation)
	}
	if s.google == nil {
		return nil, fmt.Errorf("%w: google sign-in is not configured", ErrInvalidCredentials)
	}

	identity, err := s.google.Verify(ctx, credential)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, identity.Email)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.createFederatedUser(ctx, identity)
	}
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) createFederatedUser(ctx context.Context, identity *GoogleIdentity) (*models.User, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         identity.Name,
		Email:        identity.Email,
		Role:         models.RoleUser,
		AuthProvider: models.AuthProviderGoogle,
	}
	err := s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent sign-in created the account first.
		return s.userRepo.FindByEmail(ctx, identity.Email)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrUnauthorized)
	}

	storedToken, err := s.redis.Get(ctx, refreshTokenKey(claims.UserID)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && storedToken != refreshToken) {
		return nil, fmt.Errorf("%w: refresh token revoked", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: session store: %v", ErrUpstreamUnavailable, err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return err
	}

	if err := s.redis.Del(ctx, refreshTokenKey(claims.UserID)).Err(); err != nil {
		return fmt.Errorf("%w: session store: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}

func (s *authService) VerifyBearer(token string) (*Identity, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrUnauthorized)
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

func (s *authService) Profile(ctx context.Context, identity *Identity) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, identity.UserID)
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *authService) GrantRole(ctx context.Context, email, role string) error {
	return GrantRole(ctx, s.userRepo, email, role)
}

// GrantRole sets any known role, admin included. It is reachable only from
// the admin CLI.
func GrantRole(ctx context.Context, users repository.UserRepository, email, role string) error {
	if !models.IsValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	err := users.UpdateRole(ctx, normalizeEmail(email), role)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: user %s", ErrNotFound, email)
	}
	return err
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*TokenResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, refreshTokenKey(user.ID), refreshToken, s.jwtService.GetRefreshExpiry()).Err(); err != nil {
		return nil, fmt.Errorf("%w: session store: %v", ErrUpstreamUnavailable, err)
	}

	return &TokenResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.GetAccessExpiry().Seconds()),
		User:         user,
	}, nil
}
