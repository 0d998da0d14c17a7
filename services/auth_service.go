package services

import (
	"context"
	"dm-chat/auth"
	"dm-chat/contract"
	"dm-chat/domain"
	"dm-chat/errors"
	"fmt"
	"log/slog"
)

type IAuthService interface {
	Signup(ctx context.Context, creds auth.Credentials) (domain.User, string, error)
	Login(ctx context.Context, creds auth.Credentials) (domain.User, string, error)
}

// TokenIssuer is the signing half of the token service.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type AuthService struct {
	users  contract.IUserRepository
	hasher auth.PasswordHasher
	tokens TokenIssuer
	log    *slog.Logger
}

func NewAuthService(users contract.IUserRepository, hasher auth.PasswordHasher, tokens TokenIssuer, log *slog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

// Signup creates the account and logs it in right away.
func (s *AuthService) Signup(ctx context.Context, creds auth.Credentials) (domain.User, string, error) {
	creds.Email = domain.NormalizeEmail(creds.Email)

	// 1. Validate before any expensive cryptographic operation
	if err := auth.Validate(creds); err != nil {
		return domain.User{}, "", err
	}

	// 2. Hash in the service layer so the store never sees plain passwords
	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist, ErrConflict propagates when the email is taken
	user, err := s.users.CreateUser(ctx, domain.User{Email: creds.Email, PasswordHash: hash})
	if err != nil {
		return domain.User{}, "", err
	}

	// 4. Issue the initial session token
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %w", errors.ErrTokenGeneration, err)
	}
	s.log.Info("User signed up", "user_id", user.ID)
	return user, token, nil
}

// Login distinguishes an unknown email (ErrNotFound) from a wrong password (ErrInvalidPassword).
func (s *AuthService) Login(ctx context.Context, creds auth.Credentials) (domain.User, string, error) {
	creds.Email = domain.NormalizeEmail(creds.Email)
	if err := auth.Validate(auth.LoginRequest{Email: creds.Email, Password: creds.Password}); err != nil {
		return domain.User{}, "", err
	}

	user, err := s.users.FindByEmail(ctx, creds.Email)
	if err != nil {
		return domain.User{}, "", err
	}

	match, err := s.hasher.Compare(creds.Password, user.PasswordHash)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %w", errors.ErrStore, err)
	}
	if !match {
		return domain.User{}, "", errors.ErrInvalidPassword
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %w", errors.ErrTokenGeneration, err)
	}
	s.log.Debug("User logged in", "user_id", user.ID)
	return user, token, nil
}
