package auth

import (
	"context"
	"errors"
	"strings"
)

// Service contains all business logic for authentication
type Service struct {
	users   UserRepositoryInterface
	jwt     jwtService
	isAdmin func(email string) bool
}

// NewService wires the auth service. isAdmin decides the role given at
// registration; nil means nobody is an admin.
func NewService(users UserRepositoryInterface, jwt jwtService, isAdmin func(email string) bool) *Service {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &Service{users: users, jwt: jwt, isAdmin: isAdmin}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := RoleUser
	if s.isAdmin(email) {
		role = RoleAdmin
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = email
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) issue(user *User) (*AuthResult, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}
