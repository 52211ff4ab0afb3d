package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

var (
	ErrAdminExists   = repository.ErrAdminExists
	ErrAdminNotFound = repository.ErrAdminNotFound
	ErrWrongPassword = errors.New("wrong password")
	ErrWeakPassword  = errors.New("password must have at least 8 characters")
)

const minPasswordLength = 8

type AdminStore interface {
	Create(ctx context.Context, admin domain.Admin) (domain.Admin, error)
	FindByUsername(ctx context.Context, username string) (domain.Admin, error)
	FindByID(ctx context.Context, id uint) (domain.Admin, error)
}

type AuthService struct {
	repo AdminStore
}

func NewAuthService(repo AdminStore) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (domain.Admin, error) {
	username = strings.TrimSpace(username)
	if len(password) < minPasswordLength {
		return domain.Admin{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Admin{}, err
	}

	created, err := s.repo.Create(ctx, domain.Admin{Username: username, PasswordHash: string(hash)})
	if err != nil {
		return domain.Admin{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// EnsureAdmin creates the bootstrap admin unless one with that username already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (domain.Admin, error) {
	found, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, repository.ErrAdminNotFound) {
		return domain.Admin{}, fmt.Errorf("s.repo.FindByUsername -> %w", err)
	}

	created, err := s.CreateAdmin(ctx, username, password)
	if errors.Is(err, ErrAdminExists) {
		return s.repo.FindByUsername(ctx, username)
	}

	return created, err
}

func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Admin, error) {
	admin, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return domain.Admin{}, ErrWrongPassword
		}

		return domain.Admin{}, fmt.Errorf("s.repo.FindByUsername -> %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password))
	if err != nil {
		return domain.Admin{}, ErrWrongPassword
	}

	return admin, nil
}

func (s *AuthService) GetAdmin(ctx context.Context, id uint) (domain.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return admin, nil
}
