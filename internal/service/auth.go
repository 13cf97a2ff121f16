package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrUserNotFound    = repository.ErrUserNotFound
	ErrWrongPassword   = errors.New("wrong password")
	ErrNotAnOrganiser  = errors.New("user is not an organiser")
)

type AuthUserRepository interface {
	CreateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error)
	CreateOrganiser(ctx context.Context, o domain.Organiser) (domain.Organiser, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	DeleteOrganiser(ctx context.Context, id uint) error
}

type AuthService struct {
	repo AuthUserRepository
}

func NewAuthService(repo AuthUserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

func (s *AuthService) SignupParticipant(ctx context.Context, p domain.Participant) (domain.User, error) {
	hashed, err := hashPassword(p.Password)
	if err != nil {
		return domain.User{}, err
	}
	p.Password = hashed

	created, err := s.repo.CreateParticipant(ctx, p)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.CreateParticipant -> %w", err)
	}

	return created.User, nil
}

// ProvisionOrganiser creates an organiser (club) account. Only reachable via
// the admin surface; the handler enforces the role check.
func (s *AuthService) ProvisionOrganiser(ctx context.Context, o domain.Organiser) (domain.Organiser, error) {
	hashed, err := hashPassword(o.Password)
	if err != nil {
		return domain.Organiser{}, err
	}
	o.Password = hashed

	created, err := s.repo.CreateOrganiser(ctx, o)
	if err != nil {
		return domain.Organiser{}, fmt.Errorf("s.repo.CreateOrganiser -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}

// ResetOrganiserPassword replaces an organiser's password with a random
// temporary one, returned exactly once to the admin.
func (s *AuthService) ResetOrganiserPassword(ctx context.Context, organiserID uint) (string, error) {
	user, err := s.repo.FindByID(ctx, organiserID)
	if err != nil {
		return "", fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if user.Role != domain.RoleOrganiser {
		return "", ErrNotAnOrganiser
	}

	password, err := temporaryPassword()
	if err != nil {
		return "", err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	if err = s.repo.UpdatePassword(ctx, organiserID, hashed); err != nil {
		return "", fmt.Errorf("s.repo.UpdatePassword -> %w", err)
	}

	return password, nil
}

// DeleteOrganiser removes the organiser account, cascading its events and
// their registrations.
func (s *AuthService) DeleteOrganiser(ctx context.Context, organiserID uint) error {
	user, err := s.repo.FindByID(ctx, organiserID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if user.Role != domain.RoleOrganiser {
		return ErrNotAnOrganiser
	}

	if err = s.repo.DeleteOrganiser(ctx, organiserID); err != nil {
		return fmt.Errorf("s.repo.DeleteOrganiser -> %w", err)
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func temporaryPassword() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand.Read -> %w", err)
	}

	return hex.EncodeToString(buf), nil
}
