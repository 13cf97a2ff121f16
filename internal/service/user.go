package service

import (
	"context"
	"fmt"

	"github.com/felicity-portal/felicity-api/internal/domain"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindParticipantByID(ctx context.Context, id uint) (domain.Participant, error)
	FindOrganiserByID(ctx context.Context, id uint) (domain.Organiser, error)
	FindOrganisers(ctx context.Context) ([]domain.Organiser, error)
	UpdateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error)
	UpdateOrganiser(ctx context.Context, o domain.Organiser) (domain.Organiser, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) GetParticipant(ctx context.Context, id uint) (domain.Participant, error) {
	participant, err := s.repo.FindParticipantByID(ctx, id)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.repo.FindParticipantByID -> %w", err)
	}

	return participant, nil
}

func (s *UserService) GetOrganiser(ctx context.Context, id uint) (domain.Organiser, error) {
	organiser, err := s.repo.FindOrganiserByID(ctx, id)
	if err != nil {
		return domain.Organiser{}, fmt.Errorf("s.repo.FindOrganiserByID -> %w", err)
	}

	return organiser, nil
}

func (s *UserService) ListOrganisers(ctx context.Context) ([]domain.Organiser, error) {
	organisers, err := s.repo.FindOrganisers(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindOrganisers -> %w", err)
	}

	return organisers, nil
}

func (s *UserService) UpdateParticipantProfile(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	updated, err := s.repo.UpdateParticipant(ctx, p)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.repo.UpdateParticipant -> %w", err)
	}

	return updated, nil
}

func (s *UserService) UpdateOrganiserProfile(ctx context.Context, o domain.Organiser) (domain.Organiser, error) {
	updated, err := s.repo.UpdateOrganiser(ctx, o)
	if err != nil {
		return domain.Organiser{}, fmt.Errorf("s.repo.UpdateOrganiser -> %w", err)
	}

	return updated, nil
}
