package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	FindByRole(ctx context.Context, role string) ([]dao.User, error)
	Update(ctx context.Context, user dao.User) (dao.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	DeleteOrganiser(ctx context.Context, id uint) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) CreateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Email:         p.Email,
		Password:      p.Password,
		Name:          p.Name,
		Role:          domain.RoleParticipant.String(),
		Interests:     encodeJSON(p.Interests),
		FollowedClubs: encodeJSON(p.FollowedClubs),
	})
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.participantDaoToDomain(created), nil
}

func (r *UserRepository) CreateOrganiser(ctx context.Context, o domain.Organiser) (domain.Organiser, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Email:             o.Email,
		Password:          o.Password,
		Name:              o.Name,
		Role:              domain.RoleOrganiser.String(),
		Category:          o.Category,
		Description:       o.Description,
		ContactEmail:      o.ContactEmail,
		ContactNumber:     o.ContactNumber,
		DiscordWebhookURL: o.DiscordWebhookURL,
	})
	if err != nil {
		return domain.Organiser{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.organiserDaoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindParticipantByID(ctx context.Context, id uint) (domain.Participant, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.participantDaoToDomain(found), nil
}

func (r *UserRepository) FindOrganiserByID(ctx context.Context, id uint) (domain.Organiser, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Organiser{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.organiserDaoToDomain(found), nil
}

func (r *UserRepository) FindOrganisers(ctx context.Context) ([]domain.Organiser, error) {
	found, err := r.dao.FindByRole(ctx, domain.RoleOrganiser.String())
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByRole -> %w", err)
	}

	organisers := make([]domain.Organiser, len(found))
	for i, u := range found {
		organisers[i] = r.organiserDaoToDomain(u)
	}

	return organisers, nil
}

func (r *UserRepository) UpdateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	existing, err := r.dao.FindByID(ctx, p.ID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	existing.Name = p.Name
	existing.Interests = encodeJSON(p.Interests)
	existing.FollowedClubs = encodeJSON(p.FollowedClubs)

	updated, err := r.dao.Update(ctx, existing)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.participantDaoToDomain(updated), nil
}

func (r *UserRepository) UpdateOrganiser(ctx context.Context, o domain.Organiser) (domain.Organiser, error) {
	existing, err := r.dao.FindByID(ctx, o.ID)
	if err != nil {
		return domain.Organiser{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	existing.Name = o.Name
	existing.Category = o.Category
	existing.Description = o.Description
	existing.ContactEmail = o.ContactEmail
	existing.ContactNumber = o.ContactNumber
	existing.DiscordWebhookURL = o.DiscordWebhookURL

	updated, err := r.dao.Update(ctx, existing)
	if err != nil {
		return domain.Organiser{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.organiserDaoToDomain(updated), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	if err := r.dao.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("r.dao.UpdatePassword -> %w", err)
	}

	return nil
}

func (r *UserRepository) DeleteOrganiser(ctx context.Context, id uint) error {
	if err := r.dao.DeleteOrganiser(ctx, id); err != nil {
		return fmt.Errorf("r.dao.DeleteOrganiser -> %w", err)
	}

	return nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	role, ok := domain.ParseRole(u.Role)
	if !ok {
		role = domain.RoleParticipant
	}

	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.Password,
		Name:      u.Name,
		Role:      role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *UserRepository) participantDaoToDomain(u dao.User) domain.Participant {
	return domain.Participant{
		User:          r.daoToDomain(u),
		Interests:     decodeStrings(u.Interests),
		FollowedClubs: decodeUints(u.FollowedClubs),
	}
}

func (r *UserRepository) organiserDaoToDomain(u dao.User) domain.Organiser {
	return domain.Organiser{
		User:              r.daoToDomain(u),
		Category:          u.Category,
		Description:       u.Description,
		ContactEmail:      u.ContactEmail,
		ContactNumber:     u.ContactNumber,
		DiscordWebhookURL: u.DiscordWebhookURL,
	}
}

func encodeJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(data)
}

func decodeStrings(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}

	return out
}

func decodeUints(s string) []uint {
	if s == "" {
		return nil
	}

	var out []uint
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}

	return out
}
