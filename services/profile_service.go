package services

import (
	"context"
	"dm-chat/auth"
	"dm-chat/contract"
	"dm-chat/domain"
)

type IProfileService interface {
	UserInfo(ctx context.Context, userID string) (domain.User, error)
	UpdateProfile(ctx context.Context, email string, req auth.ProfileRequest) (domain.User, error)
}

type ProfileService struct {
	users contract.IUserRepository
}

func NewProfileService(users contract.IUserRepository) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) UserInfo(ctx context.Context, userID string) (domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, email string, req auth.ProfileRequest) (domain.User, error) {
	if err := auth.Validate(req); err != nil {
		return domain.User{}, err
	}
	return s.users.UpdateByEmail(ctx, email, domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Color:     req.Color,
	})
}
