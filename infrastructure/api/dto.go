package api

import (
	"dm-chat/domain"
	"time"

	"github.com/samber/lo"
)

// UserResponse is the public view of a user. The password hash never leaves the server.
type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Color        string    `json:"color"`
	ProfileSetup bool      `json:"profileSetup"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ContactResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Color     string `json:"color"`
}

type SearchRequest struct {
	SearchTerm string `json:"searchTerm"`
}

type ConversationRequest struct {
	ID string `json:"id"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Color:        u.Color,
		ProfileSetup: u.ProfileSetup,
		CreatedAt:    u.CreatedAt,
	}
}

func toContacts(users []domain.User) []ContactResponse {
	return lo.Map(users, func(u domain.User, _ int) ContactResponse {
		return ContactResponse{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Color:     u.Color,
		}
	})
}

func toMessages(messages []domain.Message) []domain.MessageReceived {
	return lo.Map(messages, func(m domain.Message, _ int) domain.MessageReceived {
		return domain.NewMessageReceived(m)
	})
}
