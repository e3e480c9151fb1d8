package handler

import (
	"time"

	"github.com/sebav/tienda/internal/domain"
)

// UserDTO is the JSON representation of an account. The stored password
// never leaves the server.
type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// SessionDTO is the JSON representation of the session marker.
type SessionDTO struct {
	Email     string `json:"email"`
	LoginTime string `json:"loginTime"`
}

func toSessionDTO(s *domain.Session) SessionDTO {
	return SessionDTO{
		Email:     s.Email,
		LoginTime: s.LoginTime.Format(time.RFC3339),
	}
}

// CartDTO is the JSON representation of the cart with its derived totals.
type CartDTO struct {
	Items []domain.CartLine `json:"items"`
	Count int               `json:"count"`
	Total float64           `json:"total"`
}

// StatsDTO is the JSON representation of the account statistics.
type StatsDTO struct {
	TotalUsers     int     `json:"totalUsers"`
	LastRegistered *string `json:"lastRegistered"`
}

func toStatsDTO(s domain.UserStats) StatsDTO {
	dto := StatsDTO{TotalUsers: s.TotalUsers}
	if s.LastRegistered != nil {
		formatted := s.LastRegistered.Format(time.RFC3339)
		dto.LastRegistered = &formatted
	}
	return dto
}
