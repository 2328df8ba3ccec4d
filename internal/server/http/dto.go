package http

import (
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type joinRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=256"`
	DisplayName string `json:"display_name" binding:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=256"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended deleted"`
}

type tokenResponse struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	ExpiredAt        time.Time `json:"expired_at"`
	RefreshableUntil time.Time `json:"refreshable_until"`
}

type principalResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type authorizedResponse struct {
	principalResponse
	Token tokenResponse `json:"token"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

func newPrincipalResponse(p *models.Principal) principalResponse {
	return principalResponse{
		ID:          p.ID,
		Email:       p.Email,
		Role:        p.Role,
		Status:      string(p.Status),
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
	}
}

func newAuthorizedResponse(a *models.Authorized) authorizedResponse {
	return authorizedResponse{
		principalResponse: newPrincipalResponse(a.Principal),
		Token: tokenResponse{
			Access:           a.Token.Access,
			Refresh:          a.Token.Refresh,
			ExpiredAt:        a.Token.ExpiredAt,
			RefreshableUntil: a.Token.RefreshableUntil,
		},
	}
}

func newSessionResponse(s *models.Session, currentID string) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		Current:   s.ID == currentID,
	}
}
