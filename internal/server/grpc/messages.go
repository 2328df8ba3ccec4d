package grpc

import "time"

type JoinRequest struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type LoginRequest struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Role    string `json:"role"`
	Refresh string `json:"refresh"`
}

type LogoutRequest struct {
	Role    string `json:"role"`
	Refresh string `json:"refresh"`
}

type LogoutAllRequest struct {
	Role string `json:"role"`
}

type ChangePasswordRequest struct {
	Role        string `json:"role"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (r *JoinRequest) GetRole() string           { return r.Role }
func (r *LoginRequest) GetRole() string          { return r.Role }
func (r *RefreshRequest) GetRole() string        { return r.Role }
func (r *LogoutRequest) GetRole() string         { return r.Role }
func (r *LogoutAllRequest) GetRole() string      { return r.Role }
func (r *ChangePasswordRequest) GetRole() string { return r.Role }

type Token struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	ExpiredAt        time.Time `json:"expired_at"`
	RefreshableUntil time.Time `json:"refreshable_until"`
}

type AuthorizedResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	Token       Token     `json:"token"`
}

type Empty struct{}
