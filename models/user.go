package models

import "time"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"

	AuthProviderLocal  = "local"
	AuthProviderGoogle = "google"
	AuthProviderPhone  = "phone"
)

type User struct {
	ID            string     `json:"id"`
	Email         *string    `json:"email"`
	PhoneNumber   *string    `json:"phone_number"`
	FullName      *string    `json:"full_name"`
	Address       *string    `json:"address"`
	PasswordHash  *string    `json:"-"`
	RoleID        int64      `json:"role_id"`
	RoleName      string     `json:"role"`
	AuthProvider  string     `json:"auth_provider"`
	GoogleID      *string    `json:"-"`
	GooglePicture *string    `json:"google_picture,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

// DisplayName is the full name when known, else the email, else the phone.
func (u *User) DisplayName() string {
	switch {
	case u.FullName != nil && *u.FullName != "":
		return *u.FullName
	case u.Email != nil && *u.Email != "":
		return *u.Email
	case u.PhoneNumber != nil:
		return *u.PhoneNumber
	}
	return ""
}

type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Address      string `json:"address"`
	Role         string `json:"role"`
	AuthProvider string `json:"auth_provider"`
}

func NewUserResponse(u *User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		FullName:     u.DisplayName(),
		Role:         u.RoleName,
		AuthProvider: u.AuthProvider,
	}
	if u.Email != nil {
		resp.Email = *u.Email
	}
	if u.Address != nil {
		resp.Address = *u.Address
	}
	return resp
}

type Role struct {
	ID          int64      `json:"role_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	UserCount   int        `json:"user_count"`
}

type RoleRequest struct {
	Name        string  `json:"name" binding:"required,max=50"`
	Description *string `json:"description" binding:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active"`
}

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	FullName string  `json:"full_name"`
	Address  *string `json:"address"`
	Role     string  `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleAuthRequest struct {
	GoogleID string `json:"google_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

type PhoneSendCodeRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,e164"`
}

type PhoneVerifyRequest struct {
	SessionID        string `json:"session_id" binding:"required"`
	PhoneNumber      string `json:"phone_number" binding:"required,e164"`
	VerificationCode string `json:"verification_code" binding:"required,len=6,numeric"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type AuthResponse struct {
	Token        string    `json:"token"`
	Expiration   time.Time `json:"expiration"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	AuthProvider string    `json:"auth_provider"`
	IsNewUser    bool      `json:"is_new_user"`
}

type PhoneSendCodeResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}
