package dto

import "github.com/taskloop/taskloop/internal/api/validation"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r RegisterRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Email is invalid"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if ok, msg := validation.IsValidPassword(r.Password); !ok {
		errors["password"] = msg
	}
	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type ProviderLoginRequest struct {
	AccessToken string `json:"access_token"`
}

func (r ProviderLoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.AccessToken == "" {
		errors["access_token"] = "Access token is required"
	}

	return errors
}

type ResetRequestRequest struct {
	Email string `json:"email"`
}

func (r ResetRequestRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Email is invalid"
	}

	return errors
}

type ResetVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r ResetVerifyRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Code == "" {
		errors["code"] = "Code is required"
	} else if !validation.IsValidResetCode(r.Code) {
		errors["code"] = "Code must be 4 digits"
	}

	return errors
}

type ResetConsumeRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (r ResetConsumeRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Code == "" {
		errors["code"] = "Code is required"
	} else if !validation.IsValidResetCode(r.Code) {
		errors["code"] = "Code must be 4 digits"
	}
	if r.NewPassword == "" {
		errors["new_password"] = "New password is required"
	} else if ok, msg := validation.IsValidPassword(r.NewPassword); !ok {
		errors["new_password"] = msg
	}

	return errors
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}
