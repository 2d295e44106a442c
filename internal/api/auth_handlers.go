package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates a member account. There is no email verification.",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.authRateLimit},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user, returns access and refresh tokens and sets the session cookie",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.authRateLimit},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens. The refresh token is rotated.",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.authRateLimit},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the current session and clears the session cookie",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleLogout)
}

// === DTOs ===

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email           string `json:"email,omitempty" doc:"Email address, used to log in"`
	Password        string `json:"password,omitempty" doc:"Password, at least 3 characters"`
	ConfirmPassword string `json:"confirm_password,omitempty" doc:"Must equal password"`
	Name            string `json:"name,omitempty" doc:"Display name"`
	Phone           string `json:"phone,omitempty" doc:"Phone number"`
	DateOfBirth     string `json:"date_of_birth,omitempty" doc:"Date of birth (YYYY-MM-DD)"`
	Gender          string `json:"gender,omitempty" doc:"male, female or other"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email,omitempty" doc:"User email"`
	Password string `json:"password,omitempty" doc:"User password"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body      LoginRequest
	UserAgent string `header:"User-Agent"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	Body RefreshRequest
}

// AuthOutput carries tokens and the session cookie.
type AuthOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      *service.AuthResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// LogoutOutput clears the session cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:           input.Body.Email,
		Password:        input.Body.Password,
		ConfirmPassword: input.Body.ConfirmPassword,
		Name:            input.Body.Name,
		Phone:           input.Body.Phone,
		DateOfBirth:     input.Body.DateOfBirth,
		Gender:          input.Body.Gender,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Client:   service.ClientInfo{UserAgent: input.UserAgent},
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{SetCookie: s.sessionCookie(resp.AccessToken, resp.ExpiresAt), Body: resp}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Refresh(ctx, input.Body.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{SetCookie: s.sessionCookie(resp.AccessToken, resp.ExpiresAt), Body: resp}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*LogoutOutput, error) {
	p, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Auth.Logout(ctx, p.SessionID); err != nil {
		return nil, err
	}
	return &LogoutOutput{
		SetCookie: s.sessionCookie("", time.Time{}),
		Body:      MessageResponse{Message: "Logged out successfully"},
	}, nil
}

// sessionCookie builds the cookie carrying the access token. An empty token
// builds an expired cookie that clears it.
func (s *Server) sessionCookie(token string, expires time.Time) http.Cookie {
	c := http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
		return c
	}
	c.Expires = expires
	return c
}
