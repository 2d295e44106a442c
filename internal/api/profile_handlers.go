package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get profile",
		Description: "Returns the authenticated user's account",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "editProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profile",
		Summary:     "Edit profile",
		Description: "Updates profile fields. Requires the current password; empty fields are left unchanged.",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleEditProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/profile/password",
		Summary:     "Change password",
		Description: "Changes the password and revokes every other session of the user",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleChangePassword)
}

// EditProfileRequest is the request body for profile edits.
type EditProfileRequest struct {
	Password    string `json:"password,omitempty" doc:"Current password"`
	Name        string `json:"name,omitempty" doc:"New display name"`
	Phone       string `json:"phone,omitempty" doc:"New phone number"`
	DateOfBirth string `json:"date_of_birth,omitempty" doc:"New date of birth (YYYY-MM-DD)"`
	Gender      string `json:"gender,omitempty" doc:"male, female or other"`
}

// EditProfileInput wraps the edit request for Huma.
type EditProfileInput struct {
	Body EditProfileRequest
}

// ChangePasswordRequest is the request body for password changes.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password,omitempty" doc:"Current password"`
	NewPassword     string `json:"new_password,omitempty" doc:"New password"`
	ConfirmPassword string `json:"confirm_password,omitempty" doc:"Must equal new_password"`
}

// ChangePasswordInput wraps the change request for Huma.
type ChangePasswordInput struct {
	Body ChangePasswordRequest
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectProfile, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Auth.GetProfile(ctx, p.userID())
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleEditProfile(ctx context.Context, input *EditProfileInput) (*UserOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectProfile, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Auth.EditProfile(ctx, p.userID(), service.EditProfileRequest{
		Password:    input.Body.Password,
		Name:        input.Body.Name,
		Phone:       input.Body.Phone,
		DateOfBirth: input.Body.DateOfBirth,
		Gender:      input.Body.Gender,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*MessageOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectProfile, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	err = s.services.Auth.ChangePassword(ctx, p.userID(), p.SessionID, service.ChangePasswordRequest{
		OldPassword:     input.Body.OldPassword,
		NewPassword:     input.Body.NewPassword,
		ConfirmPassword: input.Body.ConfirmPassword,
	})
	if err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Password changed"}}, nil
}
