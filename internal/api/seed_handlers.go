package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/seeddata"
	"github.com/listenupapp/shelfmark/internal/service"
)

func (s *Server) registerSeedRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "seedAll",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/seed",
		Summary:     "Seed everything",
		Description: "Loads the sample books and users, then generates synthetic ratings, read-list entries and reviews. Admin only.",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleSeedAll)

	huma.Register(s.api, huma.Operation{
		OperationID: "seedBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/seed/books",
		Summary:     "Seed books",
		Description: "Loads the given book records, or the embedded sample set when none are sent. Existing books are skipped.",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleSeedBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "seedUsers",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/seed/users",
		Summary:     "Seed users",
		Description: "Creates accounts from the given records, or the embedded sample set when none are sent. Refused when the user cap is exceeded.",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleSeedUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "seedRatings",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/seed/ratings",
		Summary:     "Seed ratings",
		Description: "Generates synthetic activity for every user except the caller. Refused when the rating cap is exceeded.",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleSeedRatings)
}

// === DTOs ===

// SeedBooksRequest optionally carries the books to load.
type SeedBooksRequest struct {
	Books []seeddata.BookRecord `json:"books,omitempty" doc:"Records to load; the embedded sample set when omitted"`
}

// SeedBooksInput wraps the optional books body.
type SeedBooksInput struct {
	Body *SeedBooksRequest `required:"false"`
}

// SeedUser is one account to create.
type SeedUser struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty" doc:"YYYY-MM-DD"`
	Gender      string `json:"gender,omitempty"`
}

// SeedUsersRequest optionally carries the users to create.
type SeedUsersRequest struct {
	Users []SeedUser `json:"users,omitempty" doc:"Accounts to create; the embedded sample set when omitted"`
}

// SeedUsersInput wraps the optional users body.
type SeedUsersInput struct {
	Body *SeedUsersRequest `required:"false"`
}

// FillOutput wraps the combined seed result.
type FillOutput struct {
	Body *service.FillResult
}

// BookLoadOutput wraps a book load result.
type BookLoadOutput struct {
	Body *service.BookLoadResult
}

// UserLoadOutput wraps a user load result.
type UserLoadOutput struct {
	Body *service.UserLoadResult
}

// RatingLoadOutput wraps a synthetic rating load result.
type RatingLoadOutput struct {
	Body *service.RatingLoadResult
}

// === Handlers ===

func (s *Server) handleSeedAll(ctx context.Context, _ *struct{}) (*FillOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectSeed, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	result, err := s.services.Seed.FillAll(ctx, p.userID())
	if err != nil {
		return nil, err
	}
	return &FillOutput{Body: result}, nil
}

func (s *Server) handleSeedBooks(ctx context.Context, input *SeedBooksInput) (*BookLoadOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectSeed, authz.ActionWrite); err != nil {
		return nil, err
	}
	var records []seeddata.BookRecord
	if input.Body != nil && len(input.Body.Books) > 0 {
		records = input.Body.Books
	}
	result, err := s.services.Seed.BulkLoadBooks(ctx, records)
	if err != nil {
		return nil, err
	}
	return &BookLoadOutput{Body: result}, nil
}

func (s *Server) handleSeedUsers(ctx context.Context, input *SeedUsersInput) (*UserLoadOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectSeed, authz.ActionWrite); err != nil {
		return nil, err
	}
	var records []seeddata.UserRecord
	if input.Body != nil && len(input.Body.Users) > 0 {
		records = make([]seeddata.UserRecord, 0, len(input.Body.Users))
		for _, u := range input.Body.Users {
			records = append(records, seeddata.UserRecord{
				FirstName:   u.FirstName,
				LastName:    u.LastName,
				Email:       u.Email,
				Password:    u.Password,
				Phone:       u.Phone,
				DateOfBirth: u.DateOfBirth,
				Gender:      u.Gender,
			})
		}
	}
	result, err := s.services.Seed.BulkLoadUsers(ctx, records)
	if err != nil {
		return nil, err
	}
	return &UserLoadOutput{Body: result}, nil
}

func (s *Server) handleSeedRatings(ctx context.Context, _ *struct{}) (*RatingLoadOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectSeed, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	result, err := s.services.Seed.BulkLoadSyntheticRatings(ctx, p.userID())
	if err != nil {
		return nil, err
	}
	return &RatingLoadOutput{Body: result}, nil
}
