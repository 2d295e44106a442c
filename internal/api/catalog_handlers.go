package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/service"
	"github.com/listenupapp/shelfmark/internal/store"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addAuthor",
		Method:        http.MethodPost,
		Path:          "/api/v1/authors",
		Summary:       "Add author",
		Description:   "Creates an author. Names are unique. Admin only.",
		Tags:          []string{"Catalog"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddAuthor)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAuthors",
		Method:      http.MethodGet,
		Path:        "/api/v1/authors",
		Summary:     "List authors",
		Tags:        []string{"Catalog"},
	}, s.handleListAuthors)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addGenre",
		Method:        http.MethodPost,
		Path:          "/api/v1/genres",
		Summary:       "Add genre",
		Description:   "Creates a genre. Names are unique. Admin only.",
		Tags:          []string{"Catalog"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Tags:        []string{"Catalog"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Creates a book by an existing author with at least one existing genre. Admin only.",
		Tags:          []string{"Catalog"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a page of books ordered by title",
		Tags:        []string{"Catalog"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its author, genres and aggregates. Logged-in callers also get their own rating, review and list state.",
		Tags:        []string{"Catalog"},
	}, s.handleGetBook)
}

// === DTOs ===

// NameRequest is the body for creating a named entity.
type NameRequest struct {
	Name string `json:"name,omitempty" doc:"Unique name"`
}

// NameInput wraps a name request for Huma.
type NameInput struct {
	Body NameRequest
}

// AuthorOutput wraps an author for Huma.
type AuthorOutput struct {
	Body *domain.Author
}

// GenreOutput wraps a genre for Huma.
type GenreOutput struct {
	Body *domain.Genre
}

// ListAuthorsOutput wraps the author list for Huma.
type ListAuthorsOutput struct {
	Body []domain.Author
}

// ListGenresOutput wraps the genre list for Huma.
type ListGenresOutput struct {
	Body []domain.Genre
}

// AddBookRequest is the body for creating a book.
type AddBookRequest struct {
	Title    string  `json:"title,omitempty" doc:"Book title, unique per author"`
	AuthorID int64   `json:"author_id,omitempty" doc:"Existing author id"`
	GenreIDs []int64 `json:"genre_ids,omitempty" doc:"Existing genre ids; at least one"`
}

// AddBookInput wraps an add-book request for Huma.
type AddBookInput struct {
	Body AddBookRequest
}

// BookSummaryOutput wraps a book summary for Huma.
type BookSummaryOutput struct {
	Body *domain.BookSummary
}

// PageParams selects a page of a listing.
type PageParams struct {
	Page     int `query:"page" maximum:"1000000" doc:"1-based page number"`
	PageSize int `query:"page_size" doc:"Items per page (max 100)"`
}

func (p PageParams) page() store.Page {
	return store.Page{Number: p.Page, Size: p.PageSize}
}

// ListBooksInput is the query of the book listing.
type ListBooksInput struct {
	PageParams
}

// ListBooksOutput wraps a page of books for Huma.
type ListBooksOutput struct {
	Body *store.PageResult[domain.BookSummary]
}

// BookIDInput selects a book by path id.
type BookIDInput struct {
	ID int64 `path:"id" doc:"Book ID"`
}

// BookDetailsOutput wraps book details for Huma.
type BookDetailsOutput struct {
	Body *domain.BookDetails
}

// === Handlers ===

func (s *Server) handleAddAuthor(ctx context.Context, input *NameInput) (*AuthorOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionWrite); err != nil {
		return nil, err
	}
	author, err := s.services.Catalog.AddAuthor(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &AuthorOutput{Body: author}, nil
}

func (s *Server) handleListAuthors(ctx context.Context, _ *struct{}) (*ListAuthorsOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionRead); err != nil {
		return nil, err
	}
	authors, err := s.services.Catalog.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}
	return &ListAuthorsOutput{Body: authors}, nil
}

func (s *Server) handleAddGenre(ctx context.Context, input *NameInput) (*GenreOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionWrite); err != nil {
		return nil, err
	}
	genre, err := s.services.Catalog.AddGenre(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &GenreOutput{Body: genre}, nil
}

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*ListGenresOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionRead); err != nil {
		return nil, err
	}
	genres, err := s.services.Catalog.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	return &ListGenresOutput{Body: genres}, nil
}

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookSummaryOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionWrite); err != nil {
		return nil, err
	}
	book, err := s.services.Catalog.AddBook(ctx, service.AddBookRequest{
		Title:    input.Body.Title,
		AuthorID: input.Body.AuthorID,
		GenreIDs: input.Body.GenreIDs,
	})
	if err != nil {
		return nil, err
	}
	return &BookSummaryOutput{Body: book}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionRead); err != nil {
		return nil, err
	}
	books, err := s.services.Catalog.ListBooks(ctx, input.page())
	if err != nil {
		return nil, err
	}
	return &ListBooksOutput{Body: books}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookDetailsOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	details, err := s.services.Catalog.GetBookDetails(ctx, input.ID, p.userID())
	if err != nil {
		return nil, err
	}
	return &BookDetailsOutput{Body: details}, nil
}
