package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/listenupapp/shelfmark/internal/auth"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/metrics"
	"github.com/listenupapp/shelfmark/internal/normalize"
	"github.com/listenupapp/shelfmark/internal/seeddata"
	"github.com/listenupapp/shelfmark/internal/store"
	"github.com/listenupapp/shelfmark/internal/validation"
)

// Default bulk-load caps. A load is refused once the existing count exceeds the cap.
const (
	DefaultUserCap   = 50
	DefaultRatingCap = 50
)

// SeedOptions configures the bulk loaders.
type SeedOptions struct {
	UserCap   int
	RatingCap int
	// Rand drives synthetic activity. A nil Rand is seeded from the clock.
	Rand *rand.Rand
	// HashPassword hashes seeded passwords. Defaults to auth.HashPassword.
	HashPassword func(string) (string, error)
}

// SeedService bulk-loads books, users and synthetic reading activity.
type SeedService struct {
	store        store.Store
	validator    *validation.Validator
	userCap      int
	ratingCap    int
	hashPassword func(string) (string, error)
	words        []string
	logger       *slog.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewSeedService creates a new seed service.
func NewSeedService(store store.Store, opts SeedOptions, logger *slog.Logger) *SeedService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.UserCap <= 0 {
		opts.UserCap = DefaultUserCap
	}
	if opts.RatingCap <= 0 {
		opts.RatingCap = DefaultRatingCap
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if opts.HashPassword == nil {
		opts.HashPassword = auth.HashPassword
	}
	return &SeedService{
		store:        store,
		validator:    validation.New(),
		userCap:      opts.UserCap,
		ratingCap:    opts.RatingCap,
		hashPassword: opts.HashPassword,
		words:        seeddata.Words(),
		logger:       logger,
		rng:          opts.Rand,
	}
}

// BookLoadResult reports a book load.
type BookLoadResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// UserLoadResult reports a user load.
type UserLoadResult struct {
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Refused bool   `json:"refused"`
	Message string `json:"message,omitempty"`
}

// RatingLoadResult reports a synthetic activity load.
type RatingLoadResult struct {
	store.SyntheticCounts
	Refused bool   `json:"refused"`
	Message string `json:"message,omitempty"`
}

// FillResult reports every step of FillAll.
type FillResult struct {
	Books   *BookLoadResult   `json:"books"`
	Users   *UserLoadResult   `json:"users"`
	Ratings *RatingLoadResult `json:"ratings"`
}

// BulkLoadBooks imports records, or the embedded classics list when records is nil.
// Authors and genres are found or created by name; books that already exist are skipped.
func (s *SeedService) BulkLoadBooks(ctx context.Context, records []seeddata.BookRecord) (*BookLoadResult, error) {
	if records == nil {
		var err error
		if records, err = seeddata.Books(); err != nil {
			return nil, err
		}
	}

	result := &BookLoadResult{}
	for _, rec := range records {
		imp := store.BookImport{
			Title:  normalize.Name(rec.Title),
			Author: normalize.Name(rec.Author),
			Genres: splitGenres(rec.Genres),
		}
		if imp.Title == "" || imp.Author == "" || utf8.RuneCountInString(imp.Title) > domain.MaxTitleLength {
			result.Skipped++
			continue
		}

		added, err := s.store.ImportBook(ctx, imp)
		if err != nil {
			return result, fmt.Errorf("import %q: %w", imp.Title, err)
		}
		if added {
			result.Added++
		} else {
			result.Skipped++
		}
	}

	metrics.RecordSeed("books", result.Added)
	s.logger.Info("Books loaded", "added", result.Added, "skipped", result.Skipped)
	return result, nil
}

func splitGenres(s string) []string {
	var genres []string
	for part := range strings.SplitSeq(s, ",") {
		if name := normalize.Name(part); name != "" {
			genres = append(genres, name)
		}
	}
	return genres
}

// seedUserRules validates one users file row.
type seedUserRules struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=3,max=1024"`
	Name        string `json:"name" validate:"max=100"`
	Phone       string `json:"phone" validate:"max=32"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female other"`
}

// BulkLoadUsers creates accounts from records, or from the embedded sample file when
// records is nil. Rows that are invalid or whose email exists are skipped. The load
// is refused when there are already more users than the cap.
func (s *SeedService) BulkLoadUsers(ctx context.Context, records []seeddata.UserRecord) (*UserLoadResult, error) {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if count > s.userCap {
		return &UserLoadResult{
			Refused: true,
			Message: "We have enough users already. No new users added.",
		}, nil
	}

	if records == nil {
		if records, err = seeddata.Users(); err != nil {
			return nil, err
		}
	}

	result := &UserLoadResult{}
	for _, rec := range records {
		row := seedUserRules{
			Email:       domain.NormalizeEmail(rec.Email),
			Password:    rec.Password,
			Name:        normalize.Name(rec.FullName()),
			Phone:       normalize.Name(rec.Phone),
			DateOfBirth: strings.TrimSpace(rec.DateOfBirth),
			Gender:      strings.ToLower(strings.TrimSpace(rec.Gender)),
		}
		if err := s.validator.Validate(row); err != nil {
			s.logger.Debug("Skipping invalid user row", "email", row.Email, "error", err)
			result.Skipped++
			continue
		}

		hash, err := s.hashPassword(row.Password)
		if err != nil {
			return result, fmt.Errorf("hash password: %w", err)
		}
		user := &domain.User{
			Email:        row.Email,
			PasswordHash: hash,
			Name:         row.Name,
			Phone:        row.Phone,
			DateOfBirth:  row.DateOfBirth,
			Gender:       domain.Gender(row.Gender),
			Role:         domain.RoleMember,
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("create user %s: %w", row.Email, err)
		}
		result.Added++
	}

	if result.Added == 0 {
		result.Message = "Users you are trying to add already exist. No new users added."
	} else {
		result.Message = fmt.Sprintf("Successfully added %d new user(s).", result.Added)
	}

	metrics.RecordSeed("users", result.Added)
	s.logger.Info("Users loaded", "added", result.Added, "skipped", result.Skipped)
	return result, nil
}

// Counter bands of the synthetic activity walk.
const (
	anyRatingUpTo  = 30 // ratings 1..5
	highRatingUpTo = 40 // ratings 4..5
	lowRatingUpTo  = 50 // ratings 1..2
	toReadAfter    = 10 // to-read flags for 10 < c <= 50
	toReadUpTo     = 50
	reviewAfter    = 20 // reviews for 20 < c <= 60
	reviewUpTo     = 60
)

// BulkLoadSyntheticRatings generates ratings, to-read flags and reviews for every
// user except currentUserID. Each user walks the books in id order; books they
// already rated are skipped without advancing the counter, and only the first
// 90% of counter positions produce activity. Existing rows are never overwritten.
func (s *SeedService) BulkLoadSyntheticRatings(ctx context.Context, currentUserID int64) (*RatingLoadResult, error) {
	count, err := s.store.CountRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}
	if count > s.ratingCap {
		return &RatingLoadResult{
			Refused: true,
			Message: "We have enough data already. No new data added.",
		}, nil
	}

	userIDs, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	bookIDs, err := s.store.ListBookIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	pairs, err := s.store.ListRatingPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	rated := make(map[store.RatingPair]struct{}, len(pairs))
	for _, p := range pairs {
		rated[p] = struct{}{}
	}

	result := &RatingLoadResult{}
	for _, userID := range userIDs {
		if userID == currentUserID {
			continue
		}
		batch := s.syntheticFor(userID, bookIDs, rated)
		if len(batch) == 0 {
			continue
		}

		counts, err := s.store.InsertSyntheticActivity(ctx, batch)
		if err != nil {
			return result, fmt.Errorf("insert activity for user %d: %w", userID, err)
		}
		result.Ratings += counts.Ratings
		result.ToRead += counts.ToRead
		result.Reviews += counts.Reviews
	}

	result.Message = "Ratings, read list and reviews have been updated."
	metrics.RecordSeed("ratings", result.Ratings)
	metrics.RecordSeed("to_read", result.ToRead)
	metrics.RecordSeed("reviews", result.Reviews)
	s.logger.Info("Synthetic activity loaded",
		"ratings", result.Ratings, "to_read", result.ToRead, "reviews", result.Reviews)
	return result, nil
}

// syntheticFor builds the activity of one user.
func (s *SeedService) syntheticFor(userID int64, bookIDs []int64, rated map[store.RatingPair]struct{}) []store.SyntheticActivity {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := len(bookIDs) * 9 / 10
	var batch []store.SyntheticActivity
	counter := 0
	for _, bookID := range bookIDs {
		if counter >= limit {
			break
		}
		if _, ok := rated[store.RatingPair{UserID: userID, BookID: bookID}]; ok {
			continue
		}

		a := store.SyntheticActivity{UserID: userID, BookID: bookID}
		switch {
		case counter <= anyRatingUpTo:
			a.Rating = s.randInt(domain.MinRating, domain.MaxRating)
		case counter <= highRatingUpTo:
			a.Rating = s.randInt(4, 5)
		case counter <= lowRatingUpTo:
			a.Rating = s.randInt(1, 2)
		}
		if counter > toReadAfter && counter <= toReadUpTo && s.randInt(1, 3) > 1 {
			a.ToRead = true
		}
		if counter > reviewAfter && counter <= reviewUpTo && s.randInt(1, 3) > 1 {
			a.Review = s.randomReview()
		}

		if a.Rating > 0 || a.ToRead || a.Review != "" {
			batch = append(batch, a)
		}
		counter++
	}
	return batch
}

// randInt returns a uniform integer in [lo, hi]. Callers hold s.mu.
func (s *SeedService) randInt(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

// randomReview builds 5 to 12 sentences of 5 to 15 random words. Trailing
// sentences that would push the review past the length limit are dropped.
// Callers hold s.mu.
func (s *SeedService) randomReview() string {
	sentences := make([]string, s.randInt(5, 12))
	for i := range sentences {
		words := make([]string, s.randInt(5, 15))
		for j := range words {
			words[j] = s.words[s.rng.IntN(len(s.words))]
		}
		sentence := strings.Join(words, " ")
		sentences[i] = strings.ToUpper(sentence[:1]) + sentence[1:]
	}

	review := sentences[0]
	for _, sentence := range sentences[1:] {
		if len(review)+len(". ")+len(sentence)+len(".") > domain.MaxReviewLength {
			break
		}
		review += ". " + sentence
	}
	return review + "."
}

// FillAll loads the embedded books, the embedded users and then synthetic activity.
func (s *SeedService) FillAll(ctx context.Context, currentUserID int64) (*FillResult, error) {
	books, err := s.BulkLoadBooks(ctx, nil)
	if err != nil {
		return nil, err
	}
	users, err := s.BulkLoadUsers(ctx, nil)
	if err != nil {
		return nil, err
	}
	ratings, err := s.BulkLoadSyntheticRatings(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	return &FillResult{Books: books, Users: users, Ratings: ratings}, nil
}
