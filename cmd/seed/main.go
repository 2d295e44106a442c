// Package main provides a tool to bulk load the catalog from the command line.
//
// It loads the embedded sample books, creates users from a file and generates
// synthetic ratings, the same operations the admin seed endpoints run.
//
// Usage:
//
//	go run ./cmd/seed -books
//	go run ./cmd/seed -users users.tsv
//	go run ./cmd/seed -books -users embedded -ratings -admin admin@example.com
//	go run ./cmd/seed -promote admin@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfmark/internal/di"
	"github.com/listenupapp/shelfmark/internal/di/providers"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/seeddata"
	"github.com/listenupapp/shelfmark/internal/service"
)

// embeddedUsers selects the built-in user sample instead of a file.
const embeddedUsers = "embedded"

var (
	loadBooks   = flag.Bool("books", false, "Load the embedded sample books")
	booksFile   = flag.String("books-file", "", "Load books from a JSON file instead of the embedded sample")
	usersFile   = flag.String("users", "", "Create users from a tab-separated file, or \"embedded\" for the sample set")
	loadRatings = flag.Bool("ratings", false, "Generate synthetic ratings, reviews and read-list entries")
	adminEmail  = flag.String("admin", "", "User excluded from synthetic ratings")
	promote     = flag.String("promote", "", "Grant the admin role to this user")
	dataPath    = flag.String("data-path", "", "Directory for the database (defaults to the server config)")
	envFile     = flag.String("env-file", ".env", "Path to .env file")
)

func main() {
	flag.Parse()

	if err := seed(); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
}

func seed() error {
	args := []string{"-env-file", *envFile}
	if *dataPath != "" {
		args = append(args, "-data-path", *dataPath)
	}
	injector := di.NewContainer(args)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return run(ctx, injector)
}

func run(ctx context.Context, injector do.Injector) error {
	seeder, err := do.Invoke[*service.SeedService](injector)
	if err != nil {
		return err
	}
	storeHandle := do.MustInvoke[*providers.StoreHandle](injector)

	if *promote != "" {
		if err := storeHandle.SetUserRole(ctx, domain.NormalizeEmail(*promote), domain.RoleAdmin); err != nil {
			return fmt.Errorf("promote %s: %w", *promote, err)
		}
		fmt.Printf("Promoted %s to admin\n", *promote)
	}

	if *loadBooks || *booksFile != "" {
		records, err := readBooks(*booksFile)
		if err != nil {
			return err
		}
		result, err := seeder.BulkLoadBooks(ctx, records)
		if err != nil {
			return err
		}
		fmt.Printf("Books: %d added, %d skipped\n", result.Added, result.Skipped)
	}

	if *usersFile != "" {
		records, err := readUsers(*usersFile)
		if err != nil {
			return err
		}
		result, err := seeder.BulkLoadUsers(ctx, records)
		if err != nil {
			return err
		}
		fmt.Printf("Users: %d added, %d skipped. %s\n", result.Added, result.Skipped, result.Message)
	}

	if *loadRatings {
		var excluded int64
		if *adminEmail != "" {
			user, err := storeHandle.GetUserByEmail(ctx, domain.NormalizeEmail(*adminEmail))
			if err != nil {
				return fmt.Errorf("find %s: %w", *adminEmail, err)
			}
			excluded = user.ID
		}
		result, err := seeder.BulkLoadSyntheticRatings(ctx, excluded)
		if err != nil {
			return err
		}
		if result.Refused {
			fmt.Println(result.Message)
		} else {
			fmt.Printf("Ratings: %d, reviews: %d, read-list entries: %d\n",
				result.Ratings, result.Reviews, result.ToRead)
		}
	}

	return nil
}

// readBooks returns nil, meaning the embedded sample, when path is empty.
func readBooks(path string) ([]seeddata.BookRecord, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open books file: %w", err)
	}
	defer f.Close()
	return seeddata.ParseBooks(f)
}

// readUsers returns nil, meaning the embedded sample, for embeddedUsers.
func readUsers(path string) ([]seeddata.UserRecord, error) {
	if path == embeddedUsers {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()
	return seeddata.ParseUsers(f)
}
