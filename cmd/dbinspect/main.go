// Package main prints a summary of the saved search store.
//
// Usage:
//
//	go run ./cmd/dbinspect -data-path ~/.shelfmark
//	go run ./cmd/dbinspect -v   # also list every snapshot
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/listenupapp/shelfmark/internal/config"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/logger"
	"github.com/listenupapp/shelfmark/internal/store/kv"
)

func main() {
	verbose := flag.Bool("v", false, "List every snapshot")
	dataPath := flag.String("data-path", "", "Data directory (defaults to the server config)")
	flag.Parse()

	args := []string{"-env-file", ".env"}
	if *dataPath != "" {
		args = append(args, "-data-path", *dataPath)
	}
	cfg, err := config.LoadConfig(args)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	path := cfg.Storage.SearchesPath()
	db, err := kv.OpenReadOnly(path, logger.Discard().Logger)
	if err != nil {
		log.Fatalf("Failed to open saved search store at %s: %v", path, err)
	}
	defer db.Close()

	fmt.Println("=== Saved Search Store ===")
	fmt.Printf("Path: %s\n\n", path)

	var (
		snapshots  int
		indexKeys  int
		otherKeys  int
		results    int
		perUser    = map[int64]int{}
		unreadable []string
	)

	err = db.Walk(context.Background(), func(key string, value []byte) error {
		switch {
		case strings.HasPrefix(key, "search_by_user:"):
			indexKeys++
		case strings.HasPrefix(key, "search:"):
			var s domain.SavedSearch
			if err := json.Unmarshal(value, &s); err != nil {
				unreadable = append(unreadable, key)
				return nil
			}
			snapshots++
			results += len(s.Results)
			perUser[s.UserID]++
			if *verbose {
				fmt.Printf("%s  user=%d  %s  results=%d  %+v\n",
					s.ID, s.UserID, s.Timestamp.Format("2006-01-02 15:04:05"), len(s.Results), s.Criteria)
			}
		default:
			otherKeys++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating store: %v", err)
	}

	if *verbose && snapshots > 0 {
		fmt.Println()
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Snapshots: %d\n", snapshots)
	fmt.Printf("Owner index entries: %d\n", indexKeys)
	fmt.Printf("Users with snapshots: %d\n", len(perUser))
	if snapshots > 0 {
		fmt.Printf("Average results per snapshot: %.1f\n", float64(results)/float64(snapshots))
	}
	if indexKeys != snapshots {
		fmt.Printf("WARNING: %d snapshots but %d owner index entries\n", snapshots, indexKeys)
	}
	if otherKeys > 0 {
		fmt.Printf("Unknown keys: %d\n", otherKeys)
	}
	if len(unreadable) > 0 {
		sort.Strings(unreadable)
		fmt.Printf("Unreadable snapshots: %s\n", strings.Join(unreadable, ", "))
	}
}
