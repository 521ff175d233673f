// Command seed_profiles loads profiles and community memberships from JSON files into the
// database, for local development and demos.
//
// Usage:
//
//	go run ./cmd/tools/seed_profiles profiles.json [memberships.json]
//
// profiles.json is a JSON array of ContextWindow objects with UUID user ids; embeddings in the
// file are stored as given. memberships.json maps a community name to the user ids in it.
//
// Requires DATABASE_URL environment variable to be set.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/jonathan/context-matcher/internal/db"
	"github.com/jonathan/context-matcher/internal/types"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: seed_profiles profiles.json [memberships.json]")
		os.Exit(2)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "ERROR: DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to apply schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Profile Seed Script ===")
	fmt.Println()

	var profiles []types.ContextWindow
	if err := readJSON(os.Args[1], &profiles); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	stored, embedded, failed := 0, 0, 0
	for i := range profiles {
		cw := &profiles[i]
		if err := cw.Validate(); err != nil {
			fmt.Printf("  ✗ %s: %v\n", cw.UserID, err)
			failed++
			continue
		}
		if err := database.UpsertContextWindow(ctx, cw); err != nil {
			fmt.Printf("  ✗ %s: %v\n", cw.UserID, err)
			failed++
			continue
		}
		stored++

		if cw.HasEmbedding() {
			if err := database.UpdateEmbedding(ctx, cw.UserID, cw.Embedding); err != nil {
				fmt.Printf("  ✗ %s embedding: %v\n", cw.UserID, err)
				continue
			}
			embedded++
		}
		fmt.Printf("  ✓ %s (completeness %.1f)\n", cw.UserID, cw.Completeness())
	}

	memberships := 0
	if len(os.Args) == 3 {
		var communities map[string][]string
		if err := readJSON(os.Args[2], &communities); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}

		names := make([]string, 0, len(communities))
		for name := range communities {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println()
		for _, name := range names {
			communityID, err := database.FindOrCreateCommunity(ctx, name)
			if err != nil {
				fmt.Printf("  ✗ community %s: %v\n", name, err)
				failed++
				continue
			}
			for _, userID := range communities[name] {
				if err := database.AddMembership(ctx, userID, communityID); err != nil {
					fmt.Printf("  ✗ %s in %s: %v\n", userID, name, err)
					failed++
					continue
				}
				memberships++
			}
			fmt.Printf("  ✓ Community %s: %d members\n", name, len(communities[name]))
		}
	}

	fmt.Println()
	fmt.Println("=== Seed Summary ===")
	fmt.Printf("  Profiles: %d\n", stored)
	fmt.Printf("  Embeddings: %d\n", embedded)
	fmt.Printf("  Memberships: %d\n", memberships)
	fmt.Printf("  Failed: %d\n", failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
