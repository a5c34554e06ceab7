// Package main provides a tool to seed the database with sample recipes.
//
// This creates test users with a handful of recipes, tags, and ingredients
// so the API and search features can be exercised against realistic data.
//
// Usage:
//
//	DB_PATH=~/Pantry/data/pantry.db go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pantryapp/pantry-server/internal/auth"
	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

var password = flag.String("password", "SeedPassword123", "Password for seeded users")

type seedRecipe struct {
	title       string
	description string
	timeMinutes int
	price       string
	tags        []string
	ingredients []string
}

var seedUsers = map[string][]seedRecipe{
	"alice@example.com": {
		{
			title:       "Sample tandoori chicken",
			description: "Yogurt-marinated chicken roasted hot",
			timeMinutes: 60,
			price:       "9.50",
			tags:        []string{"Indian", "Dinner"},
			ingredients: []string{"Chicken", "Yogurt", "Garam masala"},
		},
		{
			title:       "Dal tadka",
			description: "Red lentils with tempered spices",
			timeMinutes: 35,
			price:       "3.25",
			tags:        []string{"Indian", "Vegetarian"},
			ingredients: []string{"Red lentils", "Ghee", "Cumin"},
		},
	},
	"bob@example.com": {
		{
			title:       "Weekend pancakes",
			description: "Fluffy buttermilk pancakes",
			timeMinutes: 25,
			price:       "4.00",
			tags:        []string{"Breakfast"},
			ingredients: []string{"Flour", "Buttermilk", "Eggs"},
		},
	},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, "Pantry", "data", "pantry.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	for email, recipes := range seedUsers {
		user, err := ensureUser(ctx, s, email, *password)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", email, err)
		}

		for _, r := range recipes {
			if err := createRecipe(ctx, s, user.ID, r); err != nil {
				log.Fatalf("Failed to seed recipe %q: %v", r.title, err)
			}
			fmt.Printf("  created recipe %q for %s\n", r.title, email)
		}
	}

	fmt.Println("Done.")
}

func ensureUser(ctx context.Context, s *sqlite.Store, email, password string) (*domain.User, error) {
	if existing, err := s.GetUserByEmail(ctx, email); err == nil {
		fmt.Printf("User %s already exists, reusing\n", email)
		return existing, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         email[:len(email)-len("@example.com")],
		IsActive:     true,
	}
	user.ID = id.MustGenerate("user")
	user.InitTimestamps()

	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	fmt.Printf("Created user %s\n", email)
	return user, nil
}

func createRecipe(ctx context.Context, s *sqlite.Store, userID string, r seedRecipe) error {
	price, err := domain.ParsePrice(r.price)
	if err != nil {
		return err
	}

	recipe := &domain.Recipe{
		UserID:      userID,
		Title:       r.title,
		Description: r.description,
		TimeMinutes: r.timeMinutes,
		Price:       price,
	}
	recipe.ID = id.MustGenerate("recipe")
	recipe.CreatedAt = time.Now()
	recipe.UpdatedAt = recipe.CreatedAt

	return s.CreateRecipe(ctx, recipe, r.tags, r.ingredients)
}
