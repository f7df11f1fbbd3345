// Command main seeds the catalog and a demo event for local development.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"orma/internal/config"
	"orma/internal/database"
	"orma/internal/seed"
)

func main() {
	guests := flag.Int("guests", 10, "Number of guests to create")
	posts := flag.Int("posts", 40, "Number of photos to create")
	span := flag.Duration("span", 6*time.Hour, "How long the demo event has been running")
	shouldClean := flag.Bool("clean", false, "Remove users, events and posts before seeding")
	catalogOnly := flag.Bool("catalog", false, "Only upsert categories and pricing tiers")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() && !*catalogOnly {
		log.Fatal("Refusing to seed demo data in production; use -catalog")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	if *catalogOnly {
		if err := seed.Catalog(db); err != nil {
			log.Fatalf("Catalog seeding failed: %v", err)
		}
		log.Println("Catalog seeded")
		return
	}

	res, err := seed.Seed(ctx, db, seed.Options{
		Guests: *guests,
		Posts:  *posts,
		Span:   *span,
		Clean:  *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded event %s with %d posts (owner user %d)", res.EventHash, res.Posts, res.OwnerID)
}
