// Command seed fills the database with fake DevConnector members and activity.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"devconnector/internal/auth"
	"devconnector/internal/config"
	"devconnector/internal/database"
	"devconnector/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	comments := flag.Int("comments", 4, "Maximum comments per post")
	reactions := flag.Int("reactions", 8, "Maximum reactions per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fakerSeed := flag.Int64("seed", time.Now().UnixNano(), "Seed for the fake data generator")
	flag.Parse()

	log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL), *fakerSeed)
	sum, err := s.Run(ctx, seed.Options{
		Users:            *numUsers,
		Posts:            *numPosts,
		CommentsPerPost:  *comments,
		ReactionsPerPost: *reactions,
		Clean:            *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d posts, %d comments, %d reactions",
		sum.Users, sum.Posts, sum.Comments, sum.Reactions)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
