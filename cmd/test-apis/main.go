package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mention-monitor/mention-bot/internal/config"
	"github.com/mention-monitor/mention-bot/internal/sources"
)

func main() {
	fmt.Println("Mention Bot - API Connectivity Test")
	fmt.Println("===================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	since := time.Now().Add(-24 * time.Hour)

	fmt.Printf("\nKeywords: %s\n", strings.Join(cfg.Keywords, ", "))
	fmt.Println(strings.Repeat("-", 40))

	failed := 0
	for _, source := range []sources.Source{
		sources.NewRedditSource(cfg.RedditConfig()),
		sources.NewTwitterSource(cfg.TwitterConfig()),
		sources.NewBlueskySource(cfg.BlueskyConfig()),
	} {
		if !testSource(ctx, source, cfg.Keywords, since) {
			failed++
		}
	}

	fmt.Println("\nAPI connectivity test completed")
	if failed > 0 {
		os.Exit(1)
	}
}

func testSource(ctx context.Context, source sources.Source, keywords []string, since time.Time) bool {
	fmt.Printf("Testing %s... ", source.GetName())

	if !source.IsEnabled() {
		fmt.Println("DISABLED (missing credentials)")
		return true
	}

	mentions, err := source.FetchMentions(ctx, keywords, since)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return false
	}

	fmt.Printf("OK (%d mentions found)\n", len(mentions))
	if len(mentions) > 0 {
		fmt.Printf("   Sample: %q\n", mentions[0].DisplayTitle())
	}
	return true
}
