// Seed inserts demo todos through the configured repository backend.
// Run from project root: go run ./scripts/seed -count 500
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/lestrix/serverless-todo/internal/config"
	"github.com/lestrix/serverless-todo/internal/models"
	"github.com/lestrix/serverless-todo/internal/repository"
)

func main() {
	_ = godotenv.Load()

	count := flag.Int("count", 100, "number of todos to insert")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.Backend == config.BackendMemory {
		fmt.Fprintln(os.Stderr, "TODO_BACKEND=memory does not outlive this process; pick an external backend")
		os.Exit(1)
	}
	repo, err := repository.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "repository:", err)
		os.Exit(1)
	}

	start := time.Now()
	for i := 1; i <= *count; i++ {
		if _, err := repo.Create(ctx, models.CreateInput{Title: fmt.Sprintf("Todo %d", i)}); err != nil {
			fmt.Fprintln(os.Stderr, "\ninsert failed:", err)
			os.Exit(1)
		}
		if i%50 == 0 || i == *count {
			fmt.Printf("\rInserted %d / %d", i, *count)
		}
	}
	fmt.Printf("\nDone: %d todos in %v\n", *count, time.Since(start))
}
