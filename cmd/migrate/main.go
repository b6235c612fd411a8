package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"mazi-recorder/config"
	"mazi-recorder/internal/backends"
	"mazi-recorder/internal/domain/interview"
	"mazi-recorder/internal/persistence"
	"mazi-recorder/internal/store"
)

const usage = `
Mazi Recorder - State CLI Tool

Usage:
  migrate [flags] [command]

Commands:
  status      Show what the configured backend holds
  copy        Copy the stored collections from one backend to another
  seed        Fill an empty question registry with the default questions

Flags:
  -backend string   Backend to operate on (default from STORE_BACKEND)
  -from string      Source backend for copy
  -to string        Destination backend for copy

Examples:
  go run cmd/migrate/main.go status
  go run cmd/migrate/main.go -from file -to redis copy
  go run cmd/migrate/main.go -backend s3 seed
`

var storeKeys = []string{store.InterviewStoreKey, store.QuestionStoreKey}

func main() {
	backend := flag.String("backend", "", "Backend to operate on")
	from := flag.String("from", config.BackendFile, "Source backend for copy")
	to := flag.String("to", "", "Destination backend for copy")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	if *backend == "" {
		*backend = cfg.StoreBackend
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch command {
	case "status":
		showStatus(ctx, cfg, *backend)
	case "copy":
		if *to == "" {
			log.Fatalf("copy needs -to")
		}
		runCopy(ctx, cfg, *from, *to)
	case "seed":
		runSeed(ctx, cfg, *backend)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func open(ctx context.Context, cfg *config.Config, backend string) (persistence.Provider, backends.Closer) {
	provider, closer, err := backends.NewProvider(ctx, backend, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", backend, err)
	}
	return provider, closer
}

func showStatus(ctx context.Context, cfg *config.Config, backend string) {
	provider, closer := open(ctx, cfg, backend)
	defer closer()

	log.Printf("Backend: %s", provider.Name())

	data, err := provider.Load(ctx, store.InterviewStoreKey)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		log.Printf("%-16s absent", store.InterviewStoreKey)
	case err != nil:
		log.Printf("%-16s unreadable: %v", store.InterviewStoreKey, err)
	default:
		items, err := interview.DecodeInterviews(data)
		if err != nil {
			log.Printf("%-16s malformed: %v", store.InterviewStoreKey, err)
			break
		}
		submitted := 0
		for _, item := range items {
			if item.IsSubmitted() {
				submitted++
			}
		}
		log.Printf("%-16s %d interviews (%d submitted, %d pending)", store.InterviewStoreKey, len(items), submitted, len(items)-submitted)
	}

	questions, found, err := persistence.LoadJSON[[]string](ctx, provider, store.QuestionStoreKey)
	switch {
	case err != nil:
		log.Printf("%-16s unreadable: %v", store.QuestionStoreKey, err)
	case !found:
		log.Printf("%-16s absent", store.QuestionStoreKey)
	default:
		log.Printf("%-16s %d questions", store.QuestionStoreKey, len(questions))
	}
}

func runCopy(ctx context.Context, cfg *config.Config, from, to string) {
	if from == to {
		log.Fatalf("Source and destination are both %s", from)
	}
	src, closeSrc := open(ctx, cfg, from)
	defer closeSrc()
	dst, closeDst := open(ctx, cfg, to)
	defer closeDst()

	for _, key := range storeKeys {
		data, err := src.Load(ctx, key)
		if errors.Is(err, persistence.ErrNotFound) {
			log.Printf("Skipping %s: not present in %s", key, src.Name())
			continue
		}
		if err != nil {
			log.Fatalf("Failed to read %s from %s: %v", key, src.Name(), err)
		}
		if err := dst.Save(ctx, key, data); err != nil {
			log.Fatalf("Failed to write %s to %s: %v", key, dst.Name(), err)
		}
		log.Printf("Copied %s (%d bytes) %s -> %s", key, len(data), src.Name(), dst.Name())
	}
}

func runSeed(ctx context.Context, cfg *config.Config, backend string) {
	provider, closer := open(ctx, cfg, backend)
	defer closer()

	questions := store.NewQuestionStore(ctx, provider)
	defer questions.Close()

	if !questions.SeedDefaults(cfg.DefaultQuestions) {
		log.Printf("Question registry already holds %d questions, nothing to do", len(questions.Questions()))
		return
	}
	log.Printf("Seeded %d questions into %s", len(cfg.DefaultQuestions), provider.Name())
}
