// Command listmodels prints the models the configured Groq key can use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ent0n29/chatmem/internal/config"
	"github.com/ent0n29/chatmem/internal/inference"
)

func main() {
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.GroqAPIKey == "" {
		log.Fatalf("GROQ_API_KEY is not set")
	}

	var lister inference.ModelLister = inference.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Fatalf("list models: %v", err)
	}
	for _, m := range models {
		marker := " "
		if inference.IsAvailable(m) {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, m)
	}
}
