package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	commands "github.com/lewisedginton/lead_capture_chatbot/internal/cli"
)

var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := commands.NewApp(version).RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
