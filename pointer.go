package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/pointerlabs/pointer/cmd/pointer"
	"github.com/pointerlabs/pointer/internal/config"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Printf("Failed to load settings: %v\n", err)
		os.Exit(1)
	}

	if err := cli.SetupRootCmd(settings).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
