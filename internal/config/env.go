package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env files from the working directory and the data dir.
// Existing environment variables win.
func loadEnvFiles(dataDir string) {
	envFiles := []string{
		".env",
		".env.local",
		filepath.Join(dataDir, ".env"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}
