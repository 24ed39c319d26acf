// Package env loads stored environment variables from ~/.nlmbulk/env.
package env

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadStoredEnv loads variables from the .nlmbulk/env file. Variables
// already present in the environment win over stored ones.
func LoadStoredEnv() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	stored, err := godotenv.Read(filepath.Join(home, ".nlmbulk", "env"))
	if err != nil {
		return
	}

	for key, value := range stored {
		if os.Getenv(key) != "" {
			continue
		}
		os.Setenv(key, value)
	}
}
