package utils

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// LoadDotenv loads variables from path into the environment. A missing file
// is not an error; variables already set are not overwritten.
func LoadDotenv(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

// GenerateToken returns a random opaque token for login sessions.
func GenerateToken() string {
	return uuid.NewString()
}
