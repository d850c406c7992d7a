package store

import (
	"fmt"
	"os"
	"strings"
)

// NewFromEnv picks a backend from mode (falling back to STORE_MODE):
// "memory", "sqlite"/"local" or "postgres"/"db". The second return value names
// the backend that was opened. Any other mode is an error.
func NewFromEnv(mode string) (Store, string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = strings.ToLower(strings.TrimSpace(os.Getenv("STORE_MODE")))
	}
	switch mode {
	case "", "memory":
		return NewMemoryStore(), "memory", nil
	case "local", "sqlite":
		path, err := localDatabasePathFromEnv()
		if err != nil {
			return nil, "", err
		}
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, "", err
		}
		return s, "sqlite", nil
	case "postgres", "postgresql", "db":
		s, err := NewPostgresStore(databaseDSNFromEnv())
		if err != nil {
			return nil, "", err
		}
		return s, "postgres", nil
	default:
		return nil, mode, fmt.Errorf("invalid STORE_MODE %q (supported: memory, sqlite, postgres)", mode)
	}
}
