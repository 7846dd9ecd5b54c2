package migrations

import (
	"fmt"
	"os"
	"path/filepath"
)

const initialSchemaFile = "001_initial_schema.sql"

// MigrationsDir can be overridden in tests or by the application
var MigrationsDir = "scripts/migrations"

// GetInitialSchema loads the queue schema applied when a database file is
// first opened. The schema is looked up at MigrationsDir and up to two
// levels above the working directory, so both the binary and package tests
// find it without configuration.
func GetInitialSchema() (string, error) {
	for _, base := range []string{"", "..", filepath.Join("..", "..")} {
		path := filepath.Join(base, MigrationsDir, initialSchemaFile)
		content, err := os.ReadFile(path)
		if err == nil {
			return string(content), nil
		}
	}

	return "", fmt.Errorf("schema file %s not found under %s", initialSchemaFile, MigrationsDir)
}
