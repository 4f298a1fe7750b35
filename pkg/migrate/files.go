package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	nameSanitizeRe  = regexp.MustCompile(`[^a-z0-9_]+`)
	migrationFileRe = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)
)

// CreateSQLMigration creates a goose SQL migration file:
//
//	<dir>/<YYYYMMDDHHMMSS>_<name>.sql
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	if name == "" {
		return "", fmt.Errorf("name is required")
	}

	clean := nameSanitizeRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	clean = strings.Trim(clean, "_")
	if clean == "" {
		return "", fmt.Errorf("name %q reduces to nothing after sanitizing", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations dir: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", stamp, clean))

	content := "-- +goose Up\n\n-- +goose Down\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing migration file: %w", err)
	}
	return path, nil
}

// ValidateDir checks that every .sql file in dir follows the goose naming scheme.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		if !migrationFileRe.MatchString(entry.Name()) {
			return fmt.Errorf("migration %q does not match <YYYYMMDDHHMMSS>_<name>.sql", entry.Name())
		}
	}
	return nil
}
