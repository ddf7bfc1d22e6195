package db

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"

	"github.com/morezero/wallet-dapp/migrations"
)

const migrationsLogPrefix = "db:migrations"

// EmbeddedSource labels migrations compiled into the binary.
const EmbeddedSource = "embedded"

// Migration is one schema file, identified by its file name.
type Migration struct {
	Name string
	SQL  string
}

// MigrationSource resolves dir to the file system migrations are read from.
// An empty dir selects the embedded schema.
func MigrationSource(dir string) (fs.FS, string) {
	if dir == "" {
		return migrations.FS, EmbeddedSource
	}
	return os.DirFS(dir), dir
}

// LoadMigrations reads the .sql files at the root of fsys in name order.
// source only labels errors and logs.
func LoadMigrations(fsys fs.FS, source string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("%s - read migrations from %s: %w", migrationsLogPrefix, source, err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("%s - read %s from %s: %w", migrationsLogPrefix, e.Name(), source, err)
		}
		out = append(out, Migration{Name: e.Name(), SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	slog.Info(fmt.Sprintf("%s - Loaded %d migrations from %s", migrationsLogPrefix, len(out), source))
	return out, nil
}

// LoadMigrationDir loads migrations from dir, or the embedded set when dir
// is empty.
func LoadMigrationDir(dir string) ([]Migration, error) {
	fsys, source := MigrationSource(dir)
	return LoadMigrations(fsys, source)
}
