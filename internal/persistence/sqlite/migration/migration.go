// Package migration applies file-based SQL schema migrations.
//
// Migration files live in an fs.FS and are named NNN_description.sql, where
// NNN is a zero-padded version number. Applied versions are recorded in the
// schema_migrations table and are never re-run.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Migration is a single schema migration loaded from disk.
type Migration struct {
	Version     int
	Description string
	Script      string
}

// ErrInvalidFilename indicates a migration file that does not follow the
// NNN_description.sql convention.
var ErrInvalidFilename = errors.New("migration: invalid filename")

// ErrDuplicateVersion indicates two migration files sharing a version number.
var ErrDuplicateVersion = errors.New("migration: duplicate version")

var filenamePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Scan reads all migration files from fsys, ordered by version.
func Scan(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m, err := parse(fsys, entry.Name())
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[m.Version]; ok {
			return nil, fmt.Errorf("%w: %d in %s and %s", ErrDuplicateVersion, m.Version, prev, entry.Name())
		}
		seen[m.Version] = entry.Name()
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func parse(fsys fs.FS, name string) (Migration, error) {
	matches := filenamePattern.FindStringSubmatch(name)
	if matches == nil {
		return Migration{}, fmt.Errorf("%w: %s", ErrInvalidFilename, name)
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil || version <= 0 {
		return Migration{}, fmt.Errorf("%w: %s", ErrInvalidFilename, name)
	}
	script, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Migration{}, fmt.Errorf("failed to read migration %s: %w", name, err)
	}
	return Migration{
		Version:     version,
		Description: strings.ReplaceAll(matches[2], "_", " "),
		Script:      string(script),
	}, nil
}
