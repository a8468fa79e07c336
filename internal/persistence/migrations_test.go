package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingMigrationsSkipsApplied(t *testing.T) {
	files := []string{"002_add_rating.sql", "001_init.sql", "003_backfill.sql"}
	applied := map[string]bool{"001_init.sql": true}

	pending := pendingMigrations(files, applied)
	assert.Equal(t, []string{"002_add_rating.sql", "003_backfill.sql"}, pending)
}

func TestPendingMigrationsSortsByFilename(t *testing.T) {
	files := []string{"003_backfill.sql", "001_init.sql", "002_add_rating.sql"}

	pending := pendingMigrations(files, map[string]bool{})
	assert.Equal(t, []string{"001_init.sql", "002_add_rating.sql", "003_backfill.sql"}, pending)
}

func TestPendingMigrationsEmptyWhenAllApplied(t *testing.T) {
	files := []string{"001_init.sql", "002_add_rating.sql"}
	applied := map[string]bool{"001_init.sql": true, "002_add_rating.sql": true}

	assert.Empty(t, pendingMigrations(files, applied))
}
