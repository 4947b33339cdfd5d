package handlers

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/Wikid82/chimera/backend/internal/database"
)

// OpenTestDB opens a migrated SQLite in-memory audit DB unique per test, with
// a busy timeout to reduce locking during parallel tests.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsnName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", dsnName)
	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return db
}
