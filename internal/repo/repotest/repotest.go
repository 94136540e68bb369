// Package repotest provides database fixtures for tests.
package repotest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/repo"
	pkgdb "github.com/Skotchmaster/coffee_shop/pkg/db"
)

// NewTestDB opens a private, migrated in-memory SQLite database.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := pkgdb.OpenSQLite(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
