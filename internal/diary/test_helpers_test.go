package diary

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:diary_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Questionnaire{}, &Record{}, &Blog{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func mustStagingStore(t *testing.T, db *gorm.DB) *StagingStore {
	t.Helper()
	store, err := NewStagingStore(db)
	if err != nil {
		t.Fatalf("unexpected staging store error: %v", err)
	}
	return store
}

func mustRepository(t *testing.T, db *gorm.DB) *Repository {
	t.Helper()
	repository, err := NewRepository(db)
	if err != nil {
		t.Fatalf("unexpected repository error: %v", err)
	}
	return repository
}
