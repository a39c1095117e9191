package diary

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// PageSize is the fixed number of records per listing page.
const PageSize = 10

// Repository persists completed diary records and serves the paginated read path.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs the diary record repository.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("diary: database connection required")
	}
	return &Repository{db: db}, nil
}

// Insert appends one completed record and returns its assigned identity.
// The creation timestamp is server-assigned at write time.
func (r *Repository) Insert(ctx context.Context, record *Record) (uint, error) {
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

// ListPage returns one fixed-size page of records ordered by identity
// descending. Pages are 1-indexed; requesting a page beyond the stored
// records fails with ErrPageOutOfRange rather than returning an empty page.
// Page 1 of an empty table is valid and empty.
func (r *Repository) ListPage(ctx context.Context, page int) ([]Record, error) {
	if page < 1 {
		return nil, ErrPageOutOfRange
	}

	var records []Record
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	if len(records) == 0 && page > 1 {
		return nil, ErrPageOutOfRange
	}
	return records, nil
}

// ListBlogs returns every static blog entry.
func (r *Repository) ListBlogs(ctx context.Context) ([]Blog, error) {
	var blogs []Blog
	if err := r.db.WithContext(ctx).Find(&blogs).Error; err != nil {
		return nil, err
	}
	return blogs, nil
}
