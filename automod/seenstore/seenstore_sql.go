package seenstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProcessedPost struct {
	PostID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// Durable seen store backed by an SQL database (sqlite or postgres). Each row keeps the time it was added, for future retention policies.
type SQLSeenStore struct {
	db *gorm.DB
}

var _ SeenStore = (*SQLSeenStore)(nil)

// Wraps an existing database handle, creating the table if needed.
func NewSQLSeenStore(db *gorm.DB) (*SQLSeenStore, error) {
	if err := db.AutoMigrate(&ProcessedPost{}); err != nil {
		return nil, err
	}
	return &SQLSeenStore{db: db}, nil
}

func (s *SQLSeenStore) Has(ctx context.Context, postID string) (bool, error) {
	var row ProcessedPost
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLSeenStore) Record(ctx context.Context, postID string) error {
	row := ProcessedPost{
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}
