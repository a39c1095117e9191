package diary

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// StagingStore holds the single in-flight questionnaire submission.
//
// Last-write-wins: Replace removes whatever is staged before inserting the
// new submission, inside one transaction so a concurrent Peek never observes
// an ambiguous slot.
type StagingStore struct {
	db *gorm.DB
}

// NewStagingStore constructs the staging store over the shared database handle.
func NewStagingStore(db *gorm.DB) (*StagingStore, error) {
	if db == nil {
		return nil, fmt.Errorf("diary: database connection required")
	}
	return &StagingStore{db: db}, nil
}

// Replace discards any staged questionnaire and stages the provided one.
func (s *StagingStore) Replace(ctx context.Context, questionnaire Questionnaire) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Questionnaire{}).Error; err != nil {
			return err
		}
		questionnaire.ID = 0
		return tx.Create(&questionnaire).Error
	})
}

// Peek returns the currently staged questionnaire without consuming it.
// The caller clears it with ClearByEvent only after downstream work succeeds,
// so a failed generation leaves the submission available for retry.
func (s *StagingStore) Peek(ctx context.Context) (Questionnaire, error) {
	var staged Questionnaire
	err := s.db.WithContext(ctx).Order("id").First(&staged).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Questionnaire{}, ErrNothingStaged
	}
	if err != nil {
		return Questionnaire{}, err
	}
	return staged, nil
}

// ClearByEvent deletes the staged questionnaire whose event description matches
// the one that was consumed. A submission that replaced the slot mid-generation
// carries a different event and survives.
func (s *StagingStore) ClearByEvent(ctx context.Context, todaysEvent string) error {
	return s.db.WithContext(ctx).Where("todays_event = ?", todaysEvent).Delete(&Questionnaire{}).Error
}
