package models

import "time"

// FeedbackMerge is the audit trail row written for every absorbed
// secondary when duplicates are combined.
type FeedbackMerge struct {
	ID               uint      `gorm:"primaryKey"`
	SourceFeedbackID uint      `gorm:"not null;index"` // the casualty
	TargetFeedbackID uint      `gorm:"not null;index"` // the survivor
	MergedBy         uint      `gorm:"not null"`       // acting operator
	CreatedAt        time.Time
}

func (FeedbackMerge) TableName() string {
	return "feedback_merges"
}
