package models

import "time"

// Vote is the join row between an end user and a feedback item. The
// (feedback, user) pair is unique at the storage level; concurrent
// duplicate inserts resolve as one success and one constraint error.
// Rows are hard-deleted on unvote so a later re-vote can reuse the slot.
type Vote struct {
	ID         uint   `gorm:"primaryKey"`
	FeedbackID uint   `gorm:"not null;uniqueIndex:idx_feedback_voter"`
	UserID     string `gorm:"not null;uniqueIndex:idx_feedback_voter"`
	Email      string
	CreatedAt  time.Time

	// Opt-in to status-change emails. PermissionKey is the opaque
	// one-click unsubscribe token, set only while the opt-in is on.
	NotifyStatusChange bool    `gorm:"not null;default:false"`
	PermissionKey      *string `gorm:"uniqueIndex"`

	// Relationships
	Feedback Feedback `gorm:"foreignKey:FeedbackID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
