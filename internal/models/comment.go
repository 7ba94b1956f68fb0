package models

import "time"

type Comment struct {
	ID         uint   `gorm:"primaryKey"`
	FeedbackID uint   `gorm:"not null;index"`
	Content    string `gorm:"type:text;not null"`

	// Opaque end-user identity, or the operator's user id when IsAdmin.
	AuthorID string `gorm:"not null"`
	IsAdmin  bool   `gorm:"not null;default:false"`

	CreatedAt time.Time

	// Relationships
	Feedback Feedback `gorm:"foreignKey:FeedbackID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
