package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Feedback struct {
	gorm.Model

	ProjectID   uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"not null;default:pending;index"`
	Category    string

	// Opaque end-user identity supplied by the client application.
	AuthorID    string `gorm:"not null"`
	AuthorEmail string

	// Cached aggregates. VoteCount always equals the number of Vote
	// rows referencing this item; every write that touches votes moves
	// it in the same transaction.
	VoteCount int      `gorm:"not null;default:0"`
	TotalMRR  *float64

	// Present only while Status is rejected.
	RejectionReason *string `gorm:"size:500"`

	// Merge bookkeeping. A non-nil MergedIntoID marks this item as a
	// casualty (soft-deleted from default listings). MergedFeedbackIDs
	// holds the ids a survivor absorbed; a casualty never carries both.
	MergedIntoID      *uint `gorm:"index"`
	MergedAt          *time.Time
	MergedFeedbackIDs datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Project  Project   `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Votes    []Vote    `gorm:"foreignKey:FeedbackID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments []Comment `gorm:"foreignKey:FeedbackID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func (f *Feedback) Merged() bool {
	return f.MergedIntoID != nil
}

func (f *Feedback) MergedIDList() []uint {
	if len(f.MergedFeedbackIDs) == 0 {
		return nil
	}

	var ids []uint

	if err := json.Unmarshal(f.MergedFeedbackIDs, &ids); err != nil {
		return nil
	}

	return ids
}

// IDListColumn encodes a feedback id list for the MergedFeedbackIDs column.
func IDListColumn(ids []uint) datatypes.JSON {
	if len(ids) == 0 {
		return nil
	}

	raw, err := json.Marshal(ids)

	if err != nil {
		return nil
	}

	return datatypes.JSON(raw)
}

// ActiveFeedback scopes a query to items that have not been merged
// away. Every default read path goes through this predicate.
func ActiveFeedback(db *gorm.DB) *gorm.DB {
	return db.Where("merged_into_id IS NULL")
}
