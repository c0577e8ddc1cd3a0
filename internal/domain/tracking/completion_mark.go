package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompletionMark records that a leaf node is complete for a user.
// Rows are inserted or deleted, never updated.
type CompletionMark struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_mark_user_leaf,priority:1" json:"user_id"`
	LeafNodeID uuid.UUID `gorm:"type:uuid;column:leaf_node_id;not null;uniqueIndex:idx_completion_mark_user_leaf,priority:2;index" json:"leaf_node_id"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (CompletionMark) TableName() string { return "completion_mark" }

func (m *CompletionMark) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
