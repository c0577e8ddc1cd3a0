package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DerivedDoneMark caches "every leaf under NodeID is complete" for a user.
// It is always reproducible from CompletionMark rows plus the tree shape.
type DerivedDoneMark struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_derived_done_mark_user_node,priority:1" json:"user_id"`
	NodeID    uuid.UUID `gorm:"type:uuid;column:node_id;not null;uniqueIndex:idx_derived_done_mark_user_node,priority:2;index" json:"node_id"`
	NodeKind  string    `gorm:"column:node_kind;not null;index" json:"node_kind"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (DerivedDoneMark) TableName() string { return "derived_done_mark" }

func (m *DerivedDoneMark) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
