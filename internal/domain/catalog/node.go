package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentNode is one node of a content tree (course, level, lesson, ...).
// The progress engine only reads these rows.
type ContentNode struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Variant  string     `gorm:"column:variant;not null;index:idx_content_node_variant_kind,priority:1" json:"variant"`
	Kind     string     `gorm:"column:kind;not null;index:idx_content_node_variant_kind,priority:2" json:"kind"`
	ParentID *uuid.UUID `gorm:"type:uuid;column:parent_id;index:idx_content_node_parent_order,priority:1" json:"parent_id,omitempty"`
	OrderKey int        `gorm:"column:order_key;not null;default:0;index:idx_content_node_parent_order,priority:2" json:"order_key"`

	Title string `gorm:"column:title;not null" json:"title"`
	Slug  string `gorm:"column:slug;index" json:"slug"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ContentNode) TableName() string { return "content_node" }

func (n *ContentNode) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
