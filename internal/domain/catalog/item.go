package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ItemKindDictionaryItem = "dictionary_item"
	ItemKindLessonItem     = "lesson_item"
	ItemKindTrainerPhrase  = "trainer_phrase"
)

// ContentItem is a favoritable entry (dictionary word, lesson phrase, trainer phrase).
// Items sit beside the content tree and never take part in progress aggregation.
type ContentItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        string     `gorm:"column:kind;not null;index:idx_content_item_kind_owner,priority:1" json:"kind"`
	OwnerNodeID *uuid.UUID `gorm:"type:uuid;column:owner_node_id;index:idx_content_item_kind_owner,priority:2" json:"owner_node_id,omitempty"`
	OrderKey    int        `gorm:"column:order_key;not null;default:0" json:"order_key"`
	TextEN      string     `gorm:"column:text_en;type:text" json:"text_en"`
	TextRU      string     `gorm:"column:text_ru;type:text" json:"text_ru"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ContentItem) TableName() string { return "content_item" }

func (i *ContentItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsItemKind reports whether kind names one of the favoritable item kinds.
func IsItemKind(kind string) bool {
	switch kind {
	case ItemKindDictionaryItem, ItemKindLessonItem, ItemKindTrainerPhrase:
		return true
	default:
		return false
	}
}
