package tracking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/domain/catalog"
)

// FavoriteMark is the row shape shared by every favorites table.
// Each item kind is stored in its own table; see FavoriteTable.
type FavoriteMark struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null" json:"item_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (m *FavoriteMark) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Migration-only models. They pin per-table unique index names.

type DictionaryItemFavorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dictionary_item_favorite_user_item,priority:1"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dictionary_item_favorite_user_item,priority:2"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

func (DictionaryItemFavorite) TableName() string { return "dictionary_item_favorite" }

type LessonItemFavorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_item_favorite_user_item,priority:1"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_item_favorite_user_item,priority:2"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

func (LessonItemFavorite) TableName() string { return "lesson_item_favorite" }

type TrainerPhraseFavorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_trainer_phrase_favorite_user_item,priority:1"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_trainer_phrase_favorite_user_item,priority:2"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

func (TrainerPhraseFavorite) TableName() string { return "trainer_phrase_favorite" }

// FavoriteTable maps an item kind to the table holding its favorites.
func FavoriteTable(kind string) (string, error) {
	switch kind {
	case catalog.ItemKindDictionaryItem:
		return DictionaryItemFavorite{}.TableName(), nil
	case catalog.ItemKindLessonItem:
		return LessonItemFavorite{}.TableName(), nil
	case catalog.ItemKindTrainerPhrase:
		return TrainerPhraseFavorite{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown favorite kind %q", kind)
	}
}
