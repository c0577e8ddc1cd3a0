package domain

import (
	"github.com/yungbote/coursetrack-backend/internal/domain/catalog"
	"github.com/yungbote/coursetrack-backend/internal/domain/tracking"
)

type (
	ContentNode = catalog.ContentNode
	ContentItem = catalog.ContentItem

	CompletionMark         = tracking.CompletionMark
	DerivedDoneMark        = tracking.DerivedDoneMark
	ReconcileTask          = tracking.ReconcileTask
	FavoriteMark           = tracking.FavoriteMark
	DictionaryItemFavorite = tracking.DictionaryItemFavorite
	LessonItemFavorite     = tracking.LessonItemFavorite
	TrainerPhraseFavorite  = tracking.TrainerPhraseFavorite
)

const (
	ItemKindDictionaryItem = catalog.ItemKindDictionaryItem
	ItemKindLessonItem     = catalog.ItemKindLessonItem
	ItemKindTrainerPhrase  = catalog.ItemKindTrainerPhrase
)

// AllModels lists every table owned or read by this service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&ContentNode{},
		&ContentItem{},
		&CompletionMark{},
		&DerivedDoneMark{},
		&DictionaryItemFavorite{},
		&LessonItemFavorite{},
		&TrainerPhraseFavorite{},
	}
}

var ParseReconcileTask = tracking.ParseReconcileTask
