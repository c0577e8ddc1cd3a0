package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	"github.com/yungbote/coursetrack-backend/internal/domain/catalog"
	"github.com/yungbote/coursetrack-backend/internal/domain/tracking"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type Repos struct {
	ContentNode    repos.ContentNodeRepo
	ContentItem    repos.ContentItemRepo
	CompletionMark repos.CompletionMarkRepo
	DerivedDone    repos.DerivedDoneMarkRepo
	// Favorites holds one ledger per favoritable item kind.
	Favorites map[string]repos.FavoriteMarkRepo
}

var favoriteKinds = []string{
	catalog.ItemKindDictionaryItem,
	catalog.ItemKindLessonItem,
	catalog.ItemKindTrainerPhrase,
}

func wireRepos(db *gorm.DB, log *logger.Logger) (Repos, error) {
	log.Info("Wiring repos...")
	favorites := make(map[string]repos.FavoriteMarkRepo, len(favoriteKinds))
	for _, kind := range favoriteKinds {
		table, err := tracking.FavoriteTable(kind)
		if err != nil {
			return Repos{}, err
		}
		favorites[kind] = repos.NewFavoriteMarkRepo(db, log, table)
	}
	return Repos{
		ContentNode:    repos.NewContentNodeRepo(db, log),
		ContentItem:    repos.NewContentItemRepo(db, log),
		CompletionMark: repos.NewCompletionMarkRepo(db, log),
		DerivedDone:    repos.NewDerivedDoneMarkRepo(db, log),
		Favorites:      favorites,
	}, nil
}
