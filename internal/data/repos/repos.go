package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/data/repos/catalog"
	"github.com/yungbote/coursetrack-backend/internal/data/repos/progress"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type ContentNodeRepo = catalog.ContentNodeRepo
type ContentItemRepo = catalog.ContentItemRepo

type CompletionMarkRepo = progress.CompletionMarkRepo
type DerivedDoneMarkRepo = progress.DerivedDoneMarkRepo
type FavoriteMarkRepo = progress.FavoriteMarkRepo

func NewContentNodeRepo(db *gorm.DB, baseLog *logger.Logger) ContentNodeRepo {
	return catalog.NewContentNodeRepo(db, baseLog)
}
func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	return catalog.NewContentItemRepo(db, baseLog)
}

func NewCompletionMarkRepo(db *gorm.DB, baseLog *logger.Logger) CompletionMarkRepo {
	return progress.NewCompletionMarkRepo(db, baseLog)
}
func NewDerivedDoneMarkRepo(db *gorm.DB, baseLog *logger.Logger) DerivedDoneMarkRepo {
	return progress.NewDerivedDoneMarkRepo(db, baseLog)
}
func NewFavoriteMarkRepo(db *gorm.DB, baseLog *logger.Logger, table string) FavoriteMarkRepo {
	return progress.NewFavoriteMarkRepo(db, baseLog, table)
}
