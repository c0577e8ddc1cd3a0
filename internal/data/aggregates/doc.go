// Package aggregates implements the progress domain's write boundaries over gorm.
//
// Aggregates compose table repos from internal/data/repos, own the transaction for
// each write, serialize writers per (user, scope), and retry lost races.
package aggregates
