// Package aggregates defines the write boundaries of the progress domain.
//
// Contracts here carry no persistence detail. Each write method is one atomic unit
// in which the ledger invariants are enforced.
package aggregates
