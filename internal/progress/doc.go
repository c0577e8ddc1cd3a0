// Package progress derives per-user completion state for multi-level content trees.
//
// Leaves are the only directly toggled units. Every interior node's progress is a
// pure function of the completion ledger and the tree shape, computed by Aggregator
// in one batched pass per request. The shape of each tree variant (which kinds exist,
// which one is the leaf, which interior kind gets a materialized done flag) is data,
// described by Shape and loaded from shapes.yaml.
package progress
