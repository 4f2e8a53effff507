// Package dag validates a synthetic test's node/edge set and compiles it
// into the adjacency and in-degree structures the scheduler executes from.
// Validation (referential integrity, then cycle detection) runs before any
// node executes; a test that fails it is rejected whole.
package dag
