// Package model holds the domain value objects shared across the engine: the
// synthetic test definition (nodes and edges), the per-node result envelope,
// and the per-run execution record.
package model
