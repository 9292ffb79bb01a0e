/*
store.go - Durable key-value storage interface

PURPOSE:
  The ledger mirrors each of its six collections to one entry of a
  key-value byte store. Implementations only move bytes; encoding and
  key naming belong to the Persister.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite table, one row per key
  - pharmacy/store/memory.go: In-memory map for tests

BATCHES:
  PutBatch writes every entry of one commit together. A SQLite store
  does this in a single database transaction so a crash never leaves
  half of a sale on disk.
*/
package pharmacy

import "context"

// KVStore persists opaque values under string keys.
type KVStore interface {
	// Get returns the value stored under key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// PutBatch stores all entries atomically.
	PutBatch(ctx context.Context, entries map[string][]byte) error
}

// Collection names one of the six ledger collections. Its value is the
// durable storage key.
type Collection string

const (
	CollMedicines    Collection = "medicines"
	CollPatients     Collection = "patients"
	CollTransactions Collection = "transactions"
	CollAgencies     Collection = "agencies"
	CollCredits      Collection = "credits"
	CollAgencyBills  Collection = "agency_bills"
)

// Collections lists every collection in storage order.
var Collections = []Collection{
	CollMedicines,
	CollPatients,
	CollTransactions,
	CollAgencies,
	CollCredits,
	CollAgencyBills,
}
