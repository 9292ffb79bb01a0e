/*
persist.go - Persistence adapter between the ledger and a KVStore

PURPOSE:
  Mirrors the six collections to durable storage, one key each, and
  restores them on start-up.

WRITE POLICY:
  Every ledger operation ends with one Save of all six collections.
  There is no dirty tracking per collection: callers that want fewer
  writes group their mutations into one operation (BatchAddMedicines).

READ POLICY:
  Each key is loaded on its own. A missing key, a read error or a
  value that does not decode leaves only that collection empty; the
  other five still load. Problems are reported, never fatal.
*/
package pharmacy

import (
	"context"
	"encoding/json"
	"fmt"
)

// Persister encodes ledger collections into a KVStore.
type Persister struct {
	kv     KVStore
	prefix string
}

// NewPersister returns a Persister writing to kv. prefix namespaces every
// key, so several ledgers can share one store; it is usually empty.
func NewPersister(kv KVStore, prefix string) *Persister {
	return &Persister{kv: kv, prefix: prefix}
}

// Key returns the storage key of a collection.
func (p *Persister) Key(c Collection) string {
	return p.prefix + string(c)
}

// LoadReport describes how each collection was restored.
type LoadReport struct {
	Loaded  []Collection
	Missing []Collection         // key absent, collection starts empty
	Failed  map[Collection]error // read or decode failure, collection starts empty
}

// Degraded reports whether any collection failed to load.
func (r LoadReport) Degraded() bool {
	return len(r.Failed) > 0
}

func (p *Persister) save(ctx context.Context, s *state) error {
	entries := make(map[string][]byte, len(Collections))
	for _, c := range Collections {
		data, err := s.encode(c)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c, err)
		}
		entries[p.Key(c)] = data
	}
	if err := p.kv.PutBatch(ctx, entries); err != nil {
		return fmt.Errorf("write collections: %w", err)
	}
	return nil
}

func (p *Persister) load(ctx context.Context, s *state) LoadReport {
	report := LoadReport{Failed: make(map[Collection]error)}
	for _, c := range Collections {
		data, ok, err := p.kv.Get(ctx, p.Key(c))
		switch {
		case err != nil:
			report.Failed[c] = fmt.Errorf("read %s: %w", c, err)
		case !ok:
			report.Missing = append(report.Missing, c)
		default:
			if err := s.decode(c, data); err != nil {
				report.Failed[c] = fmt.Errorf("decode %s: %w", c, err)
				continue
			}
			report.Loaded = append(report.Loaded, c)
		}
	}
	return report
}

// =============================================================================
// STATE - The six collections together
// =============================================================================

type state struct {
	medicines    *collection[Medicine]
	patients     *collection[Patient]
	transactions *collection[Transaction]
	agencies     *collection[Agency]
	credits      *collection[Credit]
	agencyBills  *collection[AgencyBill]
}

func newState() *state {
	txs := newCollection(CollTransactions, func(t *Transaction) string { return t.ID })
	txs.clone = Transaction.clone
	return &state{
		medicines:    newCollection(CollMedicines, func(m *Medicine) string { return m.ID }),
		patients:     newCollection(CollPatients, func(p *Patient) string { return p.ID }),
		transactions: txs,
		agencies:     newCollection(CollAgencies, func(a *Agency) string { return a.ID }),
		credits:      newCollection(CollCredits, func(c *Credit) string { return c.ID }),
		agencyBills:  newCollection(CollAgencyBills, func(b *AgencyBill) string { return b.ID }),
	}
}

func (s *state) encode(c Collection) ([]byte, error) {
	switch c {
	case CollMedicines:
		return encodeList(s.medicines)
	case CollPatients:
		return encodeList(s.patients)
	case CollTransactions:
		return encodeList(s.transactions)
	case CollAgencies:
		return encodeList(s.agencies)
	case CollCredits:
		return encodeList(s.credits)
	case CollAgencyBills:
		return encodeList(s.agencyBills)
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

func (s *state) decode(c Collection, data []byte) error {
	switch c {
	case CollMedicines:
		return decodeInto(s.medicines, data)
	case CollPatients:
		return decodeInto(s.patients, data)
	case CollTransactions:
		return decodeInto(s.transactions, data)
	case CollAgencies:
		return decodeInto(s.agencies, data)
	case CollCredits:
		return decodeInto(s.credits, data)
	case CollAgencyBills:
		return decodeInto(s.agencyBills, data)
	}
	return fmt.Errorf("unknown collection %q", c)
}

func encodeList[T any](c *collection[T]) ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}

// decodeInto replaces c only if data decodes completely.
func decodeInto[T any](c *collection[T], data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	c.replace(items)
	return nil
}
