/*
ledger.go - The pharmacy ledger: entity store plus its operations

PURPOSE:
  Ledger owns the six collections and is the only way to change them.
  Compound operations (RecordSale, DeleteAgency) touch several
  collections and must appear atomic to every reader.

CRITICAL INVARIANTS:
  1. A sale decrements stock and increments sold for each line
  2. A credit sale with creditAmount > 0 creates exactly one pending Credit
  3. Transactions are never updated or deleted
  4. Deleting an agency deletes all of its bills before anything is saved

ATOMICITY:
  One mutex serializes every operation, including the commit that
  writes the result to storage. Readers take the same lock and get
  copies, so no one observes a half-applied sale.

COMMIT:
  Each operation ends with an explicit commit. If the write fails the
  in-memory change stands, the ledger marks itself dirty, and the
  caller receives a *PersistenceWarning.

DANGLING REFERENCES:
  By default an id that matches nothing is a silent no-op, so callers
  never need existence checks. Options.Strict turns these into
  ErrNotFound / ErrDuplicateID errors and applies nothing.
*/
package pharmacy

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Options configure a Ledger.
type Options struct {
	// Strict rejects unknown and duplicate ids instead of ignoring them.
	Strict bool

	Logger *slog.Logger

	// Now overrides the clock. Used for export timestamps and reports.
	Now func() time.Time
}

// Ledger is the pharmacy's in-memory record store.
type Ledger struct {
	mu      sync.Mutex
	st      *state
	persist *Persister // nil keeps the ledger in memory only
	strict  bool
	log     *slog.Logger
	now     func() time.Time

	dirty     bool
	lastSaved time.Time
}

// New creates an empty ledger. It does not read from storage; see Open.
func New(p *Persister, opts Options) *Ledger {
	l := &Ledger{
		st:      newState(),
		persist: p,
		strict:  opts.Strict,
		log:     opts.Logger,
		now:     opts.Now,
	}
	if l.log == nil {
		l.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Open creates a ledger and restores every collection from storage.
// Collections that cannot be read start empty; the report says which.
func Open(ctx context.Context, p *Persister, opts Options) (*Ledger, LoadReport) {
	l := New(p, opts)
	if p == nil {
		return l, LoadReport{Missing: append([]Collection(nil), Collections...)}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	report := p.load(ctx, l.st)
	for c, err := range report.Failed {
		l.log.Warn("collection not restored, starting empty",
			"collection", string(c), "error", err)
	}
	l.log.Info("ledger restored",
		"loaded", len(report.Loaded), "missing", len(report.Missing), "failed", len(report.Failed))
	return l, report
}

// Strict reports whether the ledger rejects dangling references.
func (l *Ledger) Strict() bool {
	return l.strict
}

// commit writes the current state. Callers hold l.mu.
func (l *Ledger) commit(ctx context.Context, op string) error {
	if l.persist == nil {
		return nil
	}
	if err := l.persist.save(ctx, l.st); err != nil {
		l.dirty = true
		l.log.Warn("commit failed, state kept in memory", "op", op, "error", err)
		return &PersistenceWarning{Op: op, Err: err}
	}
	l.dirty = false
	l.lastSaved = l.now()
	return nil
}

// Sync forces an immediate write of every collection ("save now") and
// returns the time the write completed.
func (l *Ledger) Sync(ctx context.Context) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.commit(ctx, "sync"); err != nil {
		return time.Time{}, err
	}
	if l.persist == nil {
		return l.now(), nil
	}
	return l.lastSaved, nil
}

// SyncStatus reports whether unsaved changes exist and when the last
// successful write happened.
func (l *Ledger) SyncStatus() (dirty bool, lastSaved time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty, l.lastSaved
}

// =============================================================================
// MEDICINES
// =============================================================================

// AddMedicine appends a medicine. An empty ID is generated.
func (l *Ledger) AddMedicine(ctx context.Context, m Medicine) (Medicine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ensureID(&m.ID)
	if l.strict && l.st.medicines.has(m.ID) {
		return Medicine{}, duplicate(CollMedicines, m.ID)
	}
	l.st.medicines.append(m)
	return m, l.commit(ctx, "add medicine")
}

// BatchAddMedicines appends all medicines with a single commit.
func (l *Ledger) BatchAddMedicines(ctx context.Context, meds []Medicine) ([]Medicine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Medicine, len(meds))
	seen := make(map[string]bool, len(meds))
	for i, m := range meds {
		ensureID(&m.ID)
		if l.strict && (seen[m.ID] || l.st.medicines.has(m.ID)) {
			return nil, duplicate(CollMedicines, m.ID)
		}
		seen[m.ID] = true
		out[i] = m
	}
	l.st.medicines.append(out...)
	return out, l.commit(ctx, "batch add medicines")
}

// UpdateMedicine merges patch into the medicine with the given id.
func (l *Ledger) UpdateMedicine(ctx context.Context, id string, patch MedicinePatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.st.medicines.update(id, patch.apply) == 0 {
		return l.dangling(CollMedicines, id, "update medicine")
	}
	return l.commit(ctx, "update medicine")
}

// DeleteMedicine removes the medicine. Past sales keep their line items.
func (l *Ledger) DeleteMedicine(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.st.medicines.remove(id) == 0 {
		return l.dangling(CollMedicines, id, "delete medicine")
	}
	return l.commit(ctx, "delete medicine")
}

// =============================================================================
// PATIENTS
// =============================================================================

func (l *Ledger) AddPatient(ctx context.Context, p Patient) (Patient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ensureID(&p.ID)
	if p.CreatedAt == "" {
		p.CreatedAt = formatTimestamp(l.now())
	}
	if l.strict && l.st.patients.has(p.ID) {
		return Patient{}, duplicate(CollPatients, p.ID)
	}
	l.st.patients.append(p)
	return p, l.commit(ctx, "add patient")
}

// =============================================================================
// SALES
// =============================================================================

// SaleResult is what RecordSale stored.
type SaleResult struct {
	Transaction Transaction
	Credit      *Credit // nil unless the sale spawned a credit
}

// RecordSale records a completed sale:
//  1. the transaction is prepended to the sales history
//  2. each line moves quantity from stock to sold on its medicine
//  3. a credit sale with a positive creditAmount prepends a pending Credit
//  4. everything is committed once
func (l *Ledger) RecordSale(ctx context.Context, tx Transaction) (SaleResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ensureID(&tx.ID)
	if l.strict {
		if l.st.transactions.has(tx.ID) {
			return SaleResult{}, duplicate(CollTransactions, tx.ID)
		}
		for _, item := range tx.Medicines {
			if !l.st.medicines.has(item.MedicineID) {
				return SaleResult{}, notFound(CollMedicines, item.MedicineID)
			}
		}
	}

	l.st.transactions.prepend(tx)

	for _, item := range tx.Medicines {
		qty := item.Quantity
		n := l.st.medicines.update(item.MedicineID, func(m *Medicine) {
			m.Stock -= qty
			m.Sold += qty
		})
		if n == 0 {
			l.log.Warn("sale line references unknown medicine",
				"transaction", tx.ID, "medicine", item.MedicineID)
		}
	}

	result := SaleResult{Transaction: tx.clone()}
	if tx.SpawnsCredit() {
		credit := Credit{
			ID:        NewID(),
			PatientID: tx.PatientID,
			Amount:    tx.CreditAmount,
			Date:      tx.Date,
			Status:    CreditPending,
		}
		l.st.credits.prepend(credit)
		result.Credit = &credit
	}

	return result, l.commit(ctx, "record sale")
}

// =============================================================================
// CREDIT
// =============================================================================

// UpdateCredit merges patch into the credit. Status may be set to any value.
func (l *Ledger) UpdateCredit(ctx context.Context, id string, patch CreditPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.st.credits.update(id, patch.apply) == 0 {
		return l.dangling(CollCredits, id, "update credit")
	}
	return l.commit(ctx, "update credit")
}

// =============================================================================
// AGENCIES & BILLS
// =============================================================================

func (l *Ledger) AddAgency(ctx context.Context, a Agency) (Agency, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ensureID(&a.ID)
	if l.strict && l.st.agencies.has(a.ID) {
		return Agency{}, duplicate(CollAgencies, a.ID)
	}
	l.st.agencies.append(a)
	return a, l.commit(ctx, "add agency")
}

// DeleteAgency removes the agency and every bill that references it.
// Medicines supplied by the agency are kept.
func (l *Ledger) DeleteAgency(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.strict && !l.st.agencies.has(id) {
		return notFound(CollAgencies, id)
	}
	removed := l.st.agencies.remove(id)
	bills := l.st.agencyBills.removeWhere(func(b *AgencyBill) bool { return b.AgencyID == id })
	if removed == 0 && bills == 0 {
		return nil
	}
	l.log.Debug("agency deleted", "agency", id, "bills", bills)
	return l.commit(ctx, "delete agency")
}

// AddAgencyBill prepends a supplier bill. PendingAmount is stored as given.
func (l *Ledger) AddAgencyBill(ctx context.Context, b AgencyBill) (AgencyBill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ensureID(&b.ID)
	if l.strict {
		if l.st.agencyBills.has(b.ID) {
			return AgencyBill{}, duplicate(CollAgencyBills, b.ID)
		}
		if !l.st.agencies.has(b.AgencyID) {
			return AgencyBill{}, notFound(CollAgencies, b.AgencyID)
		}
	}
	l.st.agencyBills.prepend(b)
	return b, l.commit(ctx, "add agency bill")
}

// UpdateAgencyBill merges patch into the bill. PendingAmount is not
// recomputed from TotalAmount and PaidAmount.
func (l *Ledger) UpdateAgencyBill(ctx context.Context, id string, patch AgencyBillPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.st.agencyBills.update(id, patch.apply) == 0 {
		return l.dangling(CollAgencyBills, id, "update agency bill")
	}
	return l.commit(ctx, "update agency bill")
}

// dangling handles an operation whose id matched nothing.
func (l *Ledger) dangling(c Collection, id, op string) error {
	if l.strict {
		return notFound(c, id)
	}
	l.log.Debug("no-op on unknown id", "op", op, "collection", string(c), "id", id)
	return nil
}

// =============================================================================
// READ ACCESS
// =============================================================================

func (l *Ledger) Medicines() []Medicine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.medicines.list()
}

func (l *Ledger) Medicine(id string) (Medicine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.medicines.find(id)
}

func (l *Ledger) Patients() []Patient {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.patients.list()
}

func (l *Ledger) Patient(id string) (Patient, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.patients.find(id)
}

// Transactions returns all sales, newest first.
func (l *Ledger) Transactions() []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.transactions.list()
}

// Credits returns all credits, newest first.
func (l *Ledger) Credits() []Credit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.credits.list()
}

func (l *Ledger) Agencies() []Agency {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.agencies.list()
}

func (l *Ledger) Agency(id string) (Agency, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.agencies.find(id)
}

// AgencyBills returns all supplier bills, newest first.
func (l *Ledger) AgencyBills() []AgencyBill {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.agencyBills.list()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
