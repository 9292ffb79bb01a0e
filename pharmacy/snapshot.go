/*
snapshot.go - Backup and restore of the whole ledger

PURPOSE:
  A Snapshot is one JSON document holding all six collections plus a
  version tag and an ISO-8601 timestamp. It is the manual backup
  format, written to a file the user picks and read back on restore.

IMPORT RULES:
  - Nothing happens without explicit confirmation (restore is destructive)
  - The whole document is parsed before anything changes; a parse
    failure returns ErrMalformedSnapshot and leaves the ledger untouched
  - Each collection present in the document replaces the live one
  - Absent (or null) collections are left as they are, not cleared

DOCUMENT:
  {
    "medicines": [...], "patients": [...], "transactions": [...],
    "agencies": [...], "credits": [...], "agencyBills": [...],
    "version": "1.3", "timestamp": "2026-10-15T09:30:00.000Z"
  }
*/
package pharmacy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// SnapshotVersion is written into every exported document.
const SnapshotVersion = "1.3"

// Snapshot is a complete exported copy of the ledger.
type Snapshot struct {
	Medicines    []Medicine    `json:"medicines"`
	Patients     []Patient     `json:"patients"`
	Transactions []Transaction `json:"transactions"`
	Agencies     []Agency      `json:"agencies"`
	Credits      []Credit      `json:"credits"`
	AgencyBills  []AgencyBill  `json:"agencyBills"`
	Version      string        `json:"version"`
	Timestamp    string        `json:"timestamp"`
}

// ImportDocument is an incoming backup. A nil field means the collection
// was absent and must not be touched.
type ImportDocument struct {
	Medicines    *[]Medicine    `json:"medicines"`
	Patients     *[]Patient     `json:"patients"`
	Transactions *[]Transaction `json:"transactions"`
	Agencies     *[]Agency      `json:"agencies"`
	Credits      *[]Credit      `json:"credits"`
	AgencyBills  *[]AgencyBill  `json:"agencyBills"`
	Version      string         `json:"version,omitempty"`
	Timestamp    string         `json:"timestamp,omitempty"`
}

// FullDocument turns a snapshot into a document that replaces every collection.
func FullDocument(s Snapshot) ImportDocument {
	return ImportDocument{
		Medicines:    &s.Medicines,
		Patients:     &s.Patients,
		Transactions: &s.Transactions,
		Agencies:     &s.Agencies,
		Credits:      &s.Credits,
		AgencyBills:  &s.AgencyBills,
		Version:      s.Version,
		Timestamp:    s.Timestamp,
	}
}

// ParseImport decodes a backup document.
func ParseImport(data []byte) (ImportDocument, error) {
	var doc ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return ImportDocument{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return doc, nil
}

// ImportReport lists the collections an import replaced.
type ImportReport struct {
	Replaced []Collection `json:"replaced"`
	Version  string       `json:"version,omitempty"`
}

// =============================================================================
// EXPORT
// =============================================================================

// Export copies every collection into a Snapshot stamped with the current time.
func (l *Ledger) Export() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Snapshot{
		Medicines:    l.st.medicines.list(),
		Patients:     l.st.patients.list(),
		Transactions: l.st.transactions.list(),
		Agencies:     l.st.agencies.list(),
		Credits:      l.st.credits.list(),
		AgencyBills:  l.st.agencyBills.list(),
		Version:      SnapshotVersion,
		Timestamp:    formatTimestamp(l.now()),
	}
}

// WriteSnapshot writes s as indented JSON.
func WriteSnapshot(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// BackupFilename names the backup artifact for the given day.
func BackupFilename(t time.Time) string {
	return "kranti_medical_vault_" + t.UTC().Format("2006-01-02") + ".json"
}

// =============================================================================
// IMPORT
// =============================================================================

// Import restores a backup document. confirmed must be true: a restore
// overwrites whole collections.
func (l *Ledger) Import(ctx context.Context, data []byte, confirmed bool) (ImportReport, error) {
	if !confirmed {
		return ImportReport{}, ErrImportNotConfirmed
	}
	doc, err := ParseImport(data)
	if err != nil {
		return ImportReport{}, err
	}
	return l.Apply(ctx, doc)
}

// Apply replaces every collection present in doc and commits once.
func (l *Ledger) Apply(ctx context.Context, doc ImportDocument) (ImportReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	report := ImportReport{Version: doc.Version}
	replace(l.st.medicines, doc.Medicines, &report)
	replace(l.st.patients, doc.Patients, &report)
	replace(l.st.transactions, doc.Transactions, &report)
	replace(l.st.agencies, doc.Agencies, &report)
	replace(l.st.credits, doc.Credits, &report)
	replace(l.st.agencyBills, doc.AgencyBills, &report)

	if len(report.Replaced) == 0 {
		return report, nil
	}
	l.log.Info("snapshot imported", "replaced", len(report.Replaced), "version", doc.Version)
	return report, l.commit(ctx, "import snapshot")
}

func replace[T any](c *collection[T], items *[]T, report *ImportReport) {
	if items == nil {
		return
	}
	c.replace(*items)
	report.Replaced = append(report.Replaced, c.name)
}
