/*
Package pharmacy provides the ledger engine of a single-store pharmacy.

PURPOSE:
  Keeps medicine stock, patients, sales, patient credit ("Udhari"),
  supplier agencies and supplier bills mutually consistent. The Ledger
  owns every collection in memory and mirrors it to a durable key-value
  store after each operation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Medicine: a stocked item, counted in single units
  - Transaction: an immutable point-of-sale record
  - Credit: an amount a patient still owes after a sale
  - AgencyBill: a supplier invoice with paid/pending amounts
  - *Patch: partial updates, nil fields are left untouched

DESIGN PRINCIPLES:
  1. Transactions are append-only: no update, no delete
  2. Relationships are by id only, never embedded
  3. Money is float64; counts are whole units
  4. Dates are kept as the caller wrote them so backups round-trip

SEE ALSO:
  - ledger.go: Operations that mutate these types
  - persist.go: Durable mirror of the collections
  - snapshot.go: Backup/restore document
*/
package pharmacy

// =============================================================================
// INVENTORY
// =============================================================================

// Medicine is a stocked item. Prices are per single unit (tablet, bottle).
type Medicine struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	CostPrice       float64 `json:"costPrice"`
	MRP             float64 `json:"mrp"`
	Stock           int     `json:"stock"`
	Sold            int     `json:"sold"`
	ExpiryDate      string  `json:"expiryDate"` // MM/YYYY
	AgencyID        string  `json:"agencyId,omitempty"`
	UnitsPerPackage int     `json:"unitsPerPackage,omitempty"`
}

// MedicinePatch is a partial update of a Medicine.
type MedicinePatch struct {
	Name            *string  `json:"name,omitempty"`
	Category        *string  `json:"category,omitempty"`
	CostPrice       *float64 `json:"costPrice,omitempty"`
	MRP             *float64 `json:"mrp,omitempty"`
	Stock           *int     `json:"stock,omitempty"`
	Sold            *int     `json:"sold,omitempty"`
	ExpiryDate      *string  `json:"expiryDate,omitempty"`
	AgencyID        *string  `json:"agencyId,omitempty"`
	UnitsPerPackage *int     `json:"unitsPerPackage,omitempty"`
}

func (p MedicinePatch) apply(m *Medicine) {
	setIf(&m.Name, p.Name)
	setIf(&m.Category, p.Category)
	setIf(&m.CostPrice, p.CostPrice)
	setIf(&m.MRP, p.MRP)
	setIf(&m.Stock, p.Stock)
	setIf(&m.Sold, p.Sold)
	setIf(&m.ExpiryDate, p.ExpiryDate)
	setIf(&m.AgencyID, p.AgencyID)
	setIf(&m.UnitsPerPackage, p.UnitsPerPackage)
}

// =============================================================================
// PATIENTS & SALES
// =============================================================================

type Patient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"createdAt"`
}

// LineItem is one medicine on a sale. Price is the line total, not per unit.
type LineItem struct {
	MedicineID string  `json:"medicineId"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

// Transaction is a completed sale.
//
// The caller computes the money fields. The engine trusts
// TotalAmount = PaidAmount + CreditAmount and Profit = TotalAmount - TotalCost.
type Transaction struct {
	ID           string     `json:"id"`
	PatientID    string     `json:"patientId"`
	Medicines    []LineItem `json:"medicines"`
	TotalAmount  float64    `json:"totalAmount"`
	PaidAmount   float64    `json:"paidAmount"`
	CreditAmount float64    `json:"creditAmount"`
	TotalCost    float64    `json:"totalCost"`
	Profit       float64    `json:"profit"`
	Date         string     `json:"date"`
	IsCredit     bool       `json:"isCredit,omitempty"`
}

// SpawnsCredit reports whether recording this sale creates a Credit.
func (t Transaction) SpawnsCredit() bool {
	return t.IsCredit && t.CreditAmount > 0
}

func (t Transaction) clone() Transaction {
	t.Medicines = append([]LineItem(nil), t.Medicines...)
	return t
}

// =============================================================================
// CREDIT (UDHARI)
// =============================================================================

type CreditStatus string

const (
	CreditPending CreditStatus = "pending"
	CreditPaid    CreditStatus = "paid"
)

// Credit is money a patient owes. Only RecordSale creates one.
type Credit struct {
	ID        string       `json:"id"`
	PatientID string       `json:"patientId"`
	Amount    float64      `json:"amount"`
	Date      string       `json:"date"`
	Status    CreditStatus `json:"status"`
	Notes     string       `json:"notes,omitempty"`
}

// CreditPatch is a partial update of a Credit. Any status may be written.
type CreditPatch struct {
	PatientID *string       `json:"patientId,omitempty"`
	Amount    *float64      `json:"amount,omitempty"`
	Date      *string       `json:"date,omitempty"`
	Status    *CreditStatus `json:"status,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
}

func (p CreditPatch) apply(c *Credit) {
	setIf(&c.PatientID, p.PatientID)
	setIf(&c.Amount, p.Amount)
	setIf(&c.Date, p.Date)
	setIf(&c.Status, p.Status)
	setIf(&c.Notes, p.Notes)
}

// =============================================================================
// SUPPLIERS
// =============================================================================

type Agency struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

// AgencyBill is a supplier invoice.
// PendingAmount is stored as given; the engine never recomputes it.
type AgencyBill struct {
	ID            string  `json:"id"`
	AgencyID      string  `json:"agencyId"`
	BillNumber    string  `json:"billNumber"`
	Date          string  `json:"date"`
	TotalAmount   float64 `json:"totalAmount"`
	PaidAmount    float64 `json:"paidAmount"`
	PendingAmount float64 `json:"pendingAmount"`
	Notes         string  `json:"notes,omitempty"`
}

type AgencyBillPatch struct {
	AgencyID      *string  `json:"agencyId,omitempty"`
	BillNumber    *string  `json:"billNumber,omitempty"`
	Date          *string  `json:"date,omitempty"`
	TotalAmount   *float64 `json:"totalAmount,omitempty"`
	PaidAmount    *float64 `json:"paidAmount,omitempty"`
	PendingAmount *float64 `json:"pendingAmount,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

func (p AgencyBillPatch) apply(b *AgencyBill) {
	setIf(&b.AgencyID, p.AgencyID)
	setIf(&b.BillNumber, p.BillNumber)
	setIf(&b.Date, p.Date)
	setIf(&b.TotalAmount, p.TotalAmount)
	setIf(&b.PaidAmount, p.PaidAmount)
	setIf(&b.PendingAmount, p.PendingAmount)
	setIf(&b.Notes, p.Notes)
}

// BillItem is one line of a supplier bill, counted in packages.
type BillItem struct {
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	UnitsPerPackage int     `json:"unitsPerPackage"`
	CostPrice       float64 `json:"costPrice"`
	MRP             float64 `json:"mrp"`
	Category        string  `json:"category"`
	ExpiryDate      string  `json:"expiryDate"`
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
