package pharmacy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pharmacy-ledger/pharmacy"
	"github.com/warp/pharmacy-ledger/pharmacy/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

func newTestLedger(t *testing.T, strict bool) (*pharmacy.Ledger, *store.Memory) {
	t.Helper()
	kv := store.NewMemory()
	ledger := pharmacy.New(pharmacy.NewPersister(kv, ""), pharmacy.Options{
		Strict: strict,
		Now:    func() time.Time { return fixedNow },
	})
	return ledger, kv
}

func medicine(id string, stock int) pharmacy.Medicine {
	return pharmacy.Medicine{
		ID:         id,
		Name:       "Medicine " + id,
		Category:   "General",
		CostPrice:  5,
		MRP:        10,
		Stock:      stock,
		ExpiryDate: "12/2027",
	}
}

func cashSale(id, medicineID string, qty int) pharmacy.Transaction {
	total := float64(qty) * 10
	cost := float64(qty) * 5
	return pharmacy.Transaction{
		ID:          id,
		PatientID:   "p1",
		Medicines:   []pharmacy.LineItem{{MedicineID: medicineID, Quantity: qty, Price: total}},
		TotalAmount: total,
		PaidAmount:  total,
		TotalCost:   cost,
		Profit:      total - cost,
		Date:        "2026-03-10T10:00:00.000Z",
	}
}

func mustAddMedicine(t *testing.T, l *pharmacy.Ledger, m pharmacy.Medicine) {
	t.Helper()
	_, err := l.AddMedicine(context.Background(), m)
	require.NoError(t, err)
}

func findMedicine(t *testing.T, l *pharmacy.Ledger, id string) pharmacy.Medicine {
	t.Helper()
	m, ok := l.Medicine(id)
	require.True(t, ok, "medicine %s should exist", id)
	return m
}

// =============================================================================
// RECORD SALE
// =============================================================================

func TestRecordSale_DecrementsStockAndRecordsTransaction(t *testing.T) {
	// GIVEN: An empty store with m1 (100 in stock)
	// WHEN: Selling 4 units for cash
	// THEN: m1 has 96 in stock and 4 sold, one transaction, no credit

	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()

	mustAddMedicine(t, ledger, medicine("m1", 100))

	_, err := ledger.RecordSale(ctx, pharmacy.Transaction{
		ID:           "t1",
		Medicines:    []pharmacy.LineItem{{MedicineID: "m1", Quantity: 4, Price: 40}},
		TotalAmount:  40,
		PaidAmount:   40,
		CreditAmount: 0,
		TotalCost:    20,
		Profit:       20,
		IsCredit:     false,
	})
	require.NoError(t, err)

	m1 := findMedicine(t, ledger, "m1")
	assert.Equal(t, 96, m1.Stock)
	assert.Equal(t, 4, m1.Sold)
	assert.Len(t, ledger.Transactions(), 1)
	assert.Empty(t, ledger.Credits())
}

func TestRecordSale_SoldEqualsSumOfQuantities(t *testing.T) {
	// GIVEN: Two medicines
	// WHEN: Several sales, some with both medicines on one bill
	// THEN: sold == sum of quantities and stock == initial - sold, per medicine

	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()

	mustAddMedicine(t, ledger, medicine("m1", 50))
	mustAddMedicine(t, ledger, medicine("m2", 30))

	sales := []pharmacy.Transaction{
		cashSale("t1", "m1", 3),
		cashSale("t2", "m2", 7),
		{ID: "t3", Medicines: []pharmacy.LineItem{
			{MedicineID: "m1", Quantity: 2, Price: 20},
			{MedicineID: "m2", Quantity: 1, Price: 10},
		}},
		cashSale("t4", "m1", 10),
	}
	for _, tx := range sales {
		_, err := ledger.RecordSale(ctx, tx)
		require.NoError(t, err)
	}

	want := map[string]int{}
	for _, tx := range ledger.Transactions() {
		for _, item := range tx.Medicines {
			want[item.MedicineID] += item.Quantity
		}
	}

	m1 := findMedicine(t, ledger, "m1")
	m2 := findMedicine(t, ledger, "m2")
	assert.Equal(t, want["m1"], m1.Sold)
	assert.Equal(t, 50-want["m1"], m1.Stock)
	assert.Equal(t, want["m2"], m2.Sold)
	assert.Equal(t, 30-want["m2"], m2.Stock)
	assert.Equal(t, 15, m1.Sold)
	assert.Equal(t, 8, m2.Sold)
}

func TestRecordSale_TransactionsNewestFirst(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()
	mustAddMedicine(t, ledger, medicine("m1", 10))

	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := ledger.RecordSale(ctx, cashSale(id, "m1", 1))
		require.NoError(t, err)
	}

	txs := ledger.Transactions()
	require.Len(t, txs, 3)
	assert.Equal(t, "t3", txs[0].ID)
	assert.Equal(t, "t2", txs[1].ID)
	assert.Equal(t, "t1", txs[2].ID)
}

func TestRecordSale_CreditSaleSpawnsPendingCredit(t *testing.T) {
	// GIVEN: A sale of 1500 with 500 left on credit
	// WHEN: Recording it
	// THEN: Exactly one pending credit of 500 for the same patient and date

	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()
	mustAddMedicine(t, ledger, medicine("m1", 200))

	tx := pharmacy.Transaction{
		ID:           "t1",
		PatientID:    "p7",
		Medicines:    []pharmacy.LineItem{{MedicineID: "m1", Quantity: 150, Price: 1500}},
		TotalAmount:  1500,
		PaidAmount:   1000,
		CreditAmount: 500,
		TotalCost:    750,
		Profit:       750,
		Date:         "2026-03-10T09:00:00.000Z",
		IsCredit:     true,
	}
	res, err := ledger.RecordSale(ctx, tx)
	require.NoError(t, err)
	require.NotNil(t, res.Credit)

	credits := ledger.Credits()
	require.Len(t, credits, 1)
	c := credits[0]
	assert.Equal(t, pharmacy.CreditPending, c.Status)
	assert.Equal(t, 500.0, c.Amount)
	assert.Equal(t, "p7", c.PatientID)
	assert.Equal(t, tx.Date, c.Date)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, *res.Credit, c)
}

func TestRecordSale_NoCreditUnlessCreditWithAmount(t *testing.T) {
	tests := []struct {
		name     string
		isCredit bool
		amount   float64
	}{
		{"not a credit sale", false, 500},
		{"credit sale with nothing owed", true, 0},
		{"plain cash sale", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, _ := newTestLedger(t, false)
			mustAddMedicine(t, ledger, medicine("m1", 10))

			tx := cashSale("t1", "m1", 1)
			tx.IsCredit = tt.isCredit
			tx.CreditAmount = tt.amount

			res, err := ledger.RecordSale(context.Background(), tx)
			require.NoError(t, err)
			assert.Nil(t, res.Credit)
			assert.Empty(t, ledger.Credits())
		})
	}
}

func TestRecordSale_NewCreditsPrepended(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()
	mustAddMedicine(t, ledger, medicine("m1", 10))

	for i, amount := range []float64{100, 200} {
		tx := cashSale("", "m1", 1)
		tx.IsCredit = true
		tx.CreditAmount = amount
		_, err := ledger.RecordSale(ctx, tx)
		require.NoError(t, err, "sale %d", i)
	}

	credits := ledger.Credits()
	require.Len(t, credits, 2)
	assert.Equal(t, 200.0, credits[0].Amount)
	assert.Equal(t, 100.0, credits[1].Amount)
}

func TestRecordSale_GeneratesMissingID(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	mustAddMedicine(t, ledger, medicine("m1", 10))

	res, err := ledger.RecordSale(context.Background(), cashSale("", "m1", 1))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Transaction.ID)
	assert.Equal(t, res.Transaction.ID, ledger.Transactions()[0].ID)
}

func TestRecordSale_UnknownMedicineIsSilentNoOp(t *testing.T) {
	// GIVEN: m1 in stock, a sale with lines for m1 and a deleted "ghost"
	// WHEN: Recording it in default mode
	// THEN: The sale is recorded, m1 moves, the ghost line changes nothing

	ledger, _ := newTestLedger(t, false)
	mustAddMedicine(t, ledger, medicine("m1", 10))

	tx := cashSale("t1", "m1", 2)
	tx.Medicines = append(tx.Medicines, pharmacy.LineItem{MedicineID: "ghost", Quantity: 5, Price: 50})

	_, err := ledger.RecordSale(context.Background(), tx)
	require.NoError(t, err)

	assert.Len(t, ledger.Transactions(), 1)
	assert.Len(t, ledger.Medicines(), 1)
	assert.Equal(t, 8, findMedicine(t, ledger, "m1").Stock)
}

func TestRecordSale_StrictRejectsUnknownMedicine(t *testing.T) {
	ledger, kv := newTestLedger(t, true)
	mustAddMedicine(t, ledger, medicine("m1", 10))
	writes := kv.Writes()

	tx := cashSale("t1", "m1", 2)
	tx.Medicines = append(tx.Medicines, pharmacy.LineItem{MedicineID: "ghost", Quantity: 5})
	tx.IsCredit = true
	tx.CreditAmount = 10

	_, err := ledger.RecordSale(context.Background(), tx)
	require.Error(t, err)
	assert.True(t, pharmacy.IsNotFound(err))

	var refErr *pharmacy.ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, pharmacy.CollMedicines, refErr.Collection)
	assert.Equal(t, "ghost", refErr.ID)

	// nothing applied
	assert.Empty(t, ledger.Transactions())
	assert.Empty(t, ledger.Credits())
	assert.Equal(t, 10, findMedicine(t, ledger, "m1").Stock)
	assert.Equal(t, writes, kv.Writes())
}

// =============================================================================
// AGENCIES
// =============================================================================

func TestDeleteAgency_CascadesToItsBillsOnly(t *testing.T) {
	// GIVEN: Agencies a1 and a2, each with bills
	// WHEN: Deleting a1
	// THEN: a1 and all of its bills are gone, a2's bills are untouched

	ledger, kv := newTestLedger(t, false)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2"} {
		_, err := ledger.AddAgency(ctx, pharmacy.Agency{ID: id, Name: "Agency " + id})
		require.NoError(t, err)
	}
	for i, agencyID := range []string{"a1", "a2", "a1", "a2", "a1"} {
		_, err := ledger.AddAgencyBill(ctx, pharmacy.AgencyBill{
			AgencyID:    agencyID,
			BillNumber:  "B-" + string(rune('0'+i)),
			TotalAmount: 100,
		})
		require.NoError(t, err)
	}
	a2Bills := billsFor(ledger.AgencyBills(), "a2")
	writes := kv.Writes()

	require.NoError(t, ledger.DeleteAgency(ctx, "a1"))

	agencies := ledger.Agencies()
	require.Len(t, agencies, 1)
	assert.Equal(t, "a2", agencies[0].ID)
	assert.Empty(t, billsFor(ledger.AgencyBills(), "a1"))
	assert.Equal(t, a2Bills, ledger.AgencyBills())
	assert.Equal(t, writes+1, kv.Writes(), "cascade must be one commit")
}

func TestDeleteAgency_StrictUnknown(t *testing.T) {
	ledger, _ := newTestLedger(t, true)
	err := ledger.DeleteAgency(context.Background(), "nope")
	assert.ErrorIs(t, err, pharmacy.ErrNotFound)
}

func TestAddAgencyBill_StrictRequiresAgency(t *testing.T) {
	ledger, _ := newTestLedger(t, true)
	_, err := ledger.AddAgencyBill(context.Background(), pharmacy.AgencyBill{AgencyID: "missing"})
	assert.ErrorIs(t, err, pharmacy.ErrNotFound)
	assert.Empty(t, ledger.AgencyBills())
}

func TestUpdateAgencyBill_PendingNotRecomputed(t *testing.T) {
	// GIVEN: A bill of 1000 with 1000 pending
	// WHEN: Only paidAmount is updated
	// THEN: pendingAmount keeps its stored value

	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()

	bill, err := ledger.AddAgencyBill(ctx, pharmacy.AgencyBill{
		AgencyID: "a1", TotalAmount: 1000, PendingAmount: 1000,
	})
	require.NoError(t, err)

	paid := 400.0
	require.NoError(t, ledger.UpdateAgencyBill(ctx, bill.ID, pharmacy.AgencyBillPatch{PaidAmount: &paid}))

	bills := ledger.AgencyBills()
	require.Len(t, bills, 1)
	assert.Equal(t, 400.0, bills[0].PaidAmount)
	assert.Equal(t, 1000.0, bills[0].PendingAmount)
	assert.Equal(t, 1000.0, bills[0].TotalAmount)
}

func billsFor(bills []pharmacy.AgencyBill, agencyID string) []pharmacy.AgencyBill {
	var out []pharmacy.AgencyBill
	for _, b := range bills {
		if b.AgencyID == agencyID {
			out = append(out, b)
		}
	}
	return out
}

// =============================================================================
// UPDATE / DELETE PRIMITIVES
// =============================================================================

func TestUpdateOnUnknownIDIsNoOp(t *testing.T) {
	// GIVEN: A populated ledger
	// WHEN: Updating ids that do not exist
	// THEN: Nothing changes and nothing is written

	ledger, kv := newTestLedger(t, false)
	ctx := context.Background()
	mustAddMedicine(t, ledger, medicine("m1", 10))
	_, err := ledger.RecordSale(ctx, pharmacy.Transaction{
		ID: "t1", Medicines: []pharmacy.LineItem{{MedicineID: "m1", Quantity: 1}},
		CreditAmount: 5, IsCredit: true,
	})
	require.NoError(t, err)

	before := ledger.Export()
	writes := kv.Writes()

	stock := 999
	status := pharmacy.CreditPaid
	paid := 1.0
	require.NoError(t, ledger.UpdateMedicine(ctx, "nope", pharmacy.MedicinePatch{Stock: &stock}))
	require.NoError(t, ledger.UpdateCredit(ctx, "nope", pharmacy.CreditPatch{Status: &status}))
	require.NoError(t, ledger.UpdateAgencyBill(ctx, "nope", pharmacy.AgencyBillPatch{PaidAmount: &paid}))
	require.NoError(t, ledger.DeleteMedicine(ctx, "nope"))
	require.NoError(t, ledger.DeleteAgency(ctx, "nope"))

	assert.Equal(t, before, ledger.Export())
	assert.Equal(t, writes, kv.Writes())
}

func TestUpdateOnUnknownIDStrict(t *testing.T) {
	ledger, _ := newTestLedger(t, true)
	ctx := context.Background()
	stock := 1

	assert.ErrorIs(t, ledger.UpdateMedicine(ctx, "nope", pharmacy.MedicinePatch{Stock: &stock}), pharmacy.ErrNotFound)
	assert.ErrorIs(t, ledger.UpdateCredit(ctx, "nope", pharmacy.CreditPatch{}), pharmacy.ErrNotFound)
	assert.ErrorIs(t, ledger.UpdateAgencyBill(ctx, "nope", pharmacy.AgencyBillPatch{}), pharmacy.ErrNotFound)
	assert.ErrorIs(t, ledger.DeleteMedicine(ctx, "nope"), pharmacy.ErrNotFound)
}

func TestUpdateMedicine_MergesOnlyGivenFields(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()
	mustAddMedicine(t, ledger, medicine("m1", 10))

	mrp := 12.5
	zero := 0
	require.NoError(t, ledger.UpdateMedicine(ctx, "m1", pharmacy.MedicinePatch{MRP: &mrp, Stock: &zero}))

	m1 := findMedicine(t, ledger, "m1")
	assert.Equal(t, 12.5, m1.MRP)
	assert.Equal(t, 0, m1.Stock)
	assert.Equal(t, "Medicine m1", m1.Name)
	assert.Equal(t, 5.0, m1.CostPrice)
}

func TestUpdateCredit_MarkPaidAndBack(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()
	mustAddMedicine(t, ledger, medicine("m1", 10))

	tx := cashSale("t1", "m1", 1)
	tx.IsCredit = true
	tx.CreditAmount = 10
	res, err := ledger.RecordSale(ctx, tx)
	require.NoError(t, err)

	paid := pharmacy.CreditPaid
	notes := "cash at counter"
	require.NoError(t, ledger.UpdateCredit(ctx, res.Credit.ID, pharmacy.CreditPatch{Status: &paid, Notes: &notes}))
	c := ledger.Credits()[0]
	assert.Equal(t, pharmacy.CreditPaid, c.Status)
	assert.Equal(t, "cash at counter", c.Notes)
	assert.Equal(t, 10.0, c.Amount)

	// arbitrary status writes are permitted
	pending := pharmacy.CreditPending
	require.NoError(t, ledger.UpdateCredit(ctx, res.Credit.ID, pharmacy.CreditPatch{Status: &pending}))
	assert.Equal(t, pharmacy.CreditPending, ledger.Credits()[0].Status)
}

func TestDeleteMedicine_KeepsSalesHistory(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	ctx := context.Background()
	mustAddMedicine(t, ledger, medicine("m1", 10))
	_, err := ledger.RecordSale(ctx, cashSale("t1", "m1", 1))
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteMedicine(ctx, "m1"))

	assert.Empty(t, ledger.Medicines())
	require.Len(t, ledger.Transactions(), 1)
	assert.Equal(t, "m1", ledger.Transactions()[0].Medicines[0].MedicineID)
}

// =============================================================================
// INSERTS
// =============================================================================

func TestAddMedicine_DuplicateIDPermissiveByDefault(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	mustAddMedicine(t, ledger, medicine("m1", 10))
	mustAddMedicine(t, ledger, medicine("m1", 20))
	assert.Len(t, ledger.Medicines(), 2)
}

func TestAddMedicine_DuplicateIDRejectedInStrictMode(t *testing.T) {
	ledger, _ := newTestLedger(t, true)
	mustAddMedicine(t, ledger, medicine("m1", 10))

	_, err := ledger.AddMedicine(context.Background(), medicine("m1", 20))
	assert.ErrorIs(t, err, pharmacy.ErrDuplicateID)
	assert.True(t, pharmacy.IsClientError(err))
	assert.Len(t, ledger.Medicines(), 1)
}

func TestAddPatient_GeneratesIDAndCreatedAt(t *testing.T) {
	ledger, _ := newTestLedger(t, false)

	p, err := ledger.AddPatient(context.Background(), pharmacy.Patient{Name: "Asha", Phone: "98765"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "2026-03-10T14:30:00.000Z", p.CreatedAt)

	got, ok := ledger.Patient(p.ID)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := pharmacy.NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestBatchAddMedicines_SingleWrite(t *testing.T) {
	ledger, kv := newTestLedger(t, false)

	meds, err := ledger.BatchAddMedicines(context.Background(), []pharmacy.Medicine{
		medicine("m1", 10), medicine("", 20), medicine("m3", 30),
	})
	require.NoError(t, err)
	require.Len(t, meds, 3)
	assert.NotEmpty(t, meds[1].ID)

	assert.Equal(t, 1, kv.Writes())
	got := ledger.Medicines()
	require.Len(t, got, 3)
	assert.Equal(t, meds, got)
}

func TestBatchAddMedicines_StrictDuplicateWithinBatch(t *testing.T) {
	ledger, kv := newTestLedger(t, true)

	_, err := ledger.BatchAddMedicines(context.Background(), []pharmacy.Medicine{
		medicine("m1", 10), medicine("m1", 20),
	})
	assert.ErrorIs(t, err, pharmacy.ErrDuplicateID)
	assert.Empty(t, ledger.Medicines())
	assert.Zero(t, kv.Writes())
}

// =============================================================================
// READS
// =============================================================================

func TestReadsReturnCopies(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	mustAddMedicine(t, ledger, medicine("m1", 10))
	_, err := ledger.RecordSale(context.Background(), cashSale("t1", "m1", 1))
	require.NoError(t, err)

	meds := ledger.Medicines()
	meds[0].Stock = 1000
	txs := ledger.Transactions()
	txs[0].Medicines[0].Quantity = 1000

	assert.Equal(t, 9, findMedicine(t, ledger, "m1").Stock)
	assert.Equal(t, 1, ledger.Transactions()[0].Medicines[0].Quantity)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestCommit_EveryOperationWritesAllCollections(t *testing.T) {
	ledger, kv := newTestLedger(t, false)
	mustAddMedicine(t, ledger, medicine("m1", 10))

	for _, c := range pharmacy.Collections {
		_, ok, err := kv.Get(context.Background(), string(c))
		require.NoError(t, err)
		assert.True(t, ok, "collection %s should be stored", c)
	}
	raw, _, _ := kv.Get(context.Background(), "patients")
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCommit_WriteFailureIsNonFatalWarning(t *testing.T) {
	// GIVEN: Storage that rejects writes
	// WHEN: Recording a sale
	// THEN: The sale is applied in memory, the caller gets a warning,
	//       and a later Sync writes everything once storage recovers

	ledger, kv := newTestLedger(t, false)
	ctx := context.Background()
	mustAddMedicine(t, ledger, medicine("m1", 10))

	diskFull := errors.New("disk full")
	kv.FailWrites(diskFull)

	_, err := ledger.RecordSale(ctx, cashSale("t1", "m1", 3))
	require.Error(t, err)
	assert.True(t, pharmacy.IsWarning(err))
	assert.ErrorIs(t, err, pharmacy.ErrPersistence)
	assert.ErrorIs(t, err, diskFull)

	assert.Equal(t, 7, findMedicine(t, ledger, "m1").Stock)
	dirty, _ := ledger.SyncStatus()
	assert.True(t, dirty)

	_, err = ledger.Sync(ctx)
	assert.True(t, pharmacy.IsWarning(err))

	kv.FailWrites(nil)
	savedAt, err := ledger.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, savedAt)
	dirty, lastSaved := ledger.SyncStatus()
	assert.False(t, dirty)
	assert.Equal(t, fixedNow, lastSaved)

	restored, report := pharmacy.Open(ctx, pharmacy.NewPersister(kv, ""), pharmacy.Options{})
	assert.False(t, report.Degraded())
	assert.Equal(t, ledger.Transactions(), restored.Transactions())
	assert.Equal(t, ledger.Medicines(), restored.Medicines())
}

func TestOpen_RestoresEachCollectionIndependently(t *testing.T) {
	// GIVEN: Storage with valid medicines, corrupt patients, no credits key
	// WHEN: Opening the ledger
	// THEN: Medicines load, patients and credits start empty, and the
	//       report says why

	kv := store.NewMemory()
	kv.Set("medicines", []byte(`[{"id":"m1","name":"Dolo","stock":5,"sold":1}]`))
	kv.Set("patients", []byte(`{not json`))
	kv.Set("transactions", []byte(`[]`))
	kv.Set("agencies", []byte(`[{"id":"a1","name":"Agency"}]`))
	kv.Set("agency_bills", []byte(`[{"id":"b1","agencyId":"a1","totalAmount":10}]`))

	ledger, report := pharmacy.Open(context.Background(), pharmacy.NewPersister(kv, ""), pharmacy.Options{})

	require.Len(t, ledger.Medicines(), 1)
	assert.Equal(t, 5, ledger.Medicines()[0].Stock)
	assert.Empty(t, ledger.Patients())
	assert.Empty(t, ledger.Credits())
	assert.Len(t, ledger.Agencies(), 1)
	assert.Len(t, ledger.AgencyBills(), 1)

	assert.True(t, report.Degraded())
	assert.Contains(t, report.Failed, pharmacy.CollPatients)
	assert.Equal(t, []pharmacy.Collection{pharmacy.CollCredits}, report.Missing)
	assert.ElementsMatch(t, []pharmacy.Collection{
		pharmacy.CollMedicines, pharmacy.CollTransactions, pharmacy.CollAgencies, pharmacy.CollAgencyBills,
	}, report.Loaded)
}

func TestOpen_KeyPrefixNamespacesStorage(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()

	shop := pharmacy.New(pharmacy.NewPersister(kv, "kranti_"), pharmacy.Options{})
	_, err := shop.AddMedicine(ctx, medicine("m1", 10))
	require.NoError(t, err)

	_, ok, _ := kv.Get(ctx, "kranti_medicines")
	assert.True(t, ok)
	_, ok, _ = kv.Get(ctx, "medicines")
	assert.False(t, ok)

	other, _ := pharmacy.Open(ctx, pharmacy.NewPersister(kv, ""), pharmacy.Options{})
	assert.Empty(t, other.Medicines())
}

func TestMemoryOnlyLedger(t *testing.T) {
	ledger := pharmacy.New(nil, pharmacy.Options{})
	_, err := ledger.AddMedicine(context.Background(), medicine("m1", 1))
	require.NoError(t, err)
	_, err = ledger.Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, ledger.Medicines(), 1)
}
