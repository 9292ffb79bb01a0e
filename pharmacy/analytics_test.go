package pharmacy_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pharmacy-ledger/pharmacy"
)

func sold(id, date string, total, cost, credit float64) pharmacy.Transaction {
	return pharmacy.Transaction{
		ID:           id,
		Medicines:    []pharmacy.LineItem{{MedicineID: "m1", Quantity: 2, Price: total}},
		TotalAmount:  total,
		PaidAmount:   total - credit,
		CreditAmount: credit,
		TotalCost:    cost,
		Profit:       total - cost,
		Date:         date,
		IsCredit:     credit > 0,
	}
}

func TestProfitReport_Windows(t *testing.T) {
	now := time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)
	txs := []pharmacy.Transaction{
		sold("today-1", "2026-03-10T09:00:00.000Z", 100, 60, 0),
		sold("today-2", "2026-03-10T17:59:59Z", 50.5, 30.25, 20),
		sold("yesterday", "2026-03-09T23:59:59.999Z", 40, 10, 0),
		sold("early-month", "2026-03-01", 10, 5, 0),
		sold("last-month", "2026-02-28T12:00:00Z", 999, 1, 0),
		sold("garbage", "someday", 5000, 0, 0),
	}

	tests := []struct {
		name    string
		filter  pharmacy.ProfitFilter
		from    time.Time
		to      time.Time
		sales   int
		revenue string
		profit  string
	}{
		{"today", pharmacy.FilterToday, time.Time{}, time.Time{}, 2, "150.5", "60.25"},
		{"default is today", "", time.Time{}, time.Time{}, 2, "150.5", "60.25"},
		{"yesterday", pharmacy.FilterYesterday, time.Time{}, time.Time{}, 1, "40", "30"},
		{"month", pharmacy.FilterMonth, time.Time{}, time.Time{}, 4, "200.5", "95.25"},
		{
			"custom inclusive of both days", pharmacy.FilterCustom,
			time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			2, "1009", "1003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := pharmacy.ProfitReport(txs, tt.filter, tt.from, tt.to, now)
			require.NoError(t, err)
			assert.Equal(t, tt.sales, sum.Sales)
			assert.Equal(t, tt.sales*2, sum.Units)
			assert.True(t, decimal.RequireFromString(tt.revenue).Equal(sum.Revenue), "revenue %s", sum.Revenue)
			assert.True(t, decimal.RequireFromString(tt.profit).Equal(sum.Profit), "profit %s", sum.Profit)
		})
	}
}

func TestProfitReport_CollectedAndCredit(t *testing.T) {
	now := time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)
	txs := []pharmacy.Transaction{
		sold("a", "2026-03-10T09:00:00Z", 1500, 750, 500),
		sold("b", "2026-03-10T10:00:00Z", 0.1, 0, 0),
		sold("c", "2026-03-10T11:00:00Z", 0.2, 0, 0),
	}

	sum, err := pharmacy.ProfitReport(txs, pharmacy.FilterToday, time.Time{}, time.Time{}, now)
	require.NoError(t, err)
	assert.Equal(t, "1500.3", sum.Revenue.String())
	assert.Equal(t, "1000.3", sum.Collected.String())
	assert.Equal(t, "500", sum.Credit.String())
}

func TestProfitReport_InvalidFilters(t *testing.T) {
	now := time.Now()

	_, err := pharmacy.ProfitReport(nil, "weekly", time.Time{}, time.Time{}, now)
	assert.Error(t, err)

	_, err = pharmacy.ProfitReport(nil, pharmacy.FilterCustom, time.Time{}, now, now)
	assert.Error(t, err)

	_, err = pharmacy.ProfitReport(nil, pharmacy.FilterCustom, now, now.AddDate(0, 0, -2), now)
	assert.Error(t, err)
}

func TestLedgerProfitReport_UsesLedgerClock(t *testing.T) {
	ledger, _ := newTestLedger(t, false)
	mustAddMedicine(t, ledger, medicine("m1", 10))
	_, err := ledger.RecordSale(context.Background(), cashSale("t1", "m1", 2))
	require.NoError(t, err)

	sum, err := ledger.ProfitReport(pharmacy.FilterToday, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sales)
	assert.Equal(t, "20", sum.Revenue.String())
	assert.Equal(t, "10", sum.Profit.String())
}

func TestCreditSummary(t *testing.T) {
	credits := []pharmacy.Credit{
		{ID: "c1", PatientID: "p1", Amount: 100.1, Status: pharmacy.CreditPending},
		{ID: "c2", PatientID: "p2", Amount: 500, Status: pharmacy.CreditPending},
		{ID: "c3", PatientID: "p1", Amount: 0.2, Status: pharmacy.CreditPending},
		{ID: "c4", PatientID: "p1", Amount: 1000, Status: pharmacy.CreditPaid},
		{ID: "c5", PatientID: "p3", Amount: 100.3, Status: pharmacy.CreditPending},
		{ID: "c6", PatientID: "p4", Amount: 50, Status: pharmacy.CreditPaid},
	}

	summary := pharmacy.CreditSummary(credits)
	require.Len(t, summary, 3)

	assert.Equal(t, "p2", summary[0].PatientID)
	assert.Equal(t, "500", summary[0].Pending.String())

	// equal balances are ordered by patient id
	assert.Equal(t, "p1", summary[1].PatientID)
	assert.Equal(t, "100.3", summary[1].Pending.String())
	assert.Equal(t, 2, summary[1].Count)
	assert.Equal(t, "p3", summary[2].PatientID)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{
		"2026-03-10T09:15:00.000Z",
		"2026-03-10T09:15:00+05:30",
		"2026-03-10T09:15:00",
		"2026-03-10",
	} {
		at, ok := pharmacy.ParseDate(s, time.UTC)
		assert.True(t, ok, s)
		assert.Equal(t, 2026, at.Year(), s)
	}

	_, ok := pharmacy.ParseDate("10/03/2026", time.UTC)
	assert.False(t, ok)
}

// =============================================================================
// SUPPLIER BILLS
// =============================================================================

func TestMedicinesFromBillItems(t *testing.T) {
	// GIVEN: A bill with one strip item and one single-unit item
	// WHEN: Converting it to stock
	// THEN: Stock counts units and prices are per unit

	items := []pharmacy.BillItem{
		{Name: "Paracetamol", Quantity: 20, UnitsPerPackage: 10, CostPrice: 12, MRP: 20, Category: "Analgesic", ExpiryDate: "08/2027"},
		{Name: "Syrup", Quantity: 3, UnitsPerPackage: 0, CostPrice: 55.5, MRP: 85, ExpiryDate: "11/2026"},
		{Name: "Odd pack", Quantity: 1, UnitsPerPackage: 3, CostPrice: 10, MRP: 10},
	}

	meds := pharmacy.MedicinesFromBillItems("a1", items)
	require.Len(t, meds, 3)

	assert.NotEmpty(t, meds[0].ID)
	assert.NotEqual(t, meds[0].ID, meds[1].ID)
	assert.Equal(t, "a1", meds[0].AgencyID)
	assert.Equal(t, 200, meds[0].Stock)
	assert.Equal(t, 0, meds[0].Sold)
	assert.Equal(t, 1.2, meds[0].CostPrice)
	assert.Equal(t, 2.0, meds[0].MRP)
	assert.Equal(t, 10, meds[0].UnitsPerPackage)
	assert.Equal(t, "08/2027", meds[0].ExpiryDate)

	assert.Equal(t, 3, meds[1].Stock)
	assert.Equal(t, 55.5, meds[1].CostPrice)
	assert.Equal(t, 1, meds[1].UnitsPerPackage)

	assert.Equal(t, 3.33, meds[2].CostPrice)
}

func TestBillTotal(t *testing.T) {
	items := []pharmacy.BillItem{
		{Quantity: 3, CostPrice: 0.1},
		{Quantity: 20, CostPrice: 12},
	}
	assert.Equal(t, 240.3, pharmacy.BillTotal(items))
	assert.Equal(t, 0.0, pharmacy.BillTotal(nil))
}
