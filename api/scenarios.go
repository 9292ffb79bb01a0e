/*
scenarios.go - Demo data loaders for testing and demonstrations

PURPOSE:

	Fills the ledger with a small but realistic pharmacy so the UI has
	something to show. Scenarios go through the normal ledger operations,
	so stock, sold counts and credits come out consistent.

AVAILABLE SCENARIOS:

	empty:          Clears every collection
	corner-store:   One supplier, a stocked shelf, walk-in and credit sales
	two-suppliers:  Two agencies with bills, one of them partly paid

HOW SCENARIOS WORK:
 1. Reset the ledger (replace every collection with an empty list)
 2. Add agencies and stock medicines from bill items
 3. Add bills and patients
 4. Record sales, some on credit

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "corner-store"}

NOTE:

	Scenarios wipe existing data. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/pharmacy-ledger/pharmacy"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No records at all",
	},
	{
		ID:          "corner-store",
		Name:        "Corner Store",
		Description: "One supplier, stocked shelf, cash and credit sales",
	},
	{
		ID:          "two-suppliers",
		Name:        "Two Suppliers",
		Description: "Two agencies with bills, one partly paid",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the ledger and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.loadScenario(r.Context(), req.ScenarioID)
	if err != nil && !pharmacy.IsWarning(err) {
		writeError(w, http.StatusBadRequest, "Failed to load scenario", err)
		return
	}
	h.setScenario(req.ScenarioID)
	h.writeMutation(w, http.StatusOK, map[string]string{"scenario_id": req.ScenarioID}, err)
}

// ResetDatabase clears every collection.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	_, err := h.Ledger.Apply(r.Context(), emptyDocument())
	if err != nil && !pharmacy.IsWarning(err) {
		writeError(w, http.StatusInternalServerError, "Failed to reset", err)
		return
	}
	h.setScenario("")
	h.writeMutation(w, http.StatusOK, nil, err)
}

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	var load func(context.Context, *pharmacy.Ledger, time.Time) error
	switch id {
	case "empty":
		load = func(context.Context, *pharmacy.Ledger, time.Time) error { return nil }
	case "corner-store":
		load = loadCornerStore
	case "two-suppliers":
		load = loadTwoSuppliers
	default:
		return fmt.Errorf("unknown scenario: %s", id)
	}

	var s steps
	_, err := h.Ledger.Apply(ctx, emptyDocument())
	s.do(err)
	if s.err == nil {
		s.do(load(ctx, h.Ledger, time.Now()))
	}
	if s.err != nil {
		return s.err
	}
	h.log.Info("scenario loaded", "scenario", id)
	return s.result()
}

func (h *Handler) scenario() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentScenario
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}

func emptyDocument() pharmacy.ImportDocument {
	return pharmacy.FullDocument(pharmacy.Snapshot{
		Medicines:    []pharmacy.Medicine{},
		Patients:     []pharmacy.Patient{},
		Transactions: []pharmacy.Transaction{},
		Agencies:     []pharmacy.Agency{},
		Credits:      []pharmacy.Credit{},
		AgencyBills:  []pharmacy.AgencyBill{},
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// steps records the first hard error of a scenario. Persistence warnings
// do not stop a scenario; the last one is returned.
type steps struct {
	err     error
	warning error
}

func (s *steps) do(err error) {
	if s.err != nil || err == nil {
		return
	}
	if pharmacy.IsWarning(err) {
		s.warning = err
		return
	}
	s.err = err
}

func (s *steps) result() error {
	if s.err != nil {
		return s.err
	}
	return s.warning
}

func loadCornerStore(ctx context.Context, l *pharmacy.Ledger, now time.Time) error {
	var s steps

	agency, err := l.AddAgency(ctx, pharmacy.Agency{
		Name:    "Shree Ganesh Distributors",
		Contact: "98220 11223",
		Address: "Market Yard, Pune",
	})
	s.do(err)

	items := []pharmacy.BillItem{
		{Name: "Paracetamol 500mg", Quantity: 20, UnitsPerPackage: 10, CostPrice: 12, MRP: 20, Category: "Analgesic", ExpiryDate: "08/2027"},
		{Name: "Amoxicillin 250mg", Quantity: 10, UnitsPerPackage: 10, CostPrice: 45, MRP: 70, Category: "Antibiotic", ExpiryDate: "03/2027"},
		{Name: "Cough Syrup 100ml", Quantity: 12, UnitsPerPackage: 1, CostPrice: 55, MRP: 85, Category: "Syrup", ExpiryDate: "11/2026"},
	}
	meds, err := l.BatchAddMedicines(ctx, pharmacy.MedicinesFromBillItems(agency.ID, items))
	s.do(err)

	_, err = l.AddAgencyBill(ctx, pharmacy.AgencyBill{
		AgencyID:      agency.ID,
		BillNumber:    "SGD-1042",
		Date:          now.AddDate(0, 0, -7).Format(dateLayout),
		TotalAmount:   pharmacy.BillTotal(items),
		PaidAmount:    pharmacy.BillTotal(items),
		PendingAmount: 0,
	})
	s.do(err)

	walkIn, err := l.AddPatient(ctx, pharmacy.Patient{Name: "Walk-in", Phone: ""})
	s.do(err)
	regular, err := l.AddPatient(ctx, pharmacy.Patient{Name: "Sunita Patil", Phone: "98901 44556"})
	s.do(err)
	if s.err != nil || len(meds) < 3 {
		return s.result()
	}

	_, err = l.RecordSale(ctx, sale(walkIn.ID, now.AddDate(0, 0, -1), 0,
		line(meds[0], 10), line(meds[2], 1)))
	s.do(err)
	_, err = l.RecordSale(ctx, sale(regular.ID, now, 100,
		line(meds[1], 10), line(meds[0], 5)))
	s.do(err)

	return s.result()
}

func loadTwoSuppliers(ctx context.Context, l *pharmacy.Ledger, now time.Time) error {
	var s steps

	for _, a := range []struct {
		agency pharmacy.Agency
		bill   string
		total  float64
		paid   float64
	}{
		{pharmacy.Agency{Name: "Mahalaxmi Pharma", Contact: "020 2445 6677", Address: "Shivajinagar, Pune"}, "MP-77", 5400, 5400},
		{pharmacy.Agency{Name: "Om Sai Medical Agency", Contact: "98500 33221", Address: "Kothrud, Pune"}, "OSA-310", 8200, 3000},
	} {
		agency, err := l.AddAgency(ctx, a.agency)
		s.do(err)
		_, err = l.AddAgencyBill(ctx, pharmacy.AgencyBill{
			AgencyID:      agency.ID,
			BillNumber:    a.bill,
			Date:          now.AddDate(0, 0, -3).Format(dateLayout),
			TotalAmount:   a.total,
			PaidAmount:    a.paid,
			PendingAmount: a.total - a.paid,
		})
		s.do(err)
	}

	_, err := l.AddMedicine(ctx, pharmacy.Medicine{
		Name: "Cetirizine 10mg", Category: "Antihistamine",
		CostPrice: 1.2, MRP: 2.5, Stock: 300, ExpiryDate: "01/2028", UnitsPerPackage: 10,
	})
	s.do(err)

	return s.result()
}

type saleLine struct {
	med pharmacy.Medicine
	qty int
}

func line(m pharmacy.Medicine, qty int) saleLine {
	return saleLine{med: m, qty: qty}
}

// sale builds a priced transaction at MRP; credit is the unpaid part.
func sale(patientID string, at time.Time, credit float64, lines ...saleLine) pharmacy.Transaction {
	tx := pharmacy.Transaction{
		PatientID: patientID,
		Date:      at.UTC().Format(time.RFC3339),
	}
	for _, l := range lines {
		price := l.med.MRP * float64(l.qty)
		tx.Medicines = append(tx.Medicines, pharmacy.LineItem{MedicineID: l.med.ID, Quantity: l.qty, Price: price})
		tx.TotalAmount += price
		tx.TotalCost += l.med.CostPrice * float64(l.qty)
	}
	tx.Profit = tx.TotalAmount - tx.TotalCost
	tx.CreditAmount = credit
	tx.PaidAmount = tx.TotalAmount - credit
	tx.IsCredit = credit > 0
	return tx
}
