/*
handlers.go - HTTP API handlers for the pharmacy ledger

PURPOSE:
  Exposes the ledger's operations to the front desk UI. Handles HTTP
  request/response and JSON, and delegates every change to the Ledger.

ENDPOINTS:
  Medicines:
    GET    /api/medicines              List medicines
    POST   /api/medicines              Add medicine
    POST   /api/medicines/batch        Add several medicines, one save
    GET    /api/medicines/{id}         Get medicine
    PATCH  /api/medicines/{id}         Update medicine fields
    DELETE /api/medicines/{id}         Delete medicine

  Patients:
    GET    /api/patients               List patients
    POST   /api/patients               Add patient
    GET    /api/patients/{id}          Get patient

  Sales & credit:
    GET    /api/transactions           Sales history, newest first
    POST   /api/transactions           Record sale
    GET    /api/credits                Credit records
    GET    /api/credits/summary        Pending credit per patient
    PATCH  /api/credits/{id}           Update credit (e.g. mark paid)

  Suppliers:
    GET    /api/agencies               List agencies
    POST   /api/agencies               Add agency
    DELETE /api/agencies/{id}          Delete agency and its bills
    POST   /api/agencies/{id}/stock    Convert bill items into medicines
    GET    /api/agency-bills           List bills
    POST   /api/agency-bills           Add bill
    PATCH  /api/agency-bills/{id}      Update bill

  Reports & vault:
    GET    /api/reports/profit         Profit for today|yesterday|month|custom
    GET    /api/vault/status           Unsaved changes, last save
    POST   /api/vault/sync             Save now
    GET    /api/vault/backup           Download snapshot
    POST   /api/vault/restore          Restore snapshot (?confirm=true)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, malformed snapshot, restore not confirmed
  - 404: Record not found
  - 409: Duplicate id (strict mode)
  - 500: Internal errors
  A failed save is not an error: the change is applied and the response
  carries a "warning".

SECURITY NOTE:
  No authentication. The server is meant for a single counter machine.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/pharmacy-ledger/pharmacy"
)

const (
	dateLayout     = "2006-01-02"
	maxBackupBytes = 64 << 20
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *pharmacy.Ledger
	log    *slog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given ledger.
func NewHandler(ledger *pharmacy.Ledger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Ledger: ledger, log: logger}
}

// =============================================================================
// MEDICINE HANDLERS
// =============================================================================

// ListMedicines returns all medicines.
func (h *Handler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Medicines())
}

// GetMedicine returns a single medicine.
func (h *Handler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	med, ok := h.Ledger.Medicine(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Medicine not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// CreateMedicine adds a medicine.
func (h *Handler) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	var med pharmacy.Medicine
	if !decodeBody(w, r, &med) {
		return
	}
	med, err := h.Ledger.AddMedicine(r.Context(), med)
	h.writeMutation(w, http.StatusCreated, med, err)
}

// BatchCreateMedicines adds several medicines with a single save.
func (h *Handler) BatchCreateMedicines(w http.ResponseWriter, r *http.Request) {
	var meds []pharmacy.Medicine
	if !decodeBody(w, r, &meds) {
		return
	}
	meds, err := h.Ledger.BatchAddMedicines(r.Context(), meds)
	h.writeMutation(w, http.StatusCreated, meds, err)
}

// UpdateMedicine merges the given fields into a medicine.
func (h *Handler) UpdateMedicine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch pharmacy.MedicinePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	err := h.Ledger.UpdateMedicine(r.Context(), id, patch)
	med, _ := h.Ledger.Medicine(id)
	h.writeMutation(w, http.StatusOK, med, err)
}

// DeleteMedicine removes a medicine.
func (h *Handler) DeleteMedicine(w http.ResponseWriter, r *http.Request) {
	err := h.Ledger.DeleteMedicine(r.Context(), chi.URLParam(r, "id"))
	h.writeMutation(w, http.StatusOK, nil, err)
}

// =============================================================================
// PATIENT HANDLERS
// =============================================================================

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Patients())
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Ledger.Patient(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Patient not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var p pharmacy.Patient
	if !decodeBody(w, r, &p) {
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	p, err := h.Ledger.AddPatient(r.Context(), p)
	h.writeMutation(w, http.StatusCreated, p, err)
}

// =============================================================================
// SALES & CREDIT HANDLERS
// =============================================================================

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Transactions())
}

// RecordSale records a sale, moves stock and opens credit if needed.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var tx pharmacy.Transaction
	if !decodeBody(w, r, &tx) {
		return
	}
	if len(tx.Medicines) == 0 {
		writeError(w, http.StatusBadRequest, "sale has no medicines", nil)
		return
	}
	for _, item := range tx.Medicines {
		if item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid quantity for %s", item.MedicineID), nil)
			return
		}
	}
	if tx.Date == "" {
		tx.Date = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := h.Ledger.RecordSale(r.Context(), tx)
	h.writeMutation(w, http.StatusCreated, SaleResponse{Transaction: res.Transaction, Credit: res.Credit}, err)
}

func (h *Handler) ListCredits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Credits())
}

// CreditSummary returns pending credit per patient, largest first.
func (h *Handler) CreditSummary(w http.ResponseWriter, r *http.Request) {
	summary := pharmacy.CreditSummary(h.Ledger.Credits())
	dtos := make([]PatientCreditDTO, len(summary))
	for i, s := range summary {
		dtos[i] = PatientCreditDTO{
			PatientID: s.PatientID,
			Pending:   s.Pending.Round(2).InexactFloat64(),
			Count:     s.Count,
		}
		if p, ok := h.Ledger.Patient(s.PatientID); ok {
			dtos[i].PatientName = p.Name
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpdateCredit(w http.ResponseWriter, r *http.Request) {
	var patch pharmacy.CreditPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.Status != nil && *patch.Status != pharmacy.CreditPending && *patch.Status != pharmacy.CreditPaid {
		writeError(w, http.StatusBadRequest, "status must be pending or paid", nil)
		return
	}
	err := h.Ledger.UpdateCredit(r.Context(), chi.URLParam(r, "id"), patch)
	h.writeMutation(w, http.StatusOK, nil, err)
}

// =============================================================================
// AGENCY HANDLERS
// =============================================================================

func (h *Handler) ListAgencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Agencies())
}

func (h *Handler) CreateAgency(w http.ResponseWriter, r *http.Request) {
	var a pharmacy.Agency
	if !decodeBody(w, r, &a) {
		return
	}
	if a.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	a, err := h.Ledger.AddAgency(r.Context(), a)
	h.writeMutation(w, http.StatusCreated, a, err)
}

// DeleteAgency removes an agency together with all of its bills.
func (h *Handler) DeleteAgency(w http.ResponseWriter, r *http.Request) {
	err := h.Ledger.DeleteAgency(r.Context(), chi.URLParam(r, "id"))
	h.writeMutation(w, http.StatusOK, nil, err)
}

// StockFromBill turns supplier bill items into medicines of the agency.
// POST /api/agencies/{id}/stock
func (h *Handler) StockFromBill(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "id")
	var req BillStockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "no bill items", nil)
		return
	}
	if h.Ledger.Strict() {
		if _, ok := h.Ledger.Agency(agencyID); !ok {
			writeError(w, http.StatusNotFound, "Agency not found", nil)
			return
		}
	}

	meds, err := h.Ledger.BatchAddMedicines(r.Context(), pharmacy.MedicinesFromBillItems(agencyID, req.Items))
	h.writeMutation(w, http.StatusCreated, BillStockResponse{
		Medicines: meds,
		BillTotal: pharmacy.BillTotal(req.Items),
	}, err)
}

func (h *Handler) ListAgencyBills(w http.ResponseWriter, r *http.Request) {
	bills := h.Ledger.AgencyBills()
	if agencyID := r.URL.Query().Get("agency_id"); agencyID != "" {
		filtered := bills[:0]
		for _, b := range bills {
			if b.AgencyID == agencyID {
				filtered = append(filtered, b)
			}
		}
		bills = filtered
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *Handler) CreateAgencyBill(w http.ResponseWriter, r *http.Request) {
	var b pharmacy.AgencyBill
	if !decodeBody(w, r, &b) {
		return
	}
	if b.AgencyID == "" {
		writeError(w, http.StatusBadRequest, "agencyId is required", nil)
		return
	}
	b, err := h.Ledger.AddAgencyBill(r.Context(), b)
	h.writeMutation(w, http.StatusCreated, b, err)
}

func (h *Handler) UpdateAgencyBill(w http.ResponseWriter, r *http.Request) {
	var patch pharmacy.AgencyBillPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	err := h.Ledger.UpdateAgencyBill(r.Context(), chi.URLParam(r, "id"), patch)
	h.writeMutation(w, http.StatusOK, nil, err)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetProfitReport summarizes sales.
// GET /api/reports/profit?filter=custom&from=2026-01-01&to=2026-01-31
func (h *Handler) GetProfitReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to time.Time
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = time.ParseInLocation(dateLayout, v, time.Local); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from (use YYYY-MM-DD)", err)
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = time.ParseInLocation(dateLayout, v, time.Local); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to (use YYYY-MM-DD)", err)
			return
		}
	}

	summary, err := h.Ledger.ProfitReport(pharmacy.ProfitFilter(q.Get("filter")), from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report window", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfitReportDTO(summary))
}

// =============================================================================
// VAULT HANDLERS
// =============================================================================

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSyncDTO(h.Ledger.SyncStatus()))
}

// SyncNow forces a save. Unlike other writes, a failed save is an error here.
func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Ledger.Sync(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Sync failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSyncDTO(h.Ledger.SyncStatus()))
}

// Backup streams the whole ledger as a dated JSON attachment.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	snap := h.Ledger.Export()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", pharmacy.BackupFilename(time.Now())))
	w.WriteHeader(http.StatusOK)
	if err := pharmacy.WriteSnapshot(w, snap); err != nil {
		h.log.Error("backup write failed", "error", err)
	}
}

// Restore replaces collections from an uploaded snapshot.
// POST /api/vault/restore?confirm=true
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read backup", err)
		return
	}
	confirmed := r.URL.Query().Get("confirm") == "true"

	report, err := h.Ledger.Import(r.Context(), data, confirmed)
	if err == nil || pharmacy.IsWarning(err) {
		h.setScenario("")
	}
	h.writeMutation(w, http.StatusOK, report, err)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeMutation maps a ledger error to a response. Persistence warnings
// still return success.
func (h *Handler) writeMutation(w http.ResponseWriter, status int, data any, err error) {
	switch {
	case err == nil:
		writeJSON(w, status, MutationResponse{Data: data})
	case pharmacy.IsWarning(err):
		h.log.Warn("change not saved", "error", err)
		writeJSON(w, status, MutationResponse{Data: data, Warning: err.Error()})
	case pharmacy.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case errors.Is(err, pharmacy.ErrDuplicateID):
		writeError(w, http.StatusConflict, "Duplicate id", err)
	case pharmacy.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Operation failed", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
