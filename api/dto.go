/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Entities travel as the pharmacy package's own JSON (camelCase, the
  same shape as the backup document) so that a record read from the API
  can be posted back unchanged. This file holds the wrappers and report
  shapes that have no entity of their own.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers around results

SEE ALSO:
  - handlers.go: Uses these types
  - pharmacy/types.go: Entity JSON
*/
package api

import (
	"time"

	"github.com/warp/pharmacy-ledger/pharmacy"
)

// MutationResponse wraps the result of a write. Warning is set when the
// change was applied in memory but could not be saved to disk.
type MutationResponse struct {
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// SaleResponse is the result of recording a sale.
type SaleResponse struct {
	Transaction pharmacy.Transaction `json:"transaction"`
	Credit      *pharmacy.Credit     `json:"credit,omitempty"`
}

// BillStockRequest converts supplier bill lines into medicines.
type BillStockRequest struct {
	Items []pharmacy.BillItem `json:"items"`
}

// BillStockResponse lists the medicines created from a bill.
type BillStockResponse struct {
	Medicines []pharmacy.Medicine `json:"medicines"`
	BillTotal float64             `json:"billTotal"`
}

// ProfitReportDTO is a profit summary over a date window.
type ProfitReportDTO struct {
	Filter    string  `json:"filter"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Sales     int     `json:"sales"`
	Units     int     `json:"units"`
	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
	Profit    float64 `json:"profit"`
	Collected float64 `json:"collected"`
	Credit    float64 `json:"credit"`
}

func toProfitReportDTO(s pharmacy.ProfitSummary) ProfitReportDTO {
	return ProfitReportDTO{
		Filter:    string(s.Filter),
		From:      s.From.Format(dateLayout),
		To:        s.To.Format(dateLayout),
		Sales:     s.Sales,
		Units:     s.Units,
		Revenue:   s.Revenue.Round(2).InexactFloat64(),
		Cost:      s.Cost.Round(2).InexactFloat64(),
		Profit:    s.Profit.Round(2).InexactFloat64(),
		Collected: s.Collected.Round(2).InexactFloat64(),
		Credit:    s.Credit.Round(2).InexactFloat64(),
	}
}

// PatientCreditDTO is the pending credit of one patient.
type PatientCreditDTO struct {
	PatientID   string  `json:"patientId"`
	PatientName string  `json:"patientName,omitempty"`
	Pending     float64 `json:"pending"`
	Count       int     `json:"count"`
}

// SyncDTO reports the durable state of the ledger.
type SyncDTO struct {
	Dirty     bool   `json:"dirty"`
	LastSaved string `json:"lastSaved,omitempty"`
}

func toSyncDTO(dirty bool, lastSaved time.Time) SyncDTO {
	dto := SyncDTO{Dirty: dirty}
	if !lastSaved.IsZero() {
		dto.LastSaved = lastSaved.UTC().Format(time.RFC3339)
	}
	return dto
}

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
