/*
analytics.go - Read-only reports over the ledger

REPORTS:
  ProfitReport:  revenue, cost and profit of sales in a date window
  CreditSummary: pending credit owed per patient

PRECISION:
  Stored amounts are float64. Sums are accumulated in decimal.Decimal so
  that adding many small rupee amounts does not drift.

DATE WINDOWS (half-open, in the location of "now"):
  today:     [start of today, start of tomorrow)
  yesterday: [start of yesterday, start of today)
  month:     [first of this month, first of next month)
  custom:    [start of from, start of the day after to)
*/
package pharmacy

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type ProfitFilter string

const (
	FilterToday     ProfitFilter = "today"
	FilterYesterday ProfitFilter = "yesterday"
	FilterMonth     ProfitFilter = "month"
	FilterCustom    ProfitFilter = "custom"
)

// ProfitSummary aggregates sales in a window.
type ProfitSummary struct {
	Filter    ProfitFilter
	From      time.Time // inclusive
	To        time.Time // exclusive
	Sales     int
	Units     int
	Revenue   decimal.Decimal
	Cost      decimal.Decimal
	Profit    decimal.Decimal
	Collected decimal.Decimal
	Credit    decimal.Decimal
}

// Window returns the [from, to) range a filter selects.
func Window(filter ProfitFilter, from, to, now time.Time) (time.Time, time.Time, error) {
	today := startOfDay(now)
	switch filter {
	case FilterToday, "":
		return today, today.AddDate(0, 0, 1), nil
	case FilterYesterday:
		return today.AddDate(0, 0, -1), today, nil
	case FilterMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0), nil
	case FilterCustom:
		if from.IsZero() || to.IsZero() {
			return time.Time{}, time.Time{}, fmt.Errorf("custom filter needs from and to")
		}
		start := startOfDay(from.In(now.Location()))
		end := startOfDay(to.In(now.Location())).AddDate(0, 0, 1)
		if !start.Before(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("custom window ends before it starts")
		}
		return start, end, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown filter %q", filter)
}

// ProfitReport summarizes txs whose date falls in the filter's window.
// Transactions with an unparseable date are skipped.
func ProfitReport(txs []Transaction, filter ProfitFilter, from, to, now time.Time) (ProfitSummary, error) {
	start, end, err := Window(filter, from, to, now)
	if err != nil {
		return ProfitSummary{}, err
	}
	if filter == "" {
		filter = FilterToday
	}

	sum := ProfitSummary{
		Filter:    filter,
		From:      start,
		To:        end,
		Revenue:   decimal.Zero,
		Cost:      decimal.Zero,
		Profit:    decimal.Zero,
		Collected: decimal.Zero,
		Credit:    decimal.Zero,
	}
	for _, tx := range txs {
		at, ok := ParseDate(tx.Date, now.Location())
		if !ok || at.Before(start) || !at.Before(end) {
			continue
		}
		sum.Sales++
		for _, item := range tx.Medicines {
			sum.Units += item.Quantity
		}
		sum.Revenue = sum.Revenue.Add(decimal.NewFromFloat(tx.TotalAmount))
		sum.Cost = sum.Cost.Add(decimal.NewFromFloat(tx.TotalCost))
		sum.Profit = sum.Profit.Add(decimal.NewFromFloat(tx.Profit))
		sum.Collected = sum.Collected.Add(decimal.NewFromFloat(tx.PaidAmount))
		sum.Credit = sum.Credit.Add(decimal.NewFromFloat(tx.CreditAmount))
	}
	return sum, nil
}

// ProfitReport runs the report over the ledger's sales at the ledger's clock.
func (l *Ledger) ProfitReport(filter ProfitFilter, from, to time.Time) (ProfitSummary, error) {
	return ProfitReport(l.Transactions(), filter, from, to, l.now())
}

// PatientCredit is the pending credit owed by one patient.
type PatientCredit struct {
	PatientID string
	Pending   decimal.Decimal
	Count     int
}

// CreditSummary totals pending credits per patient, largest balance first.
func CreditSummary(credits []Credit) []PatientCredit {
	byPatient := make(map[string]*PatientCredit)
	for _, c := range credits {
		if c.Status != CreditPending {
			continue
		}
		pc, ok := byPatient[c.PatientID]
		if !ok {
			pc = &PatientCredit{PatientID: c.PatientID, Pending: decimal.Zero}
			byPatient[c.PatientID] = pc
		}
		pc.Pending = pc.Pending.Add(decimal.NewFromFloat(c.Amount))
		pc.Count++
	}

	out := make([]PatientCredit, 0, len(byPatient))
	for _, pc := range byPatient {
		out = append(out, *pc)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Pending.Cmp(out[j].Pending); c != 0 {
			return c > 0
		}
		return out[i].PatientID < out[j].PatientID
	})
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate reads the date formats sales are recorded with. Dates without
// a zone are taken in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
