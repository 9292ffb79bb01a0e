package pharmacy

import "github.com/shopspring/decimal"

// MedicinesFromBillItems converts supplier bill lines into stock.
//
// Bill lines are counted in packages with per-package prices; medicines
// are counted in single units. Stock becomes quantity * unitsPerPackage and
// both prices are divided down to one unit, rounded to paise. A missing or
// non-positive unitsPerPackage counts as 1.
func MedicinesFromBillItems(agencyID string, items []BillItem) []Medicine {
	meds := make([]Medicine, 0, len(items))
	for _, item := range items {
		units := item.UnitsPerPackage
		if units <= 0 {
			units = 1
		}
		meds = append(meds, Medicine{
			ID:              NewID(),
			Name:            item.Name,
			Category:        item.Category,
			CostPrice:       perUnit(item.CostPrice, units),
			MRP:             perUnit(item.MRP, units),
			Stock:           item.Quantity * units,
			ExpiryDate:      item.ExpiryDate,
			AgencyID:        agencyID,
			UnitsPerPackage: units,
		})
	}
	return meds
}

func perUnit(packagePrice float64, units int) float64 {
	return decimal.NewFromFloat(packagePrice).
		Div(decimal.NewFromInt(int64(units))).
		Round(2).
		InexactFloat64()
}

// BillTotal is the package cost of all items, as a supplier would invoice it.
func BillTotal(items []BillItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.CostPrice).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}
