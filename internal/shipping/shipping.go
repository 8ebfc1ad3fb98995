// Package shipping computes paper-order delivery costs from a country tier
// table. Costs are euro cents, keyed by ISO 3166-1 alpha-2 country codes.
package shipping

import "strings"

var countryCosts = map[string]int64{
	// Middle East
	"SA": 1500,
	"AE": 2000,
	"KW": 2000,
	"BH": 2000,
	"QA": 2000,
	"OM": 2000,
	"JO": 2500,
	"LB": 2500,
	"EG": 2500,
	"IQ": 3000,
	"YE": 3000,
	"SY": 3000,
	"PS": 3000,

	// North Africa
	"MA": 3000,
	"DZ": 3000,
	"TN": 3000,
	"LY": 3000,
	"SD": 3000,

	// Europe
	"FR": 3500,
	"DE": 3500,
	"GB": 3500,
	"ES": 3500,
	"IT": 3500,
	"NL": 3500,
	"BE": 3500,
	"CH": 4000,
	"AT": 3500,
	"SE": 4000,
	"TR": 3000,

	// Americas
	"US": 4500,
	"CA": 4500,

	// Asia
	"PK": 3500,
	"IN": 3500,
	"MY": 4000,
	"ID": 4000,
}

const defaultCostCents = 5000

type Calculator struct {
	freeThresholdCents int64
}

func NewCalculator(freeThresholdCents int64) Calculator {
	return Calculator{freeThresholdCents: freeThresholdCents}
}

// CostCents returns the shipping cost for a destination country given the
// order total before shipping. Orders at or above the free-shipping threshold
// ship for free; unknown countries get the default tier.
func (c Calculator) CostCents(countryCode string, orderTotalCents int64) int64 {
	if c.freeThresholdCents > 0 && orderTotalCents >= c.freeThresholdCents {
		return 0
	}

	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if code == "" {
		return defaultCostCents
	}

	if cost, ok := countryCosts[code]; ok {
		return cost
	}
	return defaultCostCents
}

func (c Calculator) FreeThresholdCents() int64 {
	return c.freeThresholdCents
}

// QualifiesForFreeShipping reports whether the given order total ships free.
func (c Calculator) QualifiesForFreeShipping(orderTotalCents int64) bool {
	return c.freeThresholdCents > 0 && orderTotalCents >= c.freeThresholdCents
}
