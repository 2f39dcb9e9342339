package usecase

import (
	"github.com/shopspring/decimal"
)

func roundTo2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Page describes an offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}
