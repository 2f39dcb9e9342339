package service

import (
	"github.com/shopspring/decimal"

	"marketplace/internal/domain/entity"
)

// OrderTotal sums item prices in decimal so 0.1+0.2 style drift never reaches the stored total.
func OrderTotal(items []entity.OrderItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Price))
	}
	return total.Round(2).InexactFloat64()
}

// IsCentAmount reports whether v has at most two decimal places, which keeps
// an order total equal to the sum of its item prices.
func IsCentAmount(v float64) bool {
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(2))
}

// AverageRating is the mean rating rounded half away from zero to 2 decimals. Zero reviews rate 0.
func AverageRating(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromInt(sum).
		DivRound(decimal.NewFromInt(count), 8).
		Round(2).
		InexactFloat64()
}

// Summarize builds the aggregate for a full set of ratings.
func Summarize(ratings []int) entity.ReviewSummary {
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return entity.ReviewSummary{
		AverageRating: AverageRating(sum, int64(len(ratings))),
		TotalCount:    len(ratings),
	}
}
