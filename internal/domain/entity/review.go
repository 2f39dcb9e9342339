package entity

import (
	"time"
)

// Review is append-only.
type Review struct {
	ID        string    `json:"id" firestore:"id" gorm:"primaryKey;size:36"`
	ProductID string    `json:"product_id" firestore:"productId" gorm:"index;size:36;not null"`
	UserID    string    `json:"user_id" firestore:"userId" gorm:"index;size:36;not null"`
	Rating    int       `json:"rating" firestore:"rating" gorm:"not null"`
	Comment   string    `json:"comment,omitempty" firestore:"comment,omitempty" gorm:"size:1000"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt" gorm:"index"`
}

// ReviewSummary is the aggregate written back onto the product.
type ReviewSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int     `json:"total_count"`
}
