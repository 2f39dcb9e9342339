package entity

import (
	"time"
)

const (
	ProductTypeDigital  = "digital"
	ProductTypePhysical = "physical"

	ProductStatusPending  = "pending"
	ProductStatusApproved = "approved"
	ProductStatusRejected = "rejected"
)

type Dimensions struct {
	Length float64 `json:"length" firestore:"length"`
	Width  float64 `json:"width" firestore:"width"`
	Height float64 `json:"height" firestore:"height"`
}

type Product struct {
	ID          string      `json:"id" firestore:"id" gorm:"primaryKey;size:36"`
	Title       string      `json:"title" firestore:"title" gorm:"size:200;not null"`
	Description string      `json:"description" firestore:"description" gorm:"type:text"`
	Price       float64     `json:"price" firestore:"price" gorm:"not null"`
	CategoryID  string      `json:"category_id" firestore:"categoryId" gorm:"index;size:36"`
	SellerID    string      `json:"seller_id" firestore:"sellerId" gorm:"index;size:36;not null"`
	Images      []string    `json:"images" firestore:"images" gorm:"serializer:json"`
	Files       []string    `json:"files" firestore:"files" gorm:"serializer:json"`
	Type        string      `json:"type" firestore:"type" gorm:"size:10;index;not null"`
	Weight      float64     `json:"weight,omitempty" firestore:"weight,omitempty"`
	Dimensions  *Dimensions `json:"dimensions,omitempty" firestore:"dimensions,omitempty" gorm:"serializer:json"`
	Status      string      `json:"status" firestore:"status" gorm:"size:10;index;not null"`

	// Derived. Only the order and review aggregates write these.
	Rating      float64 `json:"rating" firestore:"rating"`
	ReviewCount int     `json:"review_count" firestore:"reviewCount"`
	SalesCount  int     `json:"sales_count" firestore:"salesCount"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (p *Product) IsPhysical() bool {
	return p.Type == ProductTypePhysical
}

func (p *Product) IsApproved() bool {
	return p.Status == ProductStatusApproved
}
