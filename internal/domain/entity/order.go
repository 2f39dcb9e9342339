package entity

import (
	"time"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"

	FulfillmentPending    = "pending"
	FulfillmentProcessing = "processing"
	FulfillmentShipped    = "shipped"
	FulfillmentDelivered  = "delivered"
)

type ShippingAddress struct {
	FullName   string `json:"full_name" firestore:"fullName"`
	Address    string `json:"address" firestore:"address"`
	City       string `json:"city" firestore:"city"`
	State      string `json:"state" firestore:"state"`
	PostalCode string `json:"postal_code" firestore:"postalCode"`
	Country    string `json:"country" firestore:"country"`
	Phone      string `json:"phone,omitempty" firestore:"phone,omitempty"`
}

type Order struct {
	ID                   string           `json:"id" firestore:"id" gorm:"primaryKey;size:36"`
	UserID               string           `json:"user_id" firestore:"userId" gorm:"index;size:36;not null;uniqueIndex:idx_order_idempotency"`
	Total                float64          `json:"total" firestore:"total" gorm:"not null"`
	Status               string           `json:"status" firestore:"status" gorm:"size:10;index;not null"`
	PaymentStatus        string           `json:"payment_status" firestore:"paymentStatus" gorm:"size:10;not null"`
	FulfillmentStatus    string           `json:"fulfillment_status" firestore:"fulfillmentStatus" gorm:"size:10;not null"`
	PaymentMethod        string           `json:"payment_method,omitempty" firestore:"paymentMethod,omitempty" gorm:"size:50"`
	ShippingAddress      *ShippingAddress `json:"shipping_address,omitempty" firestore:"shippingAddress,omitempty" gorm:"serializer:json"`
	DeliveryInstructions string           `json:"delivery_instructions,omitempty" firestore:"deliveryInstructions,omitempty" gorm:"size:500"`
	TrackingNumber       string           `json:"tracking_number,omitempty" firestore:"trackingNumber,omitempty" gorm:"size:100"`
	ShippingCost         float64          `json:"shipping_cost" firestore:"shippingCost"`
	IdempotencyKey       *string          `json:"-" firestore:"idempotencyKey,omitempty" gorm:"size:100;uniqueIndex:idx_order_idempotency"`
	// SalesCounted flips once, the first time the order reaches completed.
	SalesCounted bool `json:"-" firestore:"salesCounted" gorm:"not null;default:false"`

	Items []OrderItem `json:"items,omitempty" firestore:"-" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// OrderItem is immutable once written. Price is the product price at purchase time.
type OrderItem struct {
	ID        string  `json:"id" firestore:"id" gorm:"primaryKey;size:36"`
	OrderID   string  `json:"order_id" firestore:"orderId" gorm:"index;size:36;not null"`
	ProductID string  `json:"product_id" firestore:"productId" gorm:"index;size:36;not null"`
	SellerID  string  `json:"seller_id" firestore:"sellerId" gorm:"index;size:36"`
	Title     string  `json:"title" firestore:"title" gorm:"size:200"`
	Price     float64 `json:"price" firestore:"price" gorm:"not null"`
}

// OrderStatusUpdate is a partial update; nil fields are left untouched.
type OrderStatusUpdate struct {
	Status            *string
	PaymentStatus     *string
	FulfillmentStatus *string
	TrackingNumber    *string
	ShippingCost      *float64
	PaymentMethod     *string
}

func (u OrderStatusUpdate) IsEmpty() bool {
	return u.Status == nil && u.PaymentStatus == nil && u.FulfillmentStatus == nil &&
		u.TrackingNumber == nil && u.ShippingCost == nil && u.PaymentMethod == nil
}

// Apply copies the set fields onto o.
func (u OrderStatusUpdate) Apply(o *Order) {
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.PaymentStatus != nil {
		o.PaymentStatus = *u.PaymentStatus
	}
	if u.FulfillmentStatus != nil {
		o.FulfillmentStatus = *u.FulfillmentStatus
	}
	if u.TrackingNumber != nil {
		o.TrackingNumber = *u.TrackingNumber
	}
	if u.ShippingCost != nil {
		o.ShippingCost = *u.ShippingCost
	}
	if u.PaymentMethod != nil {
		o.PaymentMethod = *u.PaymentMethod
	}
}

// SalesIncrements counts order items per product.
func SalesIncrements(items []OrderItem) map[string]int {
	counts := make(map[string]int, len(items))
	for _, item := range items {
		counts[item.ProductID]++
	}
	return counts
}

func ValidOrderStatus(s string) bool {
	return s == OrderStatusPending || s == OrderStatusCompleted || s == OrderStatusCancelled
}

func ValidPaymentStatus(s string) bool {
	return s == PaymentStatusPending || s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func ValidFulfillmentStatus(s string) bool {
	return s == FulfillmentPending || s == FulfillmentProcessing || s == FulfillmentShipped || s == FulfillmentDelivered
}
