package entity

import "time"

// CartItem stages one product for a user. (UserID, ProductID) is unique.
type CartItem struct {
	ID        string    `json:"id" firestore:"id" gorm:"primaryKey;size:80"`
	UserID    string    `json:"user_id" firestore:"userId" gorm:"uniqueIndex:idx_cart_user_product;size:36;not null"`
	ProductID string    `json:"product_id" firestore:"productId" gorm:"uniqueIndex:idx_cart_user_product;size:36;not null"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// CartLine is a cart row joined with the product as it is now.
type CartLine struct {
	CartItem
	Product *Product `json:"product"`
}

// CartItemID is deterministic so a second add for the same pair addresses the same row.
func CartItemID(userID, productID string) string {
	return userID + "_" + productID
}
