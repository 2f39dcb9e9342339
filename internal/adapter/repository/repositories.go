package repository

import (
	"cloud.google.com/go/firestore"
	"gorm.io/gorm"

	"marketplace/internal/domain/repository"
)

// Repositories groups one adapter per aggregate, all backed by the same store.
type Repositories struct {
	Users      repository.UserRepository
	Categories repository.CategoryRepository
	Products   repository.ProductRepository
	Carts      repository.CartRepository
	Orders     repository.OrderRepository
	Reviews    repository.ReviewRepository
}

func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:      NewGormUserRepository(db),
		Categories: NewGormCategoryRepository(db),
		Products:   NewGormProductRepository(db),
		Carts:      NewGormCartRepository(db),
		Orders:     NewGormOrderRepository(db),
		Reviews:    NewGormReviewRepository(db),
	}
}

func NewFirestoreRepositories(client *firestore.Client) *Repositories {
	return &Repositories{
		Users:      NewFirestoreUserRepository(client),
		Categories: NewFirestoreCategoryRepository(client),
		Products:   NewFirestoreProductRepository(client),
		Carts:      NewFirestoreCartRepository(client),
		Orders:     NewFirestoreOrderRepository(client),
		Reviews:    NewFirestoreReviewRepository(client),
	}
}
