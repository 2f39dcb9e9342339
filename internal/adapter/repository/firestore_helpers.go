package repository

import (
	"net/url"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketplace/internal/domain/entity"
	"marketplace/pkg/errors"
)

const (
	usersCollection      = "users"
	uniqueKeysCollection = "unique_keys"
	categoriesCollection = "categories"
	productsCollection   = "products"
	cartCollection       = "cart_items"
	ordersCollection     = "orders"
	orderItemsCollection = "order_items"
	reviewsCollection    = "reviews"
)

func firestoreError(resource, action string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return errors.NotFound(resource, err)
	case codes.AlreadyExists:
		return errors.Conflict(resource + " already exists")
	}
	return errors.Internal(action, err)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// uniqueKeyID names the reservation document that makes a field value unique.
func uniqueKeyID(field, value string) string {
	return field + ":" + url.PathEscape(value)
}

func sortOrdersNewestFirst(orders []*entity.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
