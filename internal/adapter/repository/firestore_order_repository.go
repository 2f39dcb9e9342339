package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type firestoreOrderRepository struct {
	client *firestore.Client
}

func NewFirestoreOrderRepository(client *firestore.Client) repository.OrderRepository {
	return &firestoreOrderRepository{
		client: client,
	}
}

func (r *firestoreOrderRepository) orders() *firestore.CollectionRef {
	return r.client.Collection(ordersCollection)
}

func (r *firestoreOrderRepository) items() *firestore.CollectionRef {
	return r.client.Collection(orderItemsCollection)
}

// idempotentOrderID maps (user, key) onto one document so a replayed checkout collides.
func idempotentOrderID(userID, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+":"+key)).String()
}

func (r *firestoreOrderRepository) CreateWithItems(ctx context.Context, order *entity.Order, items []entity.OrderItem) error {
	if order.IdempotencyKey != nil {
		order.ID = idempotentOrderID(order.UserID, *order.IdempotencyKey)
	} else if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.SalesCounted = order.Status == entity.OrderStatusCompleted
	order.Items = nil

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		items[i].OrderID = order.ID
	}

	orderRef := r.orders().Doc(order.ID)
	increments := entity.SalesIncrements(items)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(orderRef); err == nil {
			return errors.Conflict("Order already exists")
		} else if !isNotFound(err) {
			return err
		}

		if order.SalesCounted {
			for productID := range increments {
				if _, err := tx.Get(r.client.Collection(productsCollection).Doc(productID)); err != nil {
					if isNotFound(err) {
						return errors.NotFound("Product", err)
					}
					return err
				}
			}
		}

		if err := tx.Create(orderRef, order); err != nil {
			return err
		}
		for i := range items {
			if err := tx.Create(r.items().Doc(items[i].ID), &items[i]); err != nil {
				return err
			}
		}
		if order.SalesCounted {
			return applySalesIncrements(tx, r.client, increments)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, errors.CodeConflict) || status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Order already exists")
		}
		return errors.OrderCreationFailed(err)
	}

	order.Items = items
	return nil
}

func applySalesIncrements(tx *firestore.Transaction, client *firestore.Client, increments map[string]int) error {
	for productID, n := range increments {
		err := tx.Update(client.Collection(productsCollection).Doc(productID), []firestore.Update{
			{Path: "salesCount", Value: firestore.Increment(n)},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *firestoreOrderRepository) UpdateStatus(ctx context.Context, id string, update entity.OrderStatusUpdate) (*entity.Order, error) {
	orderRef := r.orders().Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(orderRef)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Order", err)
			}
			return err
		}

		var order entity.Order
		if err := snap.DataTo(&order); err != nil {
			return err
		}

		entering := update.Status != nil && *update.Status == entity.OrderStatusCompleted && !order.SalesCounted

		var increments map[string]int
		if entering {
			docs, err := tx.Documents(r.items().Where("orderId", "==", id)).GetAll()
			if err != nil {
				return err
			}
			items := make([]entity.OrderItem, 0, len(docs))
			for _, doc := range docs {
				var item entity.OrderItem
				if err := doc.DataTo(&item); err != nil {
					return err
				}
				items = append(items, item)
			}
			increments = entity.SalesIncrements(items)
		}

		update.Apply(&order)
		order.UpdatedAt = time.Now()
		if entering {
			order.SalesCounted = true
		}

		if err := tx.Set(orderRef, &order); err != nil {
			return err
		}
		if entering {
			return applySalesIncrements(tx, r.client, increments)
		}
		return nil
	})

	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.TransactionFailed("Failed to update order status", err)
	}

	return r.GetByID(ctx, id)
}

func (r *firestoreOrderRepository) loadItems(ctx context.Context, order *entity.Order) error {
	iter := r.items().Where("orderId", "==", order.ID).Documents(ctx)
	defer iter.Stop()

	order.Items = []entity.OrderItem{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}

		var item entity.OrderItem
		if err := doc.DataTo(&item); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
}

func (r *firestoreOrderRepository) parse(ctx context.Context, doc *firestore.DocumentSnapshot) (*entity.Order, error) {
	var order entity.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, errors.Internal("Failed to parse order data", err)
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return nil, errors.Internal("Failed to load order items", err)
	}
	return &order, nil
}

func (r *firestoreOrderRepository) collect(ctx context.Context, iter *firestore.DocumentIterator) ([]*entity.Order, error) {
	defer iter.Stop()

	orders := []*entity.Order{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list orders", err)
		}

		order, err := r.parse(ctx, doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *firestoreOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	doc, err := r.orders().Doc(id).Get(ctx)
	if err != nil {
		return nil, firestoreError("Order", "Failed to get order", err)
	}
	return r.parse(ctx, doc)
}

func (r *firestoreOrderRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error) {
	order, err := r.GetByID(ctx, idempotentOrderID(userID, key))
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, errors.NotFound("Order", nil)
	}
	return order, nil
}

func (r *firestoreOrderRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Order, error) {
	iter := r.orders().Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	return r.collect(ctx, iter)
}

func (r *firestoreOrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Order, error) {
	docs, err := r.items().Where("sellerId", "==", sellerID).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list seller items", err)
	}

	seen := make(map[string]bool)
	refs := []*firestore.DocumentRef{}
	for _, doc := range docs {
		var item entity.OrderItem
		if err := doc.DataTo(&item); err != nil {
			return nil, errors.Internal("Failed to parse order item", err)
		}
		if seen[item.OrderID] {
			continue
		}
		seen[item.OrderID] = true
		refs = append(refs, r.orders().Doc(item.OrderID))
	}

	orders := []*entity.Order{}
	if len(refs) == 0 {
		return orders, nil
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, errors.Internal("Failed to get orders", err)
	}
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		order, err := r.parse(ctx, snap)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (r *firestoreOrderRepository) List(ctx context.Context, limit, offset int) ([]*entity.Order, int64, error) {
	countDocs, err := r.orders().Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count orders", err)
	}

	query := r.orders().OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	orders, err := r.collect(ctx, query.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}
	return orders, int64(len(countDocs)), nil
}

func (r *firestoreOrderRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	docs, err := r.orders().Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count orders", err)
	}
	return int64(len(docs)), nil
}
