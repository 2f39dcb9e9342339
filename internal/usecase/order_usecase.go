package usecase

import (
	"context"
	"fmt"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/internal/domain/service"
	"marketplace/internal/infrastructure/websocket"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const (
	PaymentEventCompleted = "checkout.completed"
	PaymentEventExpired   = "checkout.expired"
)

type OrderUseCase struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	notifier    OrderNotifier
}

func NewOrderUseCase(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	notifier OrderNotifier,
) *OrderUseCase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &OrderUseCase{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		notifier:    notifier,
	}
}

type CheckoutInput struct {
	ShippingAddress      *entity.ShippingAddress
	DeliveryInstructions string
	PaymentMethod        string
	IdempotencyKey       string
}

// Checkout turns the user's cart into a pending order. replayed is true when
// the idempotency key matched an existing order, which is returned unchanged.
func (uc *OrderUseCase) Checkout(ctx context.Context, userID string, input CheckoutInput) (order *entity.Order, replayed bool, err error) {
	if input.IdempotencyKey != "" {
		existing, err := uc.orderRepo.GetByIdempotencyKey(ctx, userID, input.IdempotencyKey)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, errors.CodeNotFound) {
			return nil, false, err
		}
	}

	rows, err := uc.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, errors.EmptyCart()
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	products, err := uc.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, false, err
	}

	items := make([]entity.OrderItem, 0, len(rows))
	needsShipping := false
	for _, row := range rows {
		product, ok := products[row.ProductID]
		if !ok || !product.IsApproved() {
			return nil, false, errors.BadRequest(fmt.Sprintf("Product %s is no longer available", row.ProductID), nil)
		}
		if product.IsPhysical() {
			needsShipping = true
		}
		items = append(items, entity.OrderItem{
			ProductID: product.ID,
			SellerID:  product.SellerID,
			Title:     product.Title,
			Price:     product.Price,
		})
	}

	if needsShipping && input.ShippingAddress == nil {
		return nil, false, errors.BadRequest("Shipping address is required for physical products", nil)
	}

	order = &entity.Order{
		UserID:               userID,
		Total:                service.OrderTotal(items),
		Status:               entity.OrderStatusPending,
		PaymentStatus:        entity.PaymentStatusPending,
		FulfillmentStatus:    entity.FulfillmentPending,
		PaymentMethod:        input.PaymentMethod,
		ShippingAddress:      input.ShippingAddress,
		DeliveryInstructions: input.DeliveryInstructions,
	}
	if input.IdempotencyKey != "" {
		key := input.IdempotencyKey
		order.IdempotencyKey = &key
	}

	if err := uc.orderRepo.CreateWithItems(ctx, order, items); err != nil {
		if input.IdempotencyKey != "" && errors.Is(err, errors.CodeConflict) {
			existing, getErr := uc.orderRepo.GetByIdempotencyKey(ctx, userID, input.IdempotencyKey)
			if getErr == nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}

	// The order is committed; a failed cart clear must not undo it.
	if err := uc.cartRepo.Clear(ctx, userID); err != nil {
		logger.LogOrderError(order.ID, "clear_cart", err)
	}

	uc.notifier.Notify(order.UserID, websocket.EventOrderStatus, order)
	return order, false, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	return uc.orderRepo.GetByID(ctx, orderID)
}

// OwnerID resolves the buyer for ownership checks.
func (uc *OrderUseCase) OwnerID(ctx context.Context, orderID string) (string, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	return order.UserID, nil
}

func (uc *OrderUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Order, error) {
	return uc.orderRepo.ListByUser(ctx, userID)
}

func (uc *OrderUseCase) ListAll(ctx context.Context, page Page) ([]*entity.Order, int64, error) {
	return uc.orderRepo.List(ctx, page.Limit, page.Offset)
}

func validateStatusUpdate(update entity.OrderStatusUpdate) error {
	if update.IsEmpty() {
		return errors.BadRequest("At least one field must be provided", nil)
	}
	if update.Status != nil && !entity.ValidOrderStatus(*update.Status) {
		return errors.BadRequest("Invalid order status", nil)
	}
	if update.PaymentStatus != nil && !entity.ValidPaymentStatus(*update.PaymentStatus) {
		return errors.BadRequest("Invalid payment status", nil)
	}
	if update.FulfillmentStatus != nil && !entity.ValidFulfillmentStatus(*update.FulfillmentStatus) {
		return errors.BadRequest("Invalid fulfillment status", nil)
	}
	if update.ShippingCost != nil && *update.ShippingCost < 0 {
		return errors.BadRequest("Shipping cost cannot be negative", nil)
	}
	return nil
}

// UpdateStatus is safe to repeat: sales are counted only on the first move into completed.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, orderID string, update entity.OrderStatusUpdate) (*entity.Order, error) {
	if err := validateStatusUpdate(update); err != nil {
		return nil, err
	}

	order, err := uc.orderRepo.UpdateStatus(ctx, orderID, update)
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(order.UserID, websocket.EventOrderStatus, order)
	return order, nil
}

func sellerView(order *entity.Order, sellerID string) *entity.Order {
	view := *order
	view.Items = make([]entity.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.SellerID == sellerID {
			view.Items = append(view.Items, item)
		}
	}
	return &view
}

// SellerOrders lists orders containing the seller's products, showing only the seller's own items.
func (uc *OrderUseCase) SellerOrders(ctx context.Context, sellerID string) ([]*entity.Order, error) {
	orders, err := uc.orderRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	views := make([]*entity.Order, 0, len(orders))
	for _, order := range orders {
		views = append(views, sellerView(order, sellerID))
	}
	return views, nil
}

type FulfillmentInput struct {
	FulfillmentStatus *string
	TrackingNumber    *string
}

func (uc *OrderUseCase) UpdateFulfillment(ctx context.Context, actor *entity.User, orderID string, input FulfillmentInput) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		owns := false
		for _, item := range order.Items {
			if item.SellerID == actor.ID {
				owns = true
				break
			}
		}
		if !owns {
			return nil, errors.Forbidden("Order does not contain your products", nil)
		}
	}

	updated, err := uc.UpdateStatus(ctx, orderID, entity.OrderStatusUpdate{
		FulfillmentStatus: input.FulfillmentStatus,
		TrackingNumber:    input.TrackingNumber,
	})
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		return updated, nil
	}
	return sellerView(updated, actor.ID), nil
}

type PaymentEvent struct {
	Type          string `json:"type"`
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
}

// HandlePaymentEvent is the landing point for gateway webhooks. Replays of an
// already-settled order return it unchanged.
func (uc *OrderUseCase) HandlePaymentEvent(ctx context.Context, event PaymentEvent) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}

	switch event.Type {
	case PaymentEventCompleted:
		if order.PaymentStatus == entity.PaymentStatusCompleted {
			return order, nil
		}

		status := entity.OrderStatusCompleted
		payment := entity.PaymentStatusCompleted
		fulfillment := entity.FulfillmentProcessing
		update := entity.OrderStatusUpdate{
			Status:            &status,
			PaymentStatus:     &payment,
			FulfillmentStatus: &fulfillment,
		}
		if event.PaymentMethod != "" {
			update.PaymentMethod = &event.PaymentMethod
		}

		updated, err := uc.UpdateStatus(ctx, order.ID, update)
		if err != nil {
			return nil, err
		}
		if err := uc.cartRepo.Clear(ctx, order.UserID); err != nil {
			logger.LogOrderError(order.ID, "clear_cart", err)
		}
		return updated, nil

	case PaymentEventExpired:
		if order.Status != entity.OrderStatusPending {
			return order, nil
		}

		status := entity.OrderStatusCancelled
		payment := entity.PaymentStatusFailed
		return uc.UpdateStatus(ctx, order.ID, entity.OrderStatusUpdate{
			Status:        &status,
			PaymentStatus: &payment,
		})

	default:
		return nil, errors.BadRequest("Unsupported payment event: "+event.Type, nil)
	}
}
