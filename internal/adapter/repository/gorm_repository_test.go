package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain/entity"
	domainrepo "marketplace/internal/domain/repository"
	"marketplace/internal/infrastructure/database"
	"marketplace/pkg/errors"
)

func setupRepos(t *testing.T) *Repositories {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	return NewGormRepositories(db)
}

func seedUser(t *testing.T, repos *Repositories, username, code string) *entity.User {
	t.Helper()
	user := &entity.User{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test User",
		Role:         entity.RoleUser,
		ReferralCode: code,
	}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

func seedProduct(t *testing.T, repos *Repositories, sellerID string, price float64) *entity.Product {
	t.Helper()
	product := &entity.Product{
		Title:       "Pattern pack",
		Description: "A pack of knitting patterns",
		Price:       price,
		SellerID:    sellerID,
		Images:      []string{"https://cdn.example.com/a.png"},
		Files:       []string{"https://cdn.example.com/a.pdf"},
		Type:        entity.ProductTypeDigital,
		Status:      entity.ProductStatusApproved,
	}
	require.NoError(t, repos.Products.Create(context.Background(), product))
	return product
}

func strPtr(s string) *string { return &s }

func TestUserCreateIncrementsReferrer(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	alice := seedUser(t, repos, "alice", "ALICE001")
	bob := &entity.User{
		Username:     "bob",
		Email:        "bob@example.com",
		Role:         entity.RoleUser,
		ReferralCode: "BOB00001",
		ReferrerID:   alice.ID,
	}
	require.NoError(t, repos.Users.Create(ctx, bob))

	reloaded, err := repos.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.TotalReferrals)

	count, err := repos.Users.CountReferrals(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserCreateRejectsDuplicates(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	seedUser(t, repos, "alice", "ALICE001")

	err := repos.Users.Create(ctx, &entity.User{Username: "alice", Email: "other@example.com", ReferralCode: "OTHER001"})
	assert.True(t, errors.Is(err, errors.CodeConflict))

	err = repos.Users.Create(ctx, &entity.User{Username: "carol", Email: "carol@example.com", ReferralCode: "ALICE001"})
	assert.True(t, errors.Is(err, errors.CodeReferralCodeTaken))

	taken, err := repos.Users.ReferralCodeExists(ctx, "ALICE001")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUserCreateWithUnknownReferrerPersistsNothing(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	err := repos.Users.Create(ctx, &entity.User{
		Username:     "dave",
		Email:        "dave@example.com",
		ReferralCode: "DAVE0001",
		ReferrerID:   "missing",
	})
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = repos.Users.GetByUsername(ctx, "dave")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestCartAddIsIdempotent(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	first, created, err := repos.Carts.Add(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repos.Carts.Add(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	items, err := repos.Carts.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	removed, err := repos.Carts.Remove(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repos.Carts.Remove(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCartClear(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	_, _, _ = repos.Carts.Add(ctx, "u1", "p1")
	_, _, _ = repos.Carts.Add(ctx, "u1", "p2")
	_, _, _ = repos.Carts.Add(ctx, "u2", "p1")

	require.NoError(t, repos.Carts.Clear(ctx, "u1"))

	items, err := repos.Carts.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = repos.Carts.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func newOrder(userID, status string, products ...*entity.Product) (*entity.Order, []entity.OrderItem) {
	items := make([]entity.OrderItem, 0, len(products))
	total := 0.0
	for _, p := range products {
		items = append(items, entity.OrderItem{ProductID: p.ID, SellerID: p.SellerID, Title: p.Title, Price: p.Price})
		total += p.Price
	}
	return &entity.Order{
		UserID:            userID,
		Total:             total,
		Status:            status,
		PaymentStatus:     entity.PaymentStatusPending,
		FulfillmentStatus: entity.FulfillmentPending,
	}, items
}

func TestOrderCreateWithItems(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p1 := seedProduct(t, repos, "seller", 10.99)
	p2 := seedProduct(t, repos, "seller", 5)

	order, items := newOrder("buyer", entity.OrderStatusPending, p1, p2)
	require.NoError(t, repos.Orders.CreateWithItems(ctx, order, items))

	stored, err := repos.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, 15.99, stored.Total)

	product, err := repos.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, product.SalesCount)
}

func TestOrderCreatedCompletedCountsSalesOnce(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p1 := seedProduct(t, repos, "seller", 3)

	order, items := newOrder("buyer", entity.OrderStatusCompleted, p1)
	require.NoError(t, repos.Orders.CreateWithItems(ctx, order, items))

	_, err := repos.Orders.UpdateStatus(ctx, order.ID, entity.OrderStatusUpdate{Status: strPtr(entity.OrderStatusCompleted)})
	require.NoError(t, err)

	product, err := repos.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, product.SalesCount)
}

func TestOrderCreateRollsBackOnFailure(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p1 := seedProduct(t, repos, "seller", 3)
	ghost := &entity.Product{ID: "ghost", Price: 1}

	order, items := newOrder("buyer", entity.OrderStatusCompleted, p1, ghost)
	err := repos.Orders.CreateWithItems(ctx, order, items)
	assert.True(t, errors.Is(err, errors.CodeOrderCreationFailed))

	_, err = repos.Orders.GetByID(ctx, order.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	orders, err := repos.Orders.ListByUser(ctx, "buyer")
	require.NoError(t, err)
	assert.Empty(t, orders)

	product, err := repos.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, product.SalesCount)
}

func TestOrderIdempotencyKeyIsUniquePerUser(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p1 := seedProduct(t, repos, "seller", 3)

	first, items := newOrder("buyer", entity.OrderStatusPending, p1)
	first.IdempotencyKey = strPtr("key-1")
	require.NoError(t, repos.Orders.CreateWithItems(ctx, first, items))

	found, err := repos.Orders.GetByIdempotencyKey(ctx, "buyer", "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	second, items := newOrder("buyer", entity.OrderStatusPending, p1)
	second.IdempotencyKey = strPtr("key-1")
	err = repos.Orders.CreateWithItems(ctx, second, items)
	assert.True(t, errors.Is(err, errors.CodeConflict))

	// Orders without a key never collide.
	for i := 0; i < 2; i++ {
		o, its := newOrder("buyer", entity.OrderStatusPending, p1)
		require.NoError(t, repos.Orders.CreateWithItems(ctx, o, its))
	}
}

func TestUpdateStatusCountsSalesExactlyOnce(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p1 := seedProduct(t, repos, "seller", 3)
	p2 := seedProduct(t, repos, "seller", 4)

	order, items := newOrder("buyer", entity.OrderStatusPending, p1, p2)
	require.NoError(t, repos.Orders.CreateWithItems(ctx, order, items))

	completed := entity.OrderStatusUpdate{Status: strPtr(entity.OrderStatusCompleted)}
	updated, err := repos.Orders.UpdateStatus(ctx, order.ID, completed)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, updated.Status)

	_, err = repos.Orders.UpdateStatus(ctx, order.ID, completed)
	require.NoError(t, err)

	// Leaving and re-entering completed does not count again.
	_, err = repos.Orders.UpdateStatus(ctx, order.ID, entity.OrderStatusUpdate{Status: strPtr(entity.OrderStatusCancelled)})
	require.NoError(t, err)
	_, err = repos.Orders.UpdateStatus(ctx, order.ID, completed)
	require.NoError(t, err)

	for _, id := range []string{p1.ID, p2.ID} {
		product, err := repos.Products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, product.SalesCount)
	}
}

func TestUpdateStatusConcurrentCompletion(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p1 := seedProduct(t, repos, "seller", 3)

	order, items := newOrder("buyer", entity.OrderStatusPending, p1)
	require.NoError(t, repos.Orders.CreateWithItems(ctx, order, items))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Orders.UpdateStatus(ctx, order.ID, entity.OrderStatusUpdate{Status: strPtr(entity.OrderStatusCompleted)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	product, err := repos.Products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, product.SalesCount)
}

func TestUpdateStatusPartialFields(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p1 := seedProduct(t, repos, "seller", 3)

	order, items := newOrder("buyer", entity.OrderStatusPending, p1)
	require.NoError(t, repos.Orders.CreateWithItems(ctx, order, items))

	cost := 4.5
	updated, err := repos.Orders.UpdateStatus(ctx, order.ID, entity.OrderStatusUpdate{
		FulfillmentStatus: strPtr(entity.FulfillmentShipped),
		TrackingNumber:    strPtr("TRACK-1"),
		ShippingCost:      &cost,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, updated.Status)
	assert.Equal(t, entity.FulfillmentShipped, updated.FulfillmentStatus)
	assert.Equal(t, "TRACK-1", updated.TrackingNumber)
	assert.Equal(t, 4.5, updated.ShippingCost)
	assert.Len(t, updated.Items, 1)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	repos := setupRepos(t)

	_, err := repos.Orders.UpdateStatus(context.Background(), "missing", entity.OrderStatusUpdate{Status: strPtr(entity.OrderStatusCompleted)})
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestListBySeller(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	mine := seedProduct(t, repos, "seller-a", 3)
	theirs := seedProduct(t, repos, "seller-b", 4)

	o1, items := newOrder("buyer", entity.OrderStatusPending, mine, theirs)
	require.NoError(t, repos.Orders.CreateWithItems(ctx, o1, items))
	o2, items := newOrder("buyer", entity.OrderStatusPending, theirs)
	require.NoError(t, repos.Orders.CreateWithItems(ctx, o2, items))

	orders, err := repos.Orders.ListBySeller(ctx, "seller-a")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o1.ID, orders[0].ID)
}

func TestReviewCreateRecomputesAggregate(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p := seedProduct(t, repos, "seller", 3)

	_, err := repos.Reviews.Create(ctx, &entity.Review{ProductID: p.ID, UserID: "buyer", Rating: 4})
	require.NoError(t, err)
	summary, err := repos.Reviews.Create(ctx, &entity.Review{ProductID: p.ID, UserID: "buyer", Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, summary.AverageRating)
	assert.Equal(t, 2, summary.TotalCount)

	product, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, product.Rating)
	assert.Equal(t, 2, product.ReviewCount)

	_, err = repos.Reviews.Create(ctx, &entity.Review{ProductID: p.ID, UserID: "buyer", Rating: 5})
	require.NoError(t, err)
	product, err = repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.67, product.Rating)
}

func TestReviewForMissingProductFails(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	_, err := repos.Reviews.Create(ctx, &entity.Review{ProductID: "missing", UserID: "buyer", Rating: 4})
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	reviews, err := repos.Reviews.ListByProduct(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestProductUpdateLeavesDerivedFieldsAlone(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p := seedProduct(t, repos, "seller", 3)

	order, items := newOrder("buyer", entity.OrderStatusCompleted, p)
	require.NoError(t, repos.Orders.CreateWithItems(ctx, order, items))

	edit := *p
	edit.Title = "Renamed"
	edit.Price = 15.99
	edit.SalesCount = 99
	edit.Status = entity.ProductStatusRejected
	require.NoError(t, repos.Products.Update(ctx, &edit))

	stored, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, 15.99, stored.Price)
	assert.Equal(t, 1, stored.SalesCount)
	assert.Equal(t, entity.ProductStatusApproved, stored.Status)

	// The order item keeps the price it was bought at.
	storedOrder, err := repos.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, storedOrder.Items[0].Price)
}

func TestProductListFilters(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	approved := seedProduct(t, repos, "seller", 3)
	pending := seedProduct(t, repos, "seller", 4)
	require.NoError(t, repos.Products.SetStatus(ctx, pending.ID, entity.ProductStatusPending))

	products, total, err := repos.Products.List(ctx, domainrepo.ProductFilter{Status: entity.ProductStatusApproved}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, approved.ID, products[0].ID)

	byIDs, err := repos.Products.GetByIDs(ctx, []string{approved.ID, pending.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	assert.True(t, errors.Is(repos.Products.SetStatus(ctx, "missing", entity.ProductStatusApproved), errors.CodeNotFound))
}

func TestReferralTotals(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	alice := seedUser(t, repos, "alice", "ALICE001")
	for _, name := range []string{"bob", "carol"} {
		require.NoError(t, repos.Users.Create(ctx, &entity.User{
			Username: name, Email: name + "@example.com", ReferralCode: "CODE" + name, ReferrerID: alice.ID,
		}))
	}

	totals, err := repos.Users.ReferralTotals(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals.TotalUsers)
	assert.Equal(t, int64(2), totals.TotalReferrals)
	assert.Equal(t, int64(1), totals.ActiveReferrers)
	require.Len(t, totals.TopReferrers, 1)
	assert.Equal(t, alice.ID, totals.TopReferrers[0].ID)

	recent, err := repos.Users.ListReferrals(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
