package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/adapter/api"
	"marketplace/internal/adapter/api/handler"
	"marketplace/internal/adapter/api/middleware"
	"marketplace/internal/adapter/repository"
	"marketplace/internal/domain/entity"
	"marketplace/internal/infrastructure/audit"
	"marketplace/internal/infrastructure/auth"
	"marketplace/internal/infrastructure/database"
	"marketplace/internal/infrastructure/ratelimit"
	"marketplace/internal/infrastructure/storage"
	"marketplace/internal/infrastructure/websocket"
	"marketplace/internal/usecase"
	"marketplace/pkg/errors"
	"marketplace/pkg/response"
)

const webhookSecret = "whsec-test"

type apiEnv struct {
	e     *echo.Echo
	repos *repository.Repositories
	audit *audit.FileLogger
	ws    *websocket.Manager
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

type session struct {
	User  entity.User `json:"user"`
	Token string      `json:"token"`
}

type productPage struct {
	Items []entity.Product `json:"items"`
	Total int64            `json:"total"`
}

func newAPI(t *testing.T, limits RateLimits) *apiEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	repos := repository.NewGormRepositories(db)

	auditLogger, err := audit.NewFileLogger(filepath.Join(t.TempDir(), "audit.log"), 1, 2)
	require.NoError(t, err)
	t.Cleanup(func() { auditLogger.Close() })

	files, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	jwtManager := auth.NewJWTManager("test-secret", "marketplace", time.Hour)
	referral, err := usecase.NewReferralUseCase(repos.Users, "https://shop.example.com")
	require.NoError(t, err)
	authUseCase := usecase.NewAuthUseCase(repos.Users, referral, auth.NewBcryptHasher(bcrypt.MinCost), jwtManager)
	userUseCase := usecase.NewUserUseCase(repos.Users, repos.Orders, repos.Products, repos.Reviews)
	productUseCase := usecase.NewProductUseCase(repos.Products, repos.Categories)
	orderUseCase := usecase.NewOrderUseCase(repos.Orders, repos.Carts, repos.Products, wsManager)

	handler.Setup(
		authUseCase,
		userUseCase,
		referral,
		usecase.NewCategoryUseCase(repos.Categories, repos.Products),
		productUseCase,
		usecase.NewCartUseCase(repos.Carts, repos.Products),
		orderUseCase,
		usecase.NewReviewUseCase(repos.Reviews),
	)
	handler.SetupAdminHandler(userUseCase, productUseCase, orderUseCase, referral, auditLogger)
	handler.SetupFileHandler(usecase.NewUploadUseCase(files))
	handler.SetupPaymentHandler(orderUseCase, webhookSecret)
	handler.SetupWebSocketHandler(wsManager, nil)
	handler.SetupHealthHandler("sqlite", func(ctx context.Context) error { return database.Ping(ctx, db) })

	if limits.Limiter == nil {
		limiter := ratelimit.NewMemoryLimiter(time.Minute)
		t.Cleanup(limiter.Close)
		limits = RateLimits{Limiter: limiter, Max: 10000, Window: time.Minute, AuthMax: 10000, AuthWindow: time.Minute}
	}

	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.ErrorHandler
	Setup(e,
		middleware.NewAuthMiddleware(jwtManager, authUseCase, auditLogger),
		middleware.NewAccessMiddleware(auditLogger),
		limits,
	)

	return &apiEnv{e: e, repos: repos, audit: auditLogger, ws: wsManager}
}

func (a *apiEnv) call(t *testing.T, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), string(env.Data))
}

func (a *apiEnv) register(t *testing.T, username, referralCode string) session {
	t.Helper()
	rec, env := a.call(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username":      username,
		"email":         username + "@example.com",
		"password":      "Str0ng!Pass",
		"full_name":     "Test User",
		"referral_code": referralCode,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var s session
	decode(t, env, &s)
	return s
}

func (a *apiEnv) promote(t *testing.T, s session, role string) {
	t.Helper()
	user, err := a.repos.Users.GetByID(context.Background(), s.User.ID)
	require.NoError(t, err)
	user.Role = role
	require.NoError(t, a.repos.Users.Update(context.Background(), user))
}

func newProductBody(price float64) map[string]interface{} {
	return map[string]interface{}{
		"title":       "Bread baking course",
		"description": "Twelve lessons on hydration and shaping",
		"price":       price,
		"images":      []string{"https://cdn.example.com/cover.png"},
		"files":       []string{"https://cdn.example.com/course.zip"},
		"type":        entity.ProductTypeDigital,
	}
}

func (a *apiEnv) createProduct(t *testing.T, seller session, price float64) entity.Product {
	t.Helper()
	rec, env := a.call(t, http.MethodPost, "/v1/products", seller.Token, newProductBody(price))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p entity.Product
	decode(t, env, &p)
	return p
}

func (a *apiEnv) approvedProduct(t *testing.T, seller, admin session, price float64) entity.Product {
	t.Helper()
	p := a.createProduct(t, seller, price)
	rec, _ := a.call(t, http.MethodPost, "/v1/admin/products/"+p.ID+"/approve", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return p
}

func (a *apiEnv) auditActions() []string {
	var actions []string
	for _, entry := range a.audit.GetRecentLogs(audit.DefaultRecentLimit) {
		actions = append(actions, entry.Action)
	}
	return actions
}

func TestReferralRegistrationFlow(t *testing.T) {
	a := newAPI(t, RateLimits{})

	alice := a.register(t, "alice", "")
	assert.Regexp(t, `^[A-Z0-9]{8}$`, alice.User.ReferralCode)

	rec, env := a.call(t, http.MethodGet, "/v1/referral/validate/"+alice.User.ReferralCode, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var validation usecase.ReferralValidation
	decode(t, env, &validation)
	assert.True(t, validation.Valid)
	assert.Equal(t, "alice", validation.Referrer.Username)

	bob := a.register(t, "bob", alice.User.ReferralCode)
	assert.Equal(t, alice.User.ID, bob.User.ReferrerID)

	rec, env = a.call(t, http.MethodGet, "/v1/users/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me entity.User
	decode(t, env, &me)
	assert.Equal(t, 1, me.TotalReferrals)

	rec, env = a.call(t, http.MethodGet, "/v1/referral/link", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var link usecase.ReferralLink
	decode(t, env, &link)
	assert.Equal(t, "https://shop.example.com/register?ref="+alice.User.ReferralCode, link.ReferralLink)

	rec, env = a.call(t, http.MethodGet, "/v1/referral/validate/NOPE1234", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &validation)
	assert.False(t, validation.Valid)
}

func TestRegisterValidationErrors(t *testing.T) {
	a := newAPI(t, RateLimits{})

	rec, env := a.call(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username":  "carol",
		"email":     "carol@example.com",
		"password":  "weakpassword",
		"full_name": "Carol",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.CodeValidation, env.Error.Code)

	details, ok := env.Error.Details.([]interface{})
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "password", details[0].(map[string]interface{})["field"])
	assert.Equal(t, "strong_password", details[0].(map[string]interface{})["rule"])
}

func TestLoginAndRequireAuth(t *testing.T) {
	a := newAPI(t, RateLimits{})
	a.register(t, "dave", "")

	rec, env := a.call(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "dave@example.com",
		"password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var s session
	decode(t, env, &s)
	assert.NotEmpty(t, s.Token)

	rec, _ = a.call(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "dave",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = a.call(t, http.MethodGet, "/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errors.CodeUnauthorized, env.Error.Code)
	assert.Contains(t, a.auditActions(), audit.ActionUnauthorizedAccess)
}

func TestProductApprovalFlow(t *testing.T) {
	a := newAPI(t, RateLimits{})
	seller := a.register(t, "seller1", "")
	admin := a.register(t, "admin1", "")
	buyer := a.register(t, "buyer1", "")
	a.promote(t, seller, entity.RoleSeller)
	a.promote(t, admin, entity.RoleAdmin)

	rec, _ := a.call(t, http.MethodPost, "/v1/products", buyer.Token, newProductBody(10))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, a.auditActions(), audit.ActionUnauthorizedRole)

	rec, env := a.call(t, http.MethodPost, "/v1/products", seller.Token, newProductBody(10.999))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidation, env.Error.Code)

	p := a.createProduct(t, seller, 10)
	assert.Equal(t, entity.ProductStatusPending, p.Status)
	assert.Zero(t, p.SalesCount)

	rec, env = a.call(t, http.MethodGet, "/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page productPage
	decode(t, env, &page)
	assert.Zero(t, page.Total)

	rec, _ = a.call(t, http.MethodGet, "/v1/products/"+p.ID, buyer.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = a.call(t, http.MethodGet, "/v1/products/"+p.ID, seller.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = a.call(t, http.MethodGet, "/v1/admin/products/pending", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &page)
	assert.EqualValues(t, 1, page.Total)

	rec, env = a.call(t, http.MethodPost, "/v1/admin/products/"+p.ID+"/approve", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var approved entity.Product
	decode(t, env, &approved)
	assert.Equal(t, entity.ProductStatusApproved, approved.Status)

	rec, env = a.call(t, http.MethodGet, "/v1/products?type=digital", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p.ID, page.Items[0].ID)

	rec, env = a.call(t, http.MethodGet, "/v1/products/type/physical", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &page)
	assert.Empty(t, page.Items)

	assert.Contains(t, a.auditActions(), audit.ActionAdminApproveProduct)
}

func TestNonOwnerCannotEditProduct(t *testing.T) {
	a := newAPI(t, RateLimits{})
	owner := a.register(t, "owner", "")
	other := a.register(t, "other", "")
	admin := a.register(t, "boss", "")
	a.promote(t, owner, entity.RoleSeller)
	a.promote(t, other, entity.RoleSeller)
	a.promote(t, admin, entity.RoleAdmin)

	p := a.createProduct(t, owner, 10)

	rec, env := a.call(t, http.MethodPut, "/v1/products/"+p.ID, other.Token, map[string]interface{}{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeForbidden, env.Error.Code)
	assert.Contains(t, a.auditActions(), audit.ActionUnauthorizedResource)

	stored, err := a.repos.Products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread baking course", stored.Title)

	rec, _ = a.call(t, http.MethodPut, "/v1/products/does-not-exist", other.Token, map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Status and counters are not part of the update projection.
	rec, env = a.call(t, http.MethodPut, "/v1/products/"+p.ID, owner.Token, map[string]interface{}{
		"title":       "Bread baking course, 2nd edition",
		"status":      entity.ProductStatusApproved,
		"sales_count": 999,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated entity.Product
	decode(t, env, &updated)
	assert.Equal(t, "Bread baking course, 2nd edition", updated.Title)
	assert.Equal(t, entity.ProductStatusPending, updated.Status)
	assert.Zero(t, updated.SalesCount)

	rec, _ = a.call(t, http.MethodDelete, "/v1/products/"+p.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartCheckoutSnapshotsPrice(t *testing.T) {
	a := newAPI(t, RateLimits{})
	seller := a.register(t, "baker", "")
	admin := a.register(t, "root", "")
	buyer := a.register(t, "eater", "")
	a.promote(t, seller, entity.RoleSeller)
	a.promote(t, admin, entity.RoleAdmin)
	p := a.approvedProduct(t, seller, admin, 10.99)

	rec, _ := a.call(t, http.MethodPost, "/v1/cart", buyer.Token, map[string]string{"product_id": p.ID})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = a.call(t, http.MethodPost, "/v1/cart", buyer.Token, map[string]string{"product_id": p.ID})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := a.call(t, http.MethodGet, "/v1/cart", buyer.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []entity.CartLine
	decode(t, env, &lines)
	require.Len(t, lines, 1)
	assert.Equal(t, 10.99, lines[0].Product.Price)

	rec, env = a.call(t, http.MethodPost, "/v1/orders", buyer.Token, map[string]string{"payment_method": "card"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order entity.Order
	decode(t, env, &order)
	assert.Equal(t, 10.99, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 10.99, order.Items[0].Price)
	assert.Equal(t, entity.OrderStatusPending, order.Status)

	rec, _ = a.call(t, http.MethodPut, "/v1/products/"+p.ID, seller.Token, map[string]interface{}{"price": 15.99})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = a.call(t, http.MethodGet, "/v1/orders/"+order.ID, buyer.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored entity.Order
	decode(t, env, &stored)
	assert.Equal(t, 10.99, stored.Total)
	assert.Equal(t, 10.99, stored.Items[0].Price)

	rec, env = a.call(t, http.MethodGet, "/v1/cart", buyer.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &lines)
	assert.Empty(t, lines)

	rec, env = a.call(t, http.MethodPost, "/v1/orders", buyer.Token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeEmptyCart, env.Error.Code)

	rec, _ = a.call(t, http.MethodGet, "/v1/orders/"+order.ID, seller.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.call(t, http.MethodGet, "/v1/orders/"+order.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	a := newAPI(t, RateLimits{})
	seller := a.register(t, "maker", "")
	admin := a.register(t, "chief", "")
	buyer := a.register(t, "shopper", "")
	a.promote(t, seller, entity.RoleSeller)
	a.promote(t, admin, entity.RoleAdmin)
	p := a.approvedProduct(t, seller, admin, 5)

	rec, _ := a.call(t, http.MethodPost, "/v1/cart", buyer.Token, map[string]string{"product_id": p.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := a.call(t, http.MethodPost, "/v1/orders", buyer.Token, map[string]string{}, handler.HeaderIdempotencyKey, "checkout-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first entity.Order
	decode(t, env, &first)

	rec, env = a.call(t, http.MethodPost, "/v1/orders", buyer.Token, map[string]string{}, handler.HeaderIdempotencyKey, "checkout-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var replay entity.Order
	decode(t, env, &replay)
	assert.Equal(t, first.ID, replay.ID)

	rec, env = a.call(t, http.MethodGet, "/v1/orders", buyer.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []entity.Order
	decode(t, env, &orders)
	assert.Len(t, orders, 1)
}

func TestPaymentWebhookCompletesOrderOnce(t *testing.T) {
	a := newAPI(t, RateLimits{})
	seller := a.register(t, "vendor", "")
	admin := a.register(t, "operator", "")
	buyer := a.register(t, "client", "")
	a.promote(t, seller, entity.RoleSeller)
	a.promote(t, admin, entity.RoleAdmin)
	p := a.approvedProduct(t, seller, admin, 20)

	a.call(t, http.MethodPost, "/v1/cart", buyer.Token, map[string]string{"product_id": p.ID})
	rec, env := a.call(t, http.MethodPost, "/v1/orders", buyer.Token, map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order entity.Order
	decode(t, env, &order)

	body, err := json.Marshal(map[string]string{
		"type":           usecase.PaymentEventCompleted,
		"order_id":       order.ID,
		"payment_method": "card",
	})
	require.NoError(t, err)

	rec, _ = a.call(t, http.MethodPost, "/v1/payments/webhook", "", body, handler.HeaderSignature, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	signature := handler.SignPayload(webhookSecret, body)
	for i := 0; i < 2; i++ {
		rec, env = a.call(t, http.MethodPost, "/v1/payments/webhook", "", body, handler.HeaderSignature, signature)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	var paid entity.Order
	decode(t, env, &paid)
	assert.Equal(t, entity.OrderStatusCompleted, paid.Status)
	assert.Equal(t, entity.PaymentStatusCompleted, paid.PaymentStatus)
	assert.Equal(t, entity.FulfillmentProcessing, paid.FulfillmentStatus)
	assert.Equal(t, "card", paid.PaymentMethod)

	// A later admin update to completed must not count again either.
	rec, _ = a.call(t, http.MethodPut, "/v1/admin/orders/"+order.ID+"/status", admin.Token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := a.repos.Products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SalesCount)
	assert.Contains(t, a.auditActions(), audit.ActionPaymentWebhook)
	assert.Contains(t, a.auditActions(), audit.ActionAdminUpdateOrder)
}

func TestAdminOrderStatusValidation(t *testing.T) {
	a := newAPI(t, RateLimits{})
	admin := a.register(t, "admin2", "")
	a.promote(t, admin, entity.RoleAdmin)

	rec, env := a.call(t, http.MethodPut, "/v1/admin/orders/missing/status", admin.Token, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidation, env.Error.Code)

	rec, _ = a.call(t, http.MethodPut, "/v1/admin/orders/missing/status", admin.Token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = a.call(t, http.MethodPut, "/v1/admin/orders/missing/status", admin.Token, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, env.Error.Code)
}

func TestReviewsUpdateProductRating(t *testing.T) {
	a := newAPI(t, RateLimits{})
	seller := a.register(t, "author", "")
	admin := a.register(t, "mod", "")
	buyer := a.register(t, "reader", "")
	a.promote(t, seller, entity.RoleSeller)
	a.promote(t, admin, entity.RoleAdmin)
	p := a.approvedProduct(t, seller, admin, 12)

	for _, rating := range []int{4, 2} {
		rec, _ := a.call(t, http.MethodPost, "/v1/products/"+p.ID+"/reviews", buyer.Token, map[string]interface{}{
			"rating":  rating,
			"comment": "Worth it",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, _ := a.call(t, http.MethodPost, "/v1/products/"+p.ID+"/reviews", buyer.Token, map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := a.call(t, http.MethodGet, "/v1/products/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var product entity.Product
	decode(t, env, &product)
	assert.Equal(t, 3.0, product.Rating)
	assert.Equal(t, 2, product.ReviewCount)

	rec, env = a.call(t, http.MethodGet, "/v1/products/"+p.ID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []entity.Review
	decode(t, env, &reviews)
	assert.Len(t, reviews, 2)
}

func TestPrivilegeEscalationIsBlocked(t *testing.T) {
	a := newAPI(t, RateLimits{})
	user := a.register(t, "mallory", "")
	admin := a.register(t, "trent", "")
	a.promote(t, admin, entity.RoleAdmin)

	rec, env := a.call(t, http.MethodPut, "/v1/users/me", user.Token, map[string]string{
		"full_name": "Mallory Admin",
		"role":      entity.RoleAdmin,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me entity.User
	decode(t, env, &me)
	assert.Equal(t, "Mallory Admin", me.FullName)
	assert.Equal(t, entity.RoleUser, me.Role)
	assert.Contains(t, a.auditActions(), audit.ActionPrivilegeEscalation)

	rec, _ = a.call(t, http.MethodPut, "/v1/admin/users/"+user.User.ID, user.Token, map[string]string{"role": entity.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = a.call(t, http.MethodPut, "/v1/admin/users/"+admin.User.ID, admin.Token, map[string]string{"role": entity.RoleUser})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidOperation, env.Error.Code)
	assert.Contains(t, a.auditActions(), audit.ActionAdminSelfDemotion)

	stored, err := a.repos.Users.GetByID(context.Background(), admin.User.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, stored.Role)

	rec, env = a.call(t, http.MethodPut, "/v1/admin/users/"+user.User.ID, admin.Token, map[string]string{"role": entity.RoleSeller})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, env, &me)
	assert.Equal(t, entity.RoleSeller, me.Role)
	assert.Contains(t, a.auditActions(), audit.ActionAdminUpdateUser)

	rec, _ = a.call(t, http.MethodDelete, "/v1/admin/users/"+admin.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAuditLogEndpoints(t *testing.T) {
	a := newAPI(t, RateLimits{})
	admin := a.register(t, "auditor", "")
	a.promote(t, admin, entity.RoleAdmin)

	a.call(t, http.MethodGet, "/v1/cart", "", nil)

	rec, env := a.call(t, http.MethodGet, "/v1/admin/audit-logs?limit=10", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []audit.Entry
	decode(t, env, &entries)
	require.NotEmpty(t, entries)
	assert.Len(t, entries[len(entries)-1].LogID, 16)

	rec, env = a.call(t, http.MethodGet, "/v1/admin/audit-logs/search?action="+audit.ActionUnauthorizedAccess, admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "/v1/cart", entries[0].Endpoint)

	rec, _ = a.call(t, http.MethodGet, "/v1/admin/audit-logs/search?start=yesterday", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(time.Minute)
	defer limiter.Close()
	a := newAPI(t, RateLimits{Limiter: limiter, Max: 100, Window: time.Minute, AuthMax: 2, AuthWindow: time.Minute})

	login := map[string]string{"username": "nobody", "password": "x"}
	for i := 0; i < 2; i++ {
		rec, _ := a.call(t, http.MethodPost, "/v1/auth/login", "", login)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, env := a.call(t, http.MethodPost, "/v1/auth/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, errors.CodeRateLimitExceeded, env.Error.Code)
	assert.Equal(t, "0", rec.Header().Get(middleware.HeaderRateLimitRemaining))
}

func TestHealth(t *testing.T) {
	a := newAPI(t, RateLimits{})

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "sqlite", body["storage"])
}

func TestOrderStatusPushedOverWebSocket(t *testing.T) {
	a := newAPI(t, RateLimits{})
	seller := a.register(t, "shop", "")
	admin := a.register(t, "staff", "")
	buyer := a.register(t, "fan", "")
	a.promote(t, seller, entity.RoleSeller)
	a.promote(t, admin, entity.RoleAdmin)
	p := a.approvedProduct(t, seller, admin, 8)

	a.call(t, http.MethodPost, "/v1/cart", buyer.Token, map[string]string{"product_id": p.ID})
	rec, env := a.call(t, http.MethodPost, "/v1/orders", buyer.Token, map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order entity.Order
	decode(t, env, &order)

	srv := httptest.NewServer(a.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/orders?token=" + buyer.Token
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return a.ws.ConnectionCount(buyer.User.ID) == 1 }, time.Second, 10*time.Millisecond)

	rec, _ = a.call(t, http.MethodPut, "/v1/admin/orders/"+order.ID+"/status", admin.Token, map[string]string{"fulfillment_status": "shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type  string       `json:"type"`
		Order entity.Order `json:"order"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.EventOrderStatus, msg.Type)
	assert.Equal(t, order.ID, msg.Order.ID)
	assert.Equal(t, entity.FulfillmentShipped, msg.Order.FulfillmentStatus)

	rec, _ = a.call(t, http.MethodGet, "/v1/ws/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
