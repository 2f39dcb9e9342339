package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketplace/internal/adapter/api"
	"marketplace/internal/adapter/api/handler"
	apimiddleware "marketplace/internal/adapter/api/middleware"
	"marketplace/internal/adapter/api/router"
	"marketplace/internal/adapter/repository"
	"marketplace/internal/infrastructure/audit"
	"marketplace/internal/infrastructure/auth"
	"marketplace/internal/infrastructure/database"
	"marketplace/internal/infrastructure/firebase"
	"marketplace/internal/infrastructure/ratelimit"
	"marketplace/internal/infrastructure/storage"
	"marketplace/internal/infrastructure/websocket"
	"marketplace/internal/usecase"
	"marketplace/pkg/config"
	"marketplace/pkg/logger"
	"marketplace/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	shutdown := map[string]gfshutdown.Operation{}

	var firebaseOpts []option.ClientOption
	if cfg.UsesFirebase() {
		if firebaseOpts, err = firebase.ClientOptions(cfg.Firebase); err != nil {
			fatal("Failed to resolve Firebase credentials", err)
		}
	}

	repos, ping, err := openStorage(ctx, cfg, firebaseOpts, shutdown)
	if err != nil {
		fatal("Failed to open storage", err)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTExpiry)
	var verifier auth.TokenVerifier = jwtManager
	if cfg.Auth.Provider == "firebase" {
		app, err := firebase.NewApp(ctx, cfg.Firebase, firebaseOpts...)
		if err != nil {
			fatal("Failed to initialize Firebase", err)
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			fatal("Failed to initialize Firebase Auth", err)
		}
		// Tokens issued at login stay valid next to Firebase ID tokens.
		verifier = auth.Chain(jwtManager, firebase.NewFirebaseAuthClient(authClient))
	}

	limiter, err := openLimiter(ctx, cfg, shutdown)
	if err != nil {
		fatal("Failed to initialize rate limiter", err)
	}

	auditLogger, err := audit.NewFileLogger(cfg.Audit.Path, cfg.Audit.MaxSizeMB, cfg.Audit.MaxFiles)
	if err != nil {
		fatal("Failed to open audit log", err)
	}
	shutdown["audit-log"] = func(context.Context) error {
		return auditLogger.Close()
	}

	files, err := openFileStorage(ctx, cfg, firebaseOpts, shutdown)
	if err != nil {
		fatal("Failed to initialize file storage", err)
	}

	wsCtx, stopWebSocket := context.WithCancel(ctx)
	wsManager := websocket.NewManager()
	wsManager.Start(wsCtx)
	shutdown["websocket"] = func(context.Context) error {
		stopWebSocket()
		return nil
	}

	referralUseCase, err := usecase.NewReferralUseCase(repos.Users, cfg.BaseURL)
	if err != nil {
		fatal("Failed to initialize referral codes", err)
	}
	authUseCase := usecase.NewAuthUseCase(repos.Users, referralUseCase, auth.NewBcryptHasher(bcrypt.DefaultCost), jwtManager)
	userUseCase := usecase.NewUserUseCase(repos.Users, repos.Orders, repos.Products, repos.Reviews)
	categoryUseCase := usecase.NewCategoryUseCase(repos.Categories, repos.Products)
	productUseCase := usecase.NewProductUseCase(repos.Products, repos.Categories)
	cartUseCase := usecase.NewCartUseCase(repos.Carts, repos.Products)
	orderUseCase := usecase.NewOrderUseCase(repos.Orders, repos.Carts, repos.Products, wsManager)
	reviewUseCase := usecase.NewReviewUseCase(repos.Reviews)
	uploadUseCase := usecase.NewUploadUseCase(files)

	handler.Setup(
		authUseCase,
		userUseCase,
		referralUseCase,
		categoryUseCase,
		productUseCase,
		cartUseCase,
		orderUseCase,
		reviewUseCase,
	)
	handler.SetupAdminHandler(userUseCase, productUseCase, orderUseCase, referralUseCase, auditLogger)
	handler.SetupFileHandler(uploadUseCase)
	handler.SetupPaymentHandler(orderUseCase, cfg.PaymentWebhookSecret)
	handler.SetupWebSocketHandler(wsManager, cfg.CORSOrigins)
	handler.SetupHealthHandler(cfg.Storage.Driver, ping)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.ErrorHandler

	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins(cfg.CORSOrigins),
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			handler.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{
			apimiddleware.HeaderRateLimitLimit,
			apimiddleware.HeaderRateLimitRemaining,
			apimiddleware.HeaderRateLimitReset,
		},
	}))

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier, authUseCase, auditLogger)
	accessMiddleware := apimiddleware.NewAccessMiddleware(auditLogger)

	router.Setup(e, authMiddleware, accessMiddleware, router.RateLimits{
		Limiter:    limiter,
		Max:        cfg.RateLimit.Max,
		Window:     cfg.RateLimit.Window,
		AuthMax:    cfg.RateLimit.AuthMax,
		AuthWindow: cfg.RateLimit.AuthWindow,
	})

	if local, ok := files.(*storage.LocalStorage); ok {
		e.Static("/uploads", local.Root())
	}

	shutdown["http-server"] = func(ctx context.Context) error {
		return e.Shutdown(ctx)
	}

	go func() {
		logger.Info("Starting server on port %s (storage=%s, auth=%s)", cfg.ServerPort, cfg.Storage.Driver, cfg.Auth.Provider)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Server stopped", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, shutdown)
	exitCode := <-wait
	logger.Info("Server exited with code %d", exitCode)
	os.Exit(exitCode)
}

func fatal(msg string, err error) {
	logger.Error("%s: %v", msg, err)
	os.Exit(1)
}

// openStorage opens the one store selected by STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config, opts []option.ClientOption, shutdown map[string]gfshutdown.Operation) (*repository.Repositories, handler.Pinger, error) {
	if cfg.Storage.Driver == "firestore" {
		client, err := firebase.NewFirestoreClient(ctx, cfg.Firebase, opts...)
		if err != nil {
			return nil, nil, err
		}
		shutdown["storage"] = func(context.Context) error {
			return client.Close()
		}
		return repository.NewFirestoreRepositories(client), firestorePing(client), nil
	}

	db, err := database.Open(cfg.Storage.Driver, cfg.Storage.DSN, strings.EqualFold(cfg.Log.Level, "debug"))
	if err != nil {
		return nil, nil, err
	}
	shutdown["storage"] = func(context.Context) error {
		return database.Close(db)
	}
	ping := func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}
	return repository.NewGormRepositories(db), ping, nil
}

func firestorePing(client *firestore.Client) handler.Pinger {
	return func(ctx context.Context) error {
		_, err := client.Collection("health").Doc("ping").Get(ctx)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return err
	}
}

func openLimiter(ctx context.Context, cfg *config.Config, shutdown map[string]gfshutdown.Operation) (ratelimit.Limiter, error) {
	if cfg.RateLimit.Store == "redis" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			return nil, err
		}
		shutdown["ratelimiter"] = func(context.Context) error {
			return client.Close()
		}
		return ratelimit.NewRedisLimiter(client), nil
	}

	limiter := ratelimit.NewMemoryLimiter(time.Minute)
	shutdown["ratelimiter"] = func(context.Context) error {
		limiter.Close()
		return nil
	}
	return limiter, nil
}

func openFileStorage(ctx context.Context, cfg *config.Config, opts []option.ClientOption, shutdown map[string]gfshutdown.Operation) (storage.FileStorage, error) {
	if cfg.Files.Backend == "gcs" {
		client, err := storage.NewCloudStorageClient(ctx, cfg.Files.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		shutdown["file-storage"] = func(context.Context) error {
			return client.Close()
		}
		return client, nil
	}

	return storage.NewLocalStorage(cfg.Files.UploadDir, cfg.Files.PublicBaseURL)
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"ip", v.RemoteIP,
			}
			if v.Error != nil {
				logger.L().Warn("request failed", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			logger.L().Info("request", attrs...)
			return nil
		},
	})
}
