package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"storefront-auth/internal/collaborator"
	"storefront-auth/internal/config"
	"storefront-auth/internal/db"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/httpserver"
	"storefront-auth/internal/logging"
	"storefront-auth/internal/metrics"
	orderrepo "storefront-auth/internal/repository/order"
	productrepo "storefront-auth/internal/repository/product"
	userrepo "storefront-auth/internal/repository/user"
	cartsvc "storefront-auth/internal/service/cart"
	customersvc "storefront-auth/internal/service/customer"
	ordersvc "storefront-auth/internal/service/order"
	"storefront-auth/internal/service/session"
)

type backends struct {
	products interface {
		GetByID(ctx context.Context, id int64) (*domain.Product, error)
	}
	users interface {
		GetByName(ctx context.Context, name string) (*domain.User, error)
	}
	orders interface {
		CreateOrder(ctx context.Context, o domain.Order) (int64, error)
		CreateOrderItem(ctx context.Context, item domain.OrderItem) (*domain.OrderItem, error)
	}
	ready httpserver.ReadinessCheck
	close func()
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := logging.Must(cfg.LogLevel).Named("api")
	defer func() { _ = logger.Sync() }()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		var err error
		secret, err = session.RandomSecret()
		if err != nil {
			logger.Fatal("generate session secret", zap.Error(err))
		}
		logger.Warn("SESSION_SECRET not set; using a random per-process secret, sessions will not survive restarts or span replicas")
	}
	guard, err := session.NewGuard(secret)
	if err != nil {
		logger.Fatal("init session guard", zap.Error(err))
	}

	ctx := context.Background()
	be, err := openBackends(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init persistence", zap.String("mode", cfg.PersistenceMode), zap.Error(err))
	}
	defer be.close()

	srv, err := httpserver.New(cfg.HTTPAddr, logger, be.ready, httpserver.Deps{
		Guard:       guard,
		CartSvc:     cartsvc.New(guard, be.products),
		CustomerSvc: customersvc.New(be.users, guard, logger.Named("customer")),
		OrderSvc:    ordersvc.New(guard, be.orders, logger.Named("order")),
	}, httpserver.Options{
		CookieSecure:       cfg.CookieSecure,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LoginRate:          rate.Limit(cfg.LoginRatePerSecond),
		LoginBurst:         cfg.LoginBurst,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// openBackends returns either the HTTP persistence-service clients or the
// embedded Postgres repositories.
func openBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backends, error) {
	switch cfg.PersistenceMode {
	case config.PersistencePostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString, logger)
		if err != nil {
			return nil, err
		}
		return &backends{
			products: productrepo.NewPostgres(pool, logger),
			users:    userrepo.NewPostgres(pool, logger),
			orders:   orderrepo.NewPostgres(pool, logger),
			ready:    func(ctx context.Context) error { return db.Ping(ctx, pool) },
			close:    pool.Close,
		}, nil
	case config.PersistenceHTTP:
		proto, err := collaborator.ParseProtocol(cfg.CollaboratorProtocol)
		if err != nil {
			return nil, err
		}
		sender, err := collaborator.NewHTTPSender(collaborator.SenderConfig{
			BaseURL:  cfg.PersistenceURL,
			Protocol: proto,
			Timeout:  cfg.CollaboratorTimeout,
			Observer: metrics.CollaboratorObserver{},
		}, logger.Named("collaborator"))
		if err != nil {
			return nil, err
		}
		logger.Info("using persistence service",
			zap.String("url", cfg.PersistenceURL),
			zap.String("protocol", string(proto)),
		)
		return &backends{
			products: collaborator.NewCatalog(sender),
			users:    collaborator.NewCredentials(sender),
			orders:   collaborator.NewOrders(sender),
			close:    func() { _ = sender.Close() },
		}, nil
	default:
		return nil, errors.New("PERSISTENCE_MODE must be http or postgres")
	}
}
