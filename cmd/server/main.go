package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cake_heaven_back_end/internal/cache"
	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/catalog"
	"cake_heaven_back_end/internal/checkout"
	"cake_heaven_back_end/internal/client"
	"cake_heaven_back_end/internal/config"
	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/database"
	"cake_heaven_back_end/internal/handlers"
	"cake_heaven_back_end/internal/logger"
	"cake_heaven_back_end/internal/middleware"
	"cake_heaven_back_end/internal/notify"
	"cake_heaven_back_end/internal/payment"
	"cake_heaven_back_end/internal/repository"
	"cake_heaven_back_end/internal/routes"
	"cake_heaven_back_end/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ invalid configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.EnvFileLoaded {
		log.Warn("⚠️ no .env file found, using process environment")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("❌ server stopped", zap.Error(err))
	}
}

type stores struct {
	coupons  coupon.Repository
	products catalog.Repository
	close    func()
}

func connectStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := database.ConnectPostgres(ctx, cfg.PostgresURL, log)
		if err != nil {
			return stores{}, err
		}
		return stores{
			coupons:  repository.NewPostgresCoupons(pool),
			products: repository.NewPostgresProducts(pool),
			close:    pool.Close,
		}, nil
	default:
		session, err := database.ConnectScylla(cfg, log)
		if err != nil {
			return stores{}, err
		}
		return stores{
			coupons:  repository.NewScyllaCoupons(session),
			products: repository.NewScyllaProducts(session),
			close:    session.Close,
		}, nil
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := database.ConnectRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	st, err := connectStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	products := catalog.New(st.products, cache.NewProductCache(rdb), log)
	coupons := coupon.NewService(st.coupons, log,
		coupon.WithCache(cache.NewActiveCoupons(rdb)),
		coupon.WithCategoryLookup(products),
	)

	var (
		validator cart.Validator        = coupons
		redeemer  checkout.Redeemer     = coupons
		active    handlers.ActiveSource = coupons.ListActive
	)
	if cfg.CouponAPIURL != "" {
		remote := client.NewCouponClient(cfg.CouponAPIURL, nil)
		validator = remote
		active = remote.ActiveCoupons
		// Redemption is recorded by the service that owns the coupons.
		redeemer = nil
		log.Info("🔗 validating coupons remotely", zap.String("url", cfg.CouponAPIURL))
	}

	rules := cart.PricingRules{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
		Currency:              currency.MustParseISO(cfg.Currency),
	}

	sessions := repository.NewRedisCartStore(rdb, cfg.CartTTL)
	engine := cart.NewEngine(sessions, validator, log,
		cart.WithNotifier(sessions),
		cart.WithPricingRules(rules),
		cart.WithPolicy(cart.InvalidationPolicy(cfg.CouponInvalidation)),
	)

	var payments checkout.PaymentGateway = payment.Disabled{}
	if s, err := payment.NewStripe(cfg.StripeSecretKey); err == nil {
		payments = s
		log.Info("✅ Stripe initialised")
	} else {
		log.Warn("⚠️ STRIPE_SECRET_KEY not set, checkout disabled")
	}

	var mailer checkout.Mailer
	if cfg.SMTPHost != "" {
		mailer = notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, log)
	} else {
		log.Warn("⚠️ SMTP_HOST not set, order confirmations will not be emailed")
	}

	orders := checkout.NewService(engine, validator, payments,
		repository.NewRedisCheckoutStore(rdb), redeemer, mailer, log)

	mc, err := database.ConnectMinIO(ctx, cfg, log)
	if err != nil {
		return err
	}
	var objects services.ObjectStore
	if mc != nil {
		objects = mc
	}
	flyers := services.NewFlyerService(objects, cfg.MinIOBucket, cfg.StorefrontURL, log)

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Cart:      handlers.NewCartHandler(engine, products, sessions, cfg.CORSOrigins, log),
		Coupons:   handlers.NewCouponHandler(coupons, active, flyers, log),
		Checkout:  handlers.NewCheckoutHandler(orders, log),
		Limiter:   cache.NewRateCounter(rdb),
		JWTSecret: []byte(cfg.JWTSecret),
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Cake Heaven API listening", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("👋 bye")
	return nil
}
