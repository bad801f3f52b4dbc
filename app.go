package main

import (
	"context"
	"fmt"

	"ticketbari/booking"
	"ticketbari/config"
	"ticketbari/db"
	"ticketbari/identity"
	"ticketbari/logger"
	"ticketbari/memstore"
	"ticketbari/mq"
	"ticketbari/pay"
	"ticketbari/ratelim"
	"ticketbari/rdx"
	"ticketbari/routes"
	"ticketbari/stripe"
	"ticketbari/tickets"
	"ticketbari/users"
)

// stores is the persistence chosen by STORE_DRIVER.
type stores struct {
	users       users.Store
	tickets     tickets.Store
	bookings    booking.Store
	payments    pay.Store
	idempotency pay.IdempotencyStore
	tx          users.Transactor
	close       func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		logger.L.Warn("using in-memory store; data is lost on restart")
		s := memstore.New()
		return &stores{
			users:       s.Users(),
			tickets:     s.Tickets(),
			bookings:    s.Bookings(),
			payments:    s.Payments(),
			idempotency: memstore.NewIdempotency(),
			tx:          s.Transactor(false),
			close:       func(context.Context) error { return nil },
		}, nil
	}

	conn, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	if err := conn.CreateIndexes(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	if !cfg.MongoTransactions {
		logger.L.Warn("mongo transactions disabled; the fraud cascade may leave tickets visible on failure")
	}
	return &stores{
		users:       users.NewMongoStore(conn.Users),
		tickets:     tickets.NewMongoStore(conn.Tickets),
		bookings:    booking.NewMongoStore(conn.Bookings),
		payments:    pay.NewMongoStore(conn.Payments),
		idempotency: pay.NewMongoIdempotencyStore(conn.Idempotency),
		tx:          db.NewTransactor(conn.Client, cfg.MongoTransactions),
		close:       conn.Close,
	}, nil
}

// services holds the wired domain components.
type services struct {
	directory *users.Directory
	catalog   *tickets.Catalog
	ledger    *booking.Ledger
	payments  *pay.PaymentService
	closers   []func(context.Context) error
}

func (s *services) Close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.L.Error("close failed", "err", err)
		}
	}
}

func newServices(ctx context.Context, cfg *config.Config, st *stores) (*services, error) {
	svc := &services{closers: []func(context.Context) error{st.close}}

	// Locks are only needed when several processes share the database.
	var locker pay.Locker
	if cfg.RedisAddr != "" {
		client, err := rdx.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			svc.Close(ctx)
			return nil, err
		}
		svc.closers = append(svc.closers, func(context.Context) error { return client.Close() })
		locker = rdx.NewLocker(client, rdx.DefaultLockTTL)
		mq.Setup(client, cfg.EventsChannel)
		svc.closers = append(svc.closers, func(context.Context) error { mq.Setup(nil, ""); return nil })
		logger.L.Info("redis locks and events enabled", "addr", cfg.RedisAddr, "channel", cfg.EventsChannel)
	}

	var provider pay.Provider
	if cfg.StripeSecretKey != "" {
		provider = stripe.NewClient(cfg.StripeSecretKey)
	} else {
		logger.L.Warn("STRIPE_SECRET_KEY not set; checkout sessions are simulated and complete immediately")
		provider = stripe.NewSandbox(true)
	}

	svc.catalog = tickets.NewCatalog(st.tickets, locker)
	svc.directory = users.NewDirectory(st.users, svc.catalog, st.tx)
	svc.ledger = booking.NewLedger(st.bookings)
	svc.payments = pay.NewPaymentService(st.payments, provider, pay.Options{
		Currency:      cfg.Currency,
		ClientURL:     cfg.ClientURL,
		ReceiptSecret: cfg.ReceiptSecret,
		Bookings:      svc.ledger,
		Locker:        locker,
	})
	return svc, nil
}

func newVerifier(ctx context.Context, cfg *config.Config) (identity.Verifier, error) {
	creds, err := cfg.FirebaseCredentials()
	if err != nil {
		return nil, err
	}
	if creds != nil {
		v, err := identity.NewFirebaseVerifier(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("firebase verifier: %w", err)
		}
		return v, nil
	}
	logger.L.Info("verifying HS256 bearer tokens", "issuer", cfg.JWTIssuer)
	return identity.NewJWTVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer), nil
}

func newDeps(verifier identity.Verifier, st *stores, svc *services) routes.Deps {
	return routes.Deps{
		Verifier:    verifier,
		Directory:   svc.directory,
		Catalog:     svc.catalog,
		Ledger:      svc.ledger,
		Payments:    svc.payments,
		Idempotency: st.idempotency,
		RateLimiter: ratelim.NewRateLimiter(120, 20),
	}
}
