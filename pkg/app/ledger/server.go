// Package ledger implements app.Runner for the custody ledger server process.
package ledger

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/api"
	apphttp "github.com/chainsafe/custody-ledger/pkg/app/http"
	"github.com/chainsafe/custody-ledger/pkg/audit"
	"github.com/chainsafe/custody-ledger/pkg/auth"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/conversion"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/events"
	"github.com/chainsafe/custody-ledger/pkg/keys"
	ledgerpkg "github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/pgutil"
	"github.com/chainsafe/custody-ledger/pkg/price"
	"github.com/chainsafe/custody-ledger/pkg/provider"
	"github.com/chainsafe/custody-ledger/pkg/provider/dogecoin"
	"github.com/chainsafe/custody-ledger/pkg/provider/solana"
	"github.com/chainsafe/custody-ledger/pkg/provider/tron"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
	"github.com/chainsafe/custody-ledger/pkg/store"
	userservice "github.com/chainsafe/custody-ledger/pkg/user/service"
	"github.com/chainsafe/custody-ledger/pkg/userstore"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

const (
	priceSourceTimeout = 10 * time.Second
	resolverTimeout    = 15 * time.Second
)

// Server holds configuration for the ledger server process.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new ledger Server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run wires the ledger, its background workers and the HTTP shell.
// It blocks until an OS shutdown signal is received or a fatal server error occurs.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("nil config")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting custody ledger server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	registry, err := currency.NewRegistry(cfg.Currencies)
	if err != nil {
		return fmt.Errorf("load currencies: %w", err)
	}

	db, err := pgutil.ConnectDB(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	st := store.NewStore(db)
	if err := st.SyncCurrencies(ctx, registry); err != nil {
		return fmt.Errorf("sync currencies: %w", err)
	}

	rdb, err := s.openRedis(ctx, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	publisher, closePublisher, err := s.openPublisher(logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	masterKey, err := s.getMasterKey()
	if err != nil {
		return err
	}
	cipher, err := keys.NewMasterKeyCipher(masterKey)
	if err != nil {
		return fmt.Errorf("create key cipher: %w", err)
	}

	adapters, hotWallets, err := s.newAdapters(keys.NewResolver(cipher), logger)
	if err != nil {
		return err
	}

	hub := events.NewHub()
	l := ledgerpkg.New(st, registry, logger)
	l.Subscribe(func(userID string, _ []currency.Symbol) { hub.Notify(userID) })

	source, err := s.newPriceSource()
	if err != nil {
		return err
	}
	prices := price.NewTable(source, registry, cfg.Price.TTL, cfg.Price.MaxStale, logger)
	if _, err := prices.Snapshot(ctx); err != nil {
		logger.Warn("Initial price load failed (will retry on demand)", zap.Error(err))
	}

	games, err := settlement.NewEngine(cfg.Settlement, st, l, s.newResolver(), logger, settlement.WithPublisher(publisher))
	if err != nil {
		return fmt.Errorf("create settlement engine: %w", err)
	}
	if _, err := games.VoidStale(ctx); err != nil {
		logger.Warn("Stale bet sweep failed", zap.Error(err))
	}

	monitor := deposit.NewMonitor(cfg.Deposit, st, s.newCooldowns(st, rdb), l, adapters, logger, deposit.WithPublisher(publisher))
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("start deposit monitor: %w", err)
	}
	defer monitor.Stop()

	orchestrator := withdrawal.New(cfg.Withdrawal, st, l, adapters, hotWallets, logger, withdrawal.WithPublisher(publisher))
	if err := orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("start withdrawal orchestrator: %w", err)
	}
	defer orchestrator.Stop()

	auditor := audit.New(st, logger)
	if cfg.Audit.Interval > 0 {
		auditor.Start(cfg.Audit.Interval)
	}
	defer auditor.Stop()

	sessions, err := auth.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("create session issuer: %w", err)
	}
	var challenges auth.ChallengeStore = auth.NewMemoryChallenges(time.Now)
	if rdb != nil {
		challenges = auth.NewRedisChallenges(rdb, cfg.Redis.Prefix)
	}
	accounts := userservice.NewService(
		userstore.NewStore(db),
		challenges,
		auth.NewVerifiers(s.dogecoinParams()),
		adapters,
		sessions,
		cfg.Auth.ChallengeTTL,
		logger,
	)

	deps := api.Deps{
		Ledger:      l,
		Journal:     st,
		Converter:   conversion.NewEngine(l, prices, st, logger),
		Withdrawals: orchestrator,
		Games:       games,
		Addresses:   deposit.NewAddressBook(st, registry, adapters, cipher, logger),
		Deposits:    monitor,
		Auditor:     auditor,
	}

	router := s.newRouter(routerDeps{
		accounts: userservice.NewLog(accounts, logger),
		service:  api.NewLog(api.NewService(deps, logger), logger),
		admin:    api.NewAdmin(deps, logger),
		sessions: sessions,
		hub:      hub,
		db:       st,
		prices:   prices,
	}, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before deferred store and client closes kick in.
	orchestrator.Stop()
	monitor.Stop()
	auditor.Stop()

	return err
}

func (s *Server) getMasterKey() ([]byte, error) {
	env := s.cfg.Keys.MasterKeyEnv
	raw := os.Getenv(env)
	if raw == "" {
		return nil, fmt.Errorf("master key not set: env=%s (hint: openssl rand -base64 32)", env)
	}
	masterKey, err := keys.MasterKeyFromBase64(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid master key: %w", err)
	}
	return masterKey, nil
}

func (s *Server) openRedis(ctx context.Context, logger *zap.Logger) (*redis.Client, error) {
	cfg := s.cfg.Redis
	if cfg.Addr == "" {
		if s.cfg.Deposit.CooldownBackend == "redis" {
			return nil, fmt.Errorf("deposit.cooldown_backend is redis but redis.addr is not set")
		}
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	logger.Info("Connected to redis", zap.String("addr", cfg.Addr))
	return rdb, nil
}

func (s *Server) openPublisher(logger *zap.Logger) (events.Publisher, func(), error) {
	if s.cfg.NATS.URL == "" {
		logger.Info("NATS not configured, notifications disabled")
		return events.Nop{}, func() {}, nil
	}
	pub, err := events.ConnectNATS(s.cfg.NATS, logger)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() { _ = pub.Close() }, nil
}

func (s *Server) dogecoinParams() *chaincfg.Params {
	if s.cfg.Chains.Dogecoin.Network == "testnet" {
		return &dogecoin.TestNetParams
	}
	return &dogecoin.MainNetParams
}

// newAdapters registers an adapter for every enabled chain and collects the
// hot wallet handles withdrawals are signed with.
func (s *Server) newAdapters(resolver keys.Resolver, logger *zap.Logger) (*provider.Registry, map[currency.Chain]keys.Handle, error) {
	chains := s.cfg.Chains
	adapters := provider.NewRegistry()
	hotWallets := make(map[currency.Chain]keys.Handle)

	if chains.Solana.Enabled {
		adapters.Register(solana.New(chains.Solana, resolver, logger))
		hotWallets[currency.ChainSolana] = keys.Handle(chains.Solana.HotWalletKey)
	}
	if chains.Dogecoin.Enabled {
		adapters.Register(dogecoin.NewWithParams(chains.Dogecoin, s.dogecoinParams(), resolver, logger))
		hotWallets[currency.ChainDogecoin] = keys.Handle(chains.Dogecoin.HotWalletKey)
	}
	if chains.Tron.Enabled {
		a, err := tron.New(chains.Tron, resolver, logger)
		if err != nil {
			return nil, nil, err
		}
		adapters.Register(a)
		hotWallets[currency.ChainTron] = keys.Handle(chains.Tron.HotWalletKey)
	}

	for chain, h := range hotWallets {
		if h == "" {
			logger.Warn("No hot wallet key configured, withdrawals will fail", zap.String("chain", string(chain)))
		}
	}
	logger.Info("Chain adapters ready", zap.Int("chains", len(hotWallets)))
	return adapters, hotWallets, nil
}

func (s *Server) newPriceSource() (price.Source, error) {
	cfg := s.cfg.Price
	if cfg.SourceURL != "" {
		return price.NewHTTPSource(cfg.SourceURL, priceSourceTimeout), nil
	}
	src, err := price.NewStaticSource(cfg.Static)
	if err != nil {
		return nil, fmt.Errorf("load static prices: %w", err)
	}
	return src, nil
}

func (s *Server) newResolver() settlement.Resolver {
	if url := s.cfg.Settlement.ResolverURL; url != "" {
		return settlement.NewHTTPResolver(url, resolverTimeout)
	}
	return settlement.NewOddsResolver(settlement.DefaultOdds)
}

func (s *Server) newCooldowns(st *store.Store, rdb *redis.Client) deposit.Cooldowns {
	window := s.cfg.Deposit.Cooldown
	switch s.cfg.Deposit.CooldownBackend {
	case "redis":
		return deposit.NewRedisCooldowns(rdb, s.cfg.Redis.Prefix, window)
	case "memory":
		return deposit.NewMemoryCooldowns(window)
	default:
		return deposit.NewStoreCooldowns(st, window)
	}
}

type routerDeps struct {
	accounts userservice.Service
	service  api.Service
	admin    api.Admin
	sessions *auth.Sessions
	hub      *events.Hub
	db       api.Pinger
	prices   api.Warmer
}

func (s *Server) newRouter(deps routerDeps, logger *zap.Logger) http.Handler {
	cfg := s.cfg

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.AdminTokenHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", api.Health)
	r.Get("/ready", api.Ready(deps.db, deps.prices, logger))

	if !cfg.Monitoring.Disabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled", zap.String("path", "/metrics"))
	}

	// the websocket stream must not sit behind the request timeout
	r.With(auth.RequireSession(deps.sessions)).
		Handle("/ws/balance", api.NewBalanceStream(deps.service, deps.hub, cfg.Server.CORSOrigins, logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

		userservice.RegisterRoutes(r, deps.accounts, logger)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(deps.sessions))
			userservice.RegisterSessionRoutes(r, deps.accounts, logger)
			api.RegisterRoutes(r, deps.service, logger)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin(cfg.Auth.AdminToken))
			api.RegisterAdminRoutes(r, deps.admin, logger)
		})
	})

	return r
}
