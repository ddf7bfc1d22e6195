// Package server orchestrates all components: NATS client, DB, wallet, router, dispatcher, HTTP endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/morezero/wallet-dapp/internal/config"
	"github.com/morezero/wallet-dapp/pkg/commsutil"
	"github.com/morezero/wallet-dapp/pkg/db"
	"github.com/morezero/wallet-dapp/pkg/dispatcher"
	"github.com/morezero/wallet-dapp/pkg/events"
	"github.com/morezero/wallet-dapp/pkg/manifest"
	"github.com/morezero/wallet-dapp/pkg/router"
	"github.com/morezero/wallet-dapp/pkg/wallet"
)

const logPrefix = "server:server"

// pinger is satisfied by db.Repository.
type pinger interface {
	Ping(ctx context.Context) error
}

// job is an input submitted from HTTP; it joins the same queue as COMMS messages.
type job struct {
	ctx   context.Context
	req   *dispatcher.InputRequest
	reply chan *dispatcher.InputResponse
}

// Server is the wallet DApp orchestrator.
type Server struct {
	cfg      *config.Config
	manifest *manifest.Manifest
	nc       *comms.Conn
	pool     *pgxpool.Pool
	store    pinger
	wallet   *wallet.Wallet
	router   *router.Router
	disp     *dispatcher.Dispatcher
	registry *prometheus.Registry

	subjects subjects
	msgs     chan *comms.Msg
	jobs     chan job
	subs     []*comms.Subscription

	ready  atomic.Bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type subjects struct {
	Advance string `json:"advance"`
	Inspect string `json:"inspect"`
	Outputs string `json:"outputs"`
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	SetupLogging(cfg.LogLevel)

	slog.Info(fmt.Sprintf("%s - Starting wallet-dapp", logPrefix))
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Ledger, router, manifest and optional database
	s, err := New(ctx, cfg)
	if err != nil {
		return err
	}

	// Step 2: Connect to NATS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName, commsutil.ConnectOptions{})
	if err != nil {
		s.Close()
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}

	// Step 3: Subscribe and start the input consumer
	if err := s.Start(ctx, nc); err != nil {
		commsutil.Drain(nc)
		s.Close()
		return err
	}

	// Step 4: Start HTTP server
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	httpServer := &http.Server{Addr: httpAddr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, httpAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - wallet-dapp is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	s.Stop()
	s.Close()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// SetupLogging installs a text slog handler on stdout at the given level.
func SetupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

// New builds the ledger and router from cfg. With DATABASE_URL set the
// ledger is backed by Postgres and restored from it.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	m, err := manifest.Load(cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load manifest: %w", logPrefix, err)
	}
	portals, err := m.WalletPortals()
	if err != nil {
		return nil, err
	}
	if err := overridePortals(&portals, cfg); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		manifest: m,
		registry: prometheus.NewRegistry(),
		subjects: subjects{
			Advance: commsutil.BuildServiceSubject(cfg.Namespace, orDefault(cfg.AdvanceSubject, commsutil.SubjectAdvance)),
			Inspect: commsutil.BuildServiceSubject(cfg.Namespace, orDefault(cfg.InspectSubject, commsutil.SubjectInspect)),
			Outputs: commsutil.BuildServiceSubject(cfg.Namespace, orDefault(cfg.OutputsSubject, commsutil.SubjectOutputs)),
		},
		msgs: make(chan *comms.Msg, cfg.QueueSize),
		jobs: make(chan job),
	}
	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := wallet.Options{Portals: portals}
	if cfg.DatabaseURL != "" {
		repo, err := s.openStore(ctx)
		if err != nil {
			return nil, err
		}
		opts.Store = repo
		s.store = repo
	}

	s.wallet = wallet.New(opts)
	if err := s.wallet.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}

	s.router = router.New(s.wallet)
	if err := m.Apply(s.router); err != nil {
		s.Close()
		return nil, err
	}
	if cfg.DAppAddress != "" {
		addr, err := router.ParseAddress(cfg.DAppAddress)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%s - DAPP_ADDRESS: %w", logPrefix, err)
		}
		s.router.ConfigureRollupAddressAll(addr)
	}

	slog.Info(fmt.Sprintf("%s - %s@%s serving %d operations over %d accounts",
		logPrefix, m.Name, m.Version, len(s.router.Operations()), s.wallet.Accounts()))
	return s, nil
}

func (s *Server) openStore(ctx context.Context) (*db.Repository, error) {
	pool, err := db.NewPool(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}

	if s.cfg.RunMigrations {
		migrationSQL, err := db.LoadMigrationDir(s.cfg.MigrationPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
	}
	s.pool = pool
	return db.NewRepository(pool), nil
}

// Start subscribes to the advance and inspect subjects and starts the single
// consumer that processes every input in arrival order. A nil nc skips the
// subscriptions and publishes nothing; HTTP inspects still work.
func (s *Server) Start(ctx context.Context, nc *comms.Conn) error {
	s.nc = nc

	dispOpts := []dispatcher.Option{dispatcher.WithMetrics(dispatcher.NewMetrics(s.registry))}
	if nc != nil {
		dispOpts = append(dispOpts, dispatcher.WithPublisher(events.NewCommsPublisher(nc, &events.CommsPublisherOpts{
			OutputsSubject: orDefault(s.cfg.OutputsSubject, commsutil.SubjectOutputs),
			Namespace:      s.cfg.Namespace,
		})))
		for _, subject := range []string{s.subjects.Advance, s.subjects.Inspect} {
			sub, err := nc.ChanSubscribe(subject, s.msgs)
			if err != nil {
				s.unsubscribe()
				return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
			}
			s.subs = append(s.subs, sub)
			slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, subject))
		}
	}
	s.disp = dispatcher.NewDispatcher(s.router, dispOpts...)

	consumeCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.consume(consumeCtx)
	s.ready.Store(true)
	return nil
}

// consume is the only goroutine that touches the router.
func (s *Server) consume(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.msgs:
			s.handleMsg(ctx, msg)
		case j := <-s.jobs:
			reqCtx, cancel := context.WithTimeout(j.ctx, s.cfg.RequestTimeout)
			j.reply <- s.disp.Dispatch(reqCtx, j.req)
			cancel()
		}
	}
}

func (s *Server) handleMsg(ctx context.Context, msg *comms.Msg) {
	allowed := []dispatcher.InputType{dispatcher.InputInspect}
	if msg.Subject == s.subjects.Advance {
		allowed = []dispatcher.InputType{dispatcher.InputAdvance, dispatcher.InputDAppAddress}
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	data := s.disp.HandleMessage(reqCtx, msg.Data, allowed...)

	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to respond on %s: %v", logPrefix, msg.Subject, err))
	}
}

// submit queues req behind any pending COMMS input and waits for its response.
func (s *Server) submit(ctx context.Context, req *dispatcher.InputRequest) (*dispatcher.InputResponse, error) {
	if !s.ready.Load() {
		return nil, fmt.Errorf("%s - not ready", logPrefix)
	}
	reply := make(chan *dispatcher.InputResponse, 1)
	select {
	case s.jobs <- job{ctx: ctx, req: req, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop unsubscribes and waits for the consumer to exit.
func (s *Server) Stop() {
	s.ready.Store(false)
	s.unsubscribe()
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	commsutil.Drain(s.nc)
}

// Close releases the database pool.
func (s *Server) Close() {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

func (s *Server) unsubscribe() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn(fmt.Sprintf("%s - unsubscribe %s: %v", logPrefix, sub.Subject, err))
		}
	}
	s.subs = nil
}

func overridePortals(p *wallet.Portals, cfg *config.Config) error {
	overrides := []struct {
		name   string
		value  string
		target **common.Address
	}{
		{"ETHER_PORTAL", cfg.EtherPortal, &p.Ether},
		{"ERC20_PORTAL", cfg.ERC20Portal, &p.ERC20},
		{"ERC721_PORTAL", cfg.ERC721Portal, &p.ERC721},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		addr, err := router.ParseAddress(o.value)
		if err != nil {
			return fmt.Errorf("%s - %s: %w", logPrefix, o.name, err)
		}
		*o.target = &addr
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
