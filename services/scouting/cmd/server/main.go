package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metasoccer/scouting-contracts/pkg/entropy"
	"github.com/metasoccer/scouting-contracts/pkg/roles"
	"github.com/metasoccer/scouting-contracts/pkg/scoutsig"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/config"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/issuance"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/journal"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/ledger"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/metrics"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/oracle"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/settlement"
	"github.com/metasoccer/scouting-contracts/services/scouting/internal/tokens"
)

func main() {
	dev := os.Getenv("SCOUTING_DEV") == "1"

	var log *zap.Logger
	var err error
	if dev {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfgPath := os.Getenv("SCOUTING_CONFIG")
	if cfgPath == "" {
		cfgPath = "scouting.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	reg := roles.NewRegistry()
	for _, a := range cfg.Admins {
		reg.Grant(a, roles.AdministrateConfig)
	}
	for _, a := range cfg.Authorizers {
		reg.Grant(a, roles.AuthorizeRequests)
	}
	reg.Grant(cfg.ServiceAccount, roles.MintDerivatives)
	reg.Grant(cfg.ServiceAccount, roles.WriteEntropy)

	vault := tokens.NewVault(cfg.EscrowAccount)
	bank := tokens.NewBank()
	items := tokens.NewCollection(reg)

	settle := settlement.New(bank, cfg.ServiceAccount, cfg.Beneficiary)
	if err := settle.SetCurrencies(cfg.Currencies); err != nil {
		log.Fatal("currencies", zap.Error(err))
	}
	for currency, byLevel := range cfg.Prices {
		for level, amount := range byLevel {
			if err := settle.SetPrice(currency, level, amount); err != nil {
				log.Fatal("prices", zap.Error(err))
			}
		}
	}

	orch := issuance.New(items, items, cfg.ServiceAccount, cfg.DerivativeCounts)

	coord := oracle.NewCoordinator(nil, cfg.OracleAccount, cfg.Signing.Instance, log)
	if dev && os.Getenv("SCOUTING_DEV_ORACLE") == "1" {
		var secret entropy.Seed
		if _, err := rand.Read(secret[:]); err != nil {
			log.Fatal("dev oracle secret", zap.Error(err))
		}
		coord.SetRequester(&oracle.InstantRequester{
			Secret:      secret,
			Coordinator: coord,
			Oracle:      cfg.OracleAccount,
		})
		log.Info("dev oracle enabled: randomness fulfills instantly")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var jnl journal.Journal
	if cfg.DatabaseURL != "" {
		pool, err := journal.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		pg := journal.NewPostgres(pool)
		if err := pg.Init(ctx); err != nil {
			log.Fatal("journal schema", zap.Error(err))
		}
		jnl = pg
	} else {
		jnl = journal.NewMemory()
		log.Info("no DATABASE_URL set, journaling in memory")
	}

	mets := metrics.New()
	engine := ledger.New(ledger.Deps{
		Custody:  vault,
		Settler:  chargeOnly{settle},
		Entropy:  coord,
		Issuer:   orch,
		Verifier: requestVerifier{domain: cfg.Signing, reg: reg},
		Journal:  jnl,
		Metrics:  mets,
		Log:      log,
	})

	srv := &server{
		cfg:     cfg,
		log:     log,
		engine:  engine,
		coord:   coord,
		settle:  settle,
		orch:    orch,
		reg:     reg,
		vault:   vault,
		bank:    bank,
		items:   items,
		journal: jnl,
		metrics: mets,
		dev:     dev,
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("scouting service listening", zap.String("addr", cfg.Listen))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

// chargeOnly narrows the settlement to the engine's Settler interface.
type chargeOnly struct{ s *settlement.Settlement }

func (c chargeOnly) Charge(ctx context.Context, payer string, level uint8) error {
	_, err := c.s.Charge(ctx, payer, level)
	return err
}

// requestVerifier binds the signing domain and the authorize-requests
// role check into the engine's Verifier.
type requestVerifier struct {
	domain scoutsig.Domain
	reg    *roles.Registry
}

func (v requestVerifier) Verify(r scoutsig.Request, env scoutsig.Envelope, now time.Time) (string, error) {
	return scoutsig.Verify(v.domain, r, env, now, func(account string) bool {
		return v.reg.Has(account, roles.AuthorizeRequests)
	})
}
