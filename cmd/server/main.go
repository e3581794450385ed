package main

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jackc/pgx/v5/pgxpool"

	"uidtrust/internal/audit"
	"uidtrust/internal/chain"
	"uidtrust/internal/destruction"
	"uidtrust/internal/docstore"
	"uidtrust/internal/linking"
	"uidtrust/internal/platform/config"
	"uidtrust/internal/platform/httpserver"
	"uidtrust/internal/platform/logger"
	"uidtrust/internal/platform/metrics"
	"uidtrust/internal/platform/redis"
	"uidtrust/internal/signature"
	httptransport "uidtrust/internal/transport/http"
	"uidtrust/internal/user"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, healthChecks, cleanup, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	docstore.SetActive(store)
	users := user.NewStore(docstore.Active(), cfg.CollectionPrefix)

	registry, defaultSource, uidReader, err := buildChain(ctx, cfg, redisClient, log)
	if err != nil {
		return err
	}

	auditPub, auditClose, err := buildAudit(cfg, log)
	if err != nil {
		return err
	}
	defer auditClose()

	m := metrics.New()
	verifier := signature.NewVerifier(registry, log, m)

	contract := common.HexToAddress(cfg.UniqueIdentityAddr)
	linkService := linking.NewService(users, uidReader, defaultSource, contract, big.NewInt(cfg.ChainID), auditPub, log, m)
	destroyService := destruction.NewService(users, auditPub, log, m)

	signers, err := parseSigners(cfg.DestroyUserSigners)
	if err != nil {
		return err
	}

	if redisClient != nil {
		healthChecks = append(healthChecks, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Verifier:       verifier,
		LinkHandler:    linking.NewHandler(linkService, log).HandleLink,
		DestroyHandler: destruction.NewHandler(destroyService, log).HandleDestroy,
		LinkMaxAge:     cfg.SignatureMaxAge,
		DestroySigners: signers,
		DestroyMaxAge:  cfg.DestructionSigMaxAge,
		HealthChecks:   healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "network", cfg.DefaultNetwork, "collection_prefix", cfg.CollectionPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "grace", cfg.ShutdownGrace.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStore selects Postgres when configured and falls back to the in-memory
// store for local development.
func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (docstore.Store, []httptransport.HealthCheck, func(), error) {
	if cfg.PostgresURL == "" {
		log.Warn("DATABASE_URL not set; using in-memory store")
		return docstore.NewMemoryStore(), nil, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, nil, err
	}
	store := docstore.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	checks := []httptransport.HealthCheck{{Name: "postgres", Check: store.Health}}
	return store, checks, pool.Close, nil
}

// buildChain dials every configured network and returns the origin registry,
// the default network's source, and the UID contract reader on that network.
func buildChain(ctx context.Context, cfg config.Config, redisClient *redis.Client, log *slog.Logger) (*chain.Registry, chain.BlockSource, chain.UniqueIdentityReader, error) {
	sources := make(map[string]chain.BlockSource, len(cfg.NetworkRPCURLs))
	var defaultClient *ethclient.Client

	for network, url := range cfg.NetworkRPCURLs {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return nil, nil, nil, err
		}
		var cache *chain.CachedSource
		if redisClient != nil {
			cache = chain.NewCachedSource(network, chain.NewRPCSource(client), redisClient.Client, log)
		} else {
			cache = chain.NewCachedSource(network, chain.NewRPCSource(client), nil, log)
		}
		sources[network] = cache
		if network == cfg.DefaultNetwork {
			defaultClient = client
		}
	}

	registry, err := chain.NewRegistry(sources, cfg.OriginNetworks, cfg.DefaultNetwork)
	if err != nil {
		return nil, nil, nil, err
	}

	uidReader, err := chain.NewERC1155Reader(defaultClient, common.HexToAddress(cfg.UniqueIdentityAddr))
	if err != nil {
		return nil, nil, nil, err
	}
	return registry, sources[cfg.DefaultNetwork], uidReader, nil
}

// buildAudit uses Kafka when brokers are configured, in-memory otherwise.
func buildAudit(cfg config.Config, log *slog.Logger) (audit.Publisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn("KAFKA_BROKERS not set; audit events stay in-process")
		return audit.NewMemoryPublisher(), func() {}, nil
	}
	pub, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		return nil, nil, err
	}
	return pub, pub.Close, nil
}

func parseSigners(raw []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raw))
	for _, s := range raw {
		if !common.IsHexAddress(s) {
			return nil, errors.New("invalid destroy signer address: " + s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}
