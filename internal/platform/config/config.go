package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Read once at startup so main
// stays lean and services receive plain values.
type Config struct {
	Addr string

	// Chain access. Origins map request origins to named networks; each
	// network needs an RPC URL.
	ChainID            int64
	NetworkRPCURLs     map[string]string
	DefaultNetwork     string
	OriginNetworks     map[string]string
	UniqueIdentityAddr string

	// Relayer addresses allowed to sign destruction requests.
	DestroyUserSigners []string

	// Environment selects the collection prefix: "" in production,
	// "test_" anywhere else. Prefixes are never mixed in one deployment.
	CollectionPrefix string

	PostgresURL string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	SignatureMaxAge      time.Duration
	DestructionSigMaxAge time.Duration
	ShutdownGrace        time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                 envOr("UIDTRUST_ADDR", ":8080"),
		ChainID:              envInt64("CHAIN_ID", 1),
		DefaultNetwork:       envOr("UIDTRUST_NETWORK", "mainnet"),
		UniqueIdentityAddr:   os.Getenv("UNIQUE_IDENTITY_ADDRESS"),
		PostgresURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		AuditTopic:           envOr("AUDIT_TOPIC", "uidtrust.audit.compliance"),
		SignatureMaxAge:      24 * time.Hour,
		DestructionSigMaxAge: 5 * time.Minute,
		ShutdownGrace:        10 * time.Second,
	}

	cfg.NetworkRPCURLs = map[string]string{}
	if url := os.Getenv("MAINNET_RPC_URL"); url != "" {
		cfg.NetworkRPCURLs["mainnet"] = url
	}
	if url := os.Getenv("LOCAL_RPC_URL"); url != "" {
		cfg.NetworkRPCURLs["local"] = url
	}

	// Local origins resolve to the local network so development signatures
	// are checked against the chain the frontend actually talks to. Only
	// mapped when a local RPC is configured; otherwise those origins fall
	// through to the default network.
	cfg.OriginNetworks = map[string]string{}
	if _, ok := cfg.NetworkRPCURLs["local"]; ok {
		cfg.OriginNetworks["http://localhost:3000"] = "local"
		cfg.OriginNetworks["http://localhost:3001"] = "local"
	}

	if signers := os.Getenv("DESTROY_USER_SIGNERS"); signers != "" {
		cfg.DestroyUserSigners = splitAndTrim(signers)
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}

	if os.Getenv("ENVIRONMENT") != "production" {
		cfg.CollectionPrefix = "test_"
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
