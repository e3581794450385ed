package chain_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uidtrust/internal/chain"
	"uidtrust/internal/chain/chaintest"
)

func TestCachedSourcePassesThroughWithoutRedis(t *testing.T) {
	src := chaintest.NewSource()
	src.SetLatest(200, 1700000200)
	src.SetBlock(100, 1700000100)

	cached := chain.NewCachedSource("mainnet", src, nil, slog.Default())

	latest, err := cached.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chain.Block{Number: 200, Timestamp: 1700000200}, latest)

	block, err := cached.BlockByNumber(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, chain.Block{Number: 100, Timestamp: 1700000100}, block)

	// Latest is never cached: a second read hits the source again.
	src.SetLatest(201, 1700000212)
	latest, err = cached.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(201), latest.Number)
}

func TestCachedSourcePropagatesMissingBlock(t *testing.T) {
	cached := chain.NewCachedSource("mainnet", chaintest.NewSource(), nil, slog.Default())
	_, err := cached.BlockByNumber(context.Background(), 999)
	assert.Error(t, err)
}
