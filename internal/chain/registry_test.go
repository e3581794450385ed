package chain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uidtrust/internal/chain"
	"uidtrust/internal/chain/chaintest"
)

func TestRegistryOriginSelection(t *testing.T) {
	mainnet := chaintest.NewSource()
	mainnet.SetLatest(1000, 1700000000)
	local := chaintest.NewSource()
	local.SetLatest(42, 1600000000)

	reg, err := chain.NewRegistry(
		map[string]chain.BlockSource{"mainnet": mainnet, "local": local},
		map[string]string{"http://localhost:3000": "local"},
		"mainnet",
	)
	require.NoError(t, err)

	block, err := reg.ForOrigin("http://localhost:3000").LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), block.Number)

	block, err = reg.ForOrigin("https://app.example.com").LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), block.Number)

	block, err = reg.ForOrigin("").LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), block.Number)
}

func TestRegistryRejectsUnwiredNetworks(t *testing.T) {
	sources := map[string]chain.BlockSource{"mainnet": chaintest.NewSource()}

	_, err := chain.NewRegistry(sources, nil, "testnet")
	assert.Error(t, err)

	_, err = chain.NewRegistry(sources, map[string]string{"http://localhost:3000": "local"}, "mainnet")
	assert.Error(t, err)
}
