// Package chain provides read-only access to the blockchains the trust layer
// verifies signatures against: block headers for signature freshness, and
// UniqueIdentity (ERC-1155) balances for mint pre-flight checks.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Block is the subset of a block header signature freshness depends on.
type Block struct {
	Number    uint64
	Timestamp uint64
}

// BlockSource answers "get block by number or tag" for one network.
type BlockSource interface {
	LatestBlock(ctx context.Context) (Block, error)
	BlockByNumber(ctx context.Context, number uint64) (Block, error)
}

// UniqueIdentityReader reads on-chain UID credential balances.
type UniqueIdentityReader interface {
	BalanceOf(ctx context.Context, holder common.Address, uidType *big.Int) (*big.Int, error)
}
