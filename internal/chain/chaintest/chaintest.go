// Package chaintest provides in-memory chain fakes for tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"uidtrust/internal/chain"
)

// Source is an in-memory BlockSource. Tests script the chain by setting the
// latest block and the timestamps of historical blocks.
type Source struct {
	mu     sync.Mutex
	latest chain.Block
	blocks map[uint64]uint64

	LatestCalls int
	ByNumCalls  int
}

func NewSource() *Source {
	return &Source{blocks: make(map[uint64]uint64)}
}

// SetLatest sets the chain head and records its timestamp.
func (s *Source) SetLatest(number, timestamp uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = chain.Block{Number: number, Timestamp: timestamp}
	s.blocks[number] = timestamp
}

// SetBlock records a historical block timestamp.
func (s *Source) SetBlock(number, timestamp uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[number] = timestamp
}

func (s *Source) LatestBlock(context.Context) (chain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LatestCalls++
	return s.latest, nil
}

func (s *Source) BlockByNumber(_ context.Context, number uint64) (chain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ByNumCalls++
	ts, ok := s.blocks[number]
	if !ok {
		return chain.Block{}, fmt.Errorf("block %d not found", number)
	}
	return chain.Block{Number: number, Timestamp: ts}, nil
}

// Balances is an in-memory UniqueIdentityReader keyed by holder and UID type.
type Balances struct {
	mu       sync.Mutex
	balances map[string]*big.Int
}

func NewBalances() *Balances {
	return &Balances{balances: make(map[string]*big.Int)}
}

// Set records the balance of holder for uidType.
func (b *Balances) Set(holder common.Address, uidType int64, balance int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[balanceKey(holder, big.NewInt(uidType))] = big.NewInt(balance)
}

func (b *Balances) BalanceOf(_ context.Context, holder common.Address, uidType *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[balanceKey(holder, uidType)]; ok {
		return bal, nil
	}
	return big.NewInt(0), nil
}

func balanceKey(holder common.Address, uidType *big.Int) string {
	return holder.Hex() + ":" + uidType.String()
}
