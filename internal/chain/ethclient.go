package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// RPCSource reads block headers from a JSON-RPC endpoint.
type RPCSource struct {
	client *ethclient.Client
}

// DialSource connects to an RPC endpoint.
func DialSource(ctx context.Context, rawurl string) (*RPCSource, error) {
	client, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawurl, err)
	}
	return &RPCSource{client: client}, nil
}

// NewRPCSource wraps an existing client, mainly for tests against simulated
// backends.
func NewRPCSource(client *ethclient.Client) *RPCSource {
	return &RPCSource{client: client}
}

func (s *RPCSource) LatestBlock(ctx context.Context) (Block, error) {
	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return Block{}, fmt.Errorf("latest header: %w", err)
	}
	return Block{Number: header.Number.Uint64(), Timestamp: header.Time}, nil
}

func (s *RPCSource) BlockByNumber(ctx context.Context, number uint64) (Block, error) {
	header, err := s.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return Block{}, fmt.Errorf("header %d: %w", number, err)
	}
	return Block{Number: header.Number.Uint64(), Timestamp: header.Time}, nil
}

// balanceOfABI is the single ERC-1155 read the mint pre-flight needs.
const balanceOfABI = `[{"constant":true,"inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

// ERC1155Reader reads UID balances from the UniqueIdentity contract.
type ERC1155Reader struct {
	client   *ethclient.Client
	contract common.Address
	abi      abi.ABI
}

// NewERC1155Reader builds a reader bound to one deployed contract.
func NewERC1155Reader(client *ethclient.Client, contract common.Address) (*ERC1155Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(balanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("parse balanceOf ABI: %w", err)
	}
	return &ERC1155Reader{client: client, contract: contract, abi: parsed}, nil
}

// Contract returns the bound contract address; the presigned mint message
// embeds it.
func (r *ERC1155Reader) Contract() common.Address { return r.contract }

func (r *ERC1155Reader) BalanceOf(ctx context.Context, holder common.Address, uidType *big.Int) (*big.Int, error) {
	data, err := r.abi.Pack("balanceOf", holder, uidType)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	results, err := r.abi.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return balance, nil
}
