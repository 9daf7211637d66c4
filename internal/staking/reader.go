package staking

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/pkg/rpc"
)

// ContractReader reads authoritative totals from the staking contract.
// A nil block reads the latest state.
type ContractReader interface {
	TotalStaked(ctx context.Context, contract common.Address, block *big.Int) (*big.Int, error)
	TotalRewards(ctx context.Context, contract common.Address, block *big.Int) (*big.Int, error)
}

const stakingReadABI = `[
	{"type":"function","name":"totalStaked","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getTotalRewards","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

var _ ContractReader = (*RPCContractReader)(nil)

// RPCContractReader issues eth_call reads through an EthClient.
type RPCContractReader struct {
	client  rpc.EthClient
	abi     abi.ABI
	timeout time.Duration
	log     *logger.Logger
}

// NewRPCContractReader creates a reader whose calls are bounded by timeout; zero means no bound.
func NewRPCContractReader(client rpc.EthClient, timeout time.Duration, log *logger.Logger) (*RPCContractReader, error) {
	parsed, err := abi.JSON(strings.NewReader(stakingReadABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse staking ABI: %w", err)
	}

	return &RPCContractReader{
		client:  client,
		abi:     parsed,
		timeout: timeout,
		log:     log,
	}, nil
}

// TotalStaked calls totalStaked().
func (r *RPCContractReader) TotalStaked(ctx context.Context, contract common.Address, block *big.Int) (*big.Int, error) {
	return r.callUint256(ctx, contract, "totalStaked", block)
}

// TotalRewards calls getTotalRewards().
func (r *RPCContractReader) TotalRewards(ctx context.Context, contract common.Address, block *big.Int) (*big.Int, error) {
	return r.callUint256(ctx, contract, "getTotalRewards", block)
}

func (r *RPCContractReader) callUint256(
	ctx context.Context,
	contract common.Address,
	method string,
	block *big.Int,
) (*big.Int, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	data, err := r.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, block)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	values, err := r.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, values[0])
	}

	r.log.Debugf("%s of %s at %v = %s", method, contract.Hex(), block, v)

	return v, nil
}
