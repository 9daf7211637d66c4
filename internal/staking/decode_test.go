package staking

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func packUints(t *testing.T, values ...*big.Int) []byte {
	t.Helper()

	uint256, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)

	args := make(abi.Arguments, len(values))
	vals := make([]any, len(values))
	for i, v := range values {
		args[i] = abi.Argument{Type: uint256}
		vals[i] = v
	}

	data, err := args.Pack(vals...)
	require.NoError(t, err)

	return data
}

func packAddressAndUint(t *testing.T, a common.Address, v *big.Int) []byte {
	t.Helper()

	addressType, err := abi.NewType("address", "", nil)
	require.NoError(t, err)
	uint256, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)

	data, err := abi.Arguments{{Type: addressType}, {Type: uint256}}.Pack(a, v)
	require.NoError(t, err)

	return data
}

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	decoder, err := NewDecoder([]string{
		sigStaked, sigWithdrawn, sigEmergencyWithdrawn, sigRewardsClaimed,
		sigToken, "Mint(address,uint256)", sigTransfer, sigApproval,
	})
	require.NoError(t, err)

	big1e24, _ := new(big.Int).SetString("1000000000000000000000000", 10)

	base := types.Log{
		Address:     stakingContract,
		BlockNumber: 42,
		BlockHash:   common.HexToHash("0x42"),
		TxHash:      common.HexToHash("0xabc"),
		Index:       3,
	}
	meta := EventMeta{
		Contract:       stakingContract,
		BlockNumber:    42,
		BlockHash:      common.HexToHash("0x42"),
		BlockTimestamp: 1234,
		TxHash:         common.HexToHash("0xabc"),
		LogIndex:       3,
	}

	withLog := func(topics []common.Hash, data []byte) types.Log {
		l := base
		l.Topics = topics
		l.Data = data
		return l
	}

	tests := []struct {
		name string
		log  types.Log
		want Event
	}{
		{
			name: "staked with indexed user",
			log:  withLog([]common.Hash{topicOf(sigStaked), addrTopic(userAA)}, packUints(t, big.NewInt(100), big1e24)),
			want: StakedEvent{EventMeta: meta, User: userAA, Amount: big.NewInt(100), NewTotalStaked: big1e24},
		},
		{
			name: "withdrawn with user in data",
			log:  withLog([]common.Hash{topicOf(sigWithdrawn)}, packAddressAndUint(t, userBB, big.NewInt(30))),
			want: WithdrawnEvent{EventMeta: meta, User: userBB, Amount: big.NewInt(30)},
		},
		{
			name: "emergency withdrawn without amount",
			log:  withLog([]common.Hash{topicOf(sigEmergencyWithdrawn), addrTopic(userBB)}, nil),
			want: EmergencyWithdrawnEvent{EventMeta: meta, User: userBB},
		},
		{
			name: "rewards claimed",
			log:  withLog([]common.Hash{topicOf(sigRewardsClaimed), addrTopic(userAA)}, packUints(t, big.NewInt(7))),
			want: RewardsClaimedEvent{EventMeta: meta, User: userAA, Amount: big.NewInt(7)},
		},
		{
			name: "token mint",
			log:  withLog([]common.Hash{topicOf(sigToken), addrTopic(userAA)}, packUints(t, big.NewInt(9))),
			want: MintEvent{EventMeta: meta, User: userAA, Value: big.NewInt(9)},
		},
		{
			name: "Mint alias",
			log:  withLog([]common.Hash{topicOf("Mint(address,uint256)"), addrTopic(userAA)}, packUints(t, big.NewInt(9))),
			want: MintEvent{EventMeta: meta, User: userAA, Value: big.NewInt(9)},
		},
		{
			name: "transfer",
			log: withLog([]common.Hash{topicOf(sigTransfer), addrTopic(userAA), addrTopic(userBB)},
				packUints(t, big.NewInt(5))),
			want: TransferEvent{EventMeta: meta, From: userAA, To: userBB, Value: big.NewInt(5)},
		},
		{
			name: "approval",
			log: withLog([]common.Hash{topicOf(sigApproval), addrTopic(userAA), addrTopic(userCC)},
				packUints(t, big.NewInt(4))),
			want: ApprovalEvent{EventMeta: meta, Owner: userAA, Spender: userCC, Value: big.NewInt(4)},
		},
		{
			name: "staked missing new total",
			log:  withLog([]common.Hash{topicOf(sigStaked), addrTopic(userAA)}, packUints(t, big.NewInt(1))),
			want: StakedEvent{EventMeta: meta, User: userAA, Amount: big.NewInt(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := decoder.Decode(tt.log, 1234)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.want.Type(), got.Type())

			// the stored form decodes back to the same variant
			back, err := recordOf(got).Event()
			require.NoError(t, err)
			require.Equal(t, got, back)
		})
	}
}

func TestDecoder_DecodeErrors(t *testing.T) {
	t.Parallel()

	decoder, err := NewDecoder([]string{sigWithdrawn, sigTransfer})
	require.NoError(t, err)

	tests := []struct {
		name string
		log  types.Log
		want error
	}{
		{
			name: "no topics",
			log:  types.Log{},
			want: ErrUnknownEvent,
		},
		{
			name: "topic not configured",
			log:  types.Log{Topics: []common.Hash{topicOf(sigStaked)}},
			want: ErrUnknownEvent,
		},
		{
			name: "data not word aligned",
			log:  types.Log{Topics: []common.Hash{topicOf(sigWithdrawn), addrTopic(userAA)}, Data: []byte{1, 2, 3}},
			want: ErrMalformedEvent,
		},
		{
			name: "missing address",
			log:  types.Log{Topics: []common.Hash{topicOf(sigTransfer), addrTopic(userAA)}},
			want: ErrMalformedEvent,
		},
		{
			name: "too many words",
			log: types.Log{
				Topics: []common.Hash{topicOf(sigWithdrawn), addrTopic(userAA)},
				Data:   append(word(1), word(2)...),
			},
			want: ErrMalformedEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := decoder.Decode(tt.log, 0)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewDecoder_RejectsUnknownSignature(t *testing.T) {
	t.Parallel()

	_, err := NewDecoder([]string{sigStaked, "Paused(address)"})
	require.ErrorIs(t, err, ErrUnknownEvent)
	require.ErrorContains(t, err, "Paused(address)")
}

func TestCanonicalSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Transfer(address,address,uint256)", want: "Transfer(address,address,uint256)"},
		{in: " Transfer(address indexed from, address indexed to, uint256 value) ", want: "Transfer(address,address,uint256)"},
		{in: "Staked(address user, uint256, uint256 newTotalStaked)", want: "Staked(address,uint256,uint256)"},
		{in: "Paused()", want: "Paused()"},
		{in: "Transfer", wantErr: true},
		{in: "(address)", wantErr: true},
		{in: "Transfer(address,", wantErr: true},
		{in: "Transfer(address,,uint256)", wantErr: true},
		{in: "Transfer(address foo from)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := CanonicalSignature(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
