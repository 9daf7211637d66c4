package staking

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrUnknownEvent is returned for a log whose topic0 is not a known staking or token event.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrMalformedEvent is returned for a log whose topics and data do not fit its signature.
	ErrMalformedEvent = errors.New("malformed event")
)

const wordSize = 32

type argKind int

const (
	argAddress argKind = iota
	argUint256
)

// eventSpec describes one known signature and how its arguments are assembled.
type eventSpec struct {
	signature string
	args      []argKind
	build     func(meta EventMeta, addrs []common.Address, amounts []*big.Int) Event
}

// knownEvents is keyed by canonical signature. token(...) and Mint(...) are
// both decoded as MintEvent.
var knownEvents = map[string]eventSpec{
	"Staked(address,uint256,uint256)": {
		args: []argKind{argAddress, argUint256, argUint256},
		build: func(m EventMeta, a []common.Address, v []*big.Int) Event {
			return StakedEvent{EventMeta: m, User: a[0], Amount: v[0], NewTotalStaked: v[1]}
		},
	},
	"Withdrawn(address,uint256)": {
		args: []argKind{argAddress, argUint256},
		build: func(m EventMeta, a []common.Address, v []*big.Int) Event {
			return WithdrawnEvent{EventMeta: m, User: a[0], Amount: v[0]}
		},
	},
	"EmergencyWithdrawn(address,uint256)": {
		args: []argKind{argAddress, argUint256},
		build: func(m EventMeta, a []common.Address, v []*big.Int) Event {
			return EmergencyWithdrawnEvent{EventMeta: m, User: a[0], Amount: v[0]}
		},
	},
	"RewardsClaimed(address,uint256)": {
		args: []argKind{argAddress, argUint256},
		build: func(m EventMeta, a []common.Address, v []*big.Int) Event {
			return RewardsClaimedEvent{EventMeta: m, User: a[0], Amount: v[0]}
		},
	},
	"token(address,uint256)": {
		args:  []argKind{argAddress, argUint256},
		build: buildMint,
	},
	"Mint(address,uint256)": {
		args:  []argKind{argAddress, argUint256},
		build: buildMint,
	},
	"Transfer(address,address,uint256)": {
		args: []argKind{argAddress, argAddress, argUint256},
		build: func(m EventMeta, a []common.Address, v []*big.Int) Event {
			return TransferEvent{EventMeta: m, From: a[0], To: a[1], Value: v[0]}
		},
	},
	"Approval(address,address,uint256)": {
		args: []argKind{argAddress, argAddress, argUint256},
		build: func(m EventMeta, a []common.Address, v []*big.Int) Event {
			return ApprovalEvent{EventMeta: m, Owner: a[0], Spender: a[1], Value: v[0]}
		},
	},
}

func buildMint(m EventMeta, a []common.Address, v []*big.Int) Event {
	return MintEvent{EventMeta: m, User: a[0], Value: v[0]}
}

// Decoder turns raw logs into Event variants.
type Decoder struct {
	byTopic map[common.Hash]eventSpec
}

// NewDecoder builds a decoder for the given signatures. Signatures may carry
// parameter names and the indexed keyword; every one must be a known event.
func NewDecoder(signatures []string) (*Decoder, error) {
	d := &Decoder{byTopic: make(map[common.Hash]eventSpec, len(signatures))}

	for _, sig := range signatures {
		canonical, err := CanonicalSignature(sig)
		if err != nil {
			return nil, err
		}

		def, ok := knownEvents[canonical]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, canonical)
		}
		def.signature = canonical

		d.byTopic[crypto.Keccak256Hash([]byte(canonical))] = def
	}

	return d, nil
}

// Topics returns the topic0 hashes the decoder understands.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.byTopic))
	for t := range d.byTopic {
		topics = append(topics, t)
	}
	return topics
}

// Decode maps a log to its event variant.
//
// Arguments are read in declaration order, first from the indexed topics and
// then from the data words, so both indexed and non-indexed address layouts
// decode the same way. A missing trailing amount word yields a nil amount; a
// missing address is malformed.
func (d *Decoder) Decode(log types.Log, blockTimestamp uint64) (Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: log without topics", ErrUnknownEvent)
	}

	def, ok := d.byTopic[log.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("%w: topic %s", ErrUnknownEvent, log.Topics[0].Hex())
	}

	if len(log.Data)%wordSize != 0 {
		return nil, fmt.Errorf("%w: %s data length %d is not a multiple of %d",
			ErrMalformedEvent, def.signature, len(log.Data), wordSize)
	}

	words := make([][]byte, 0, len(log.Topics)-1+len(log.Data)/wordSize)
	for _, t := range log.Topics[1:] {
		words = append(words, t.Bytes())
	}
	for i := 0; i < len(log.Data); i += wordSize {
		words = append(words, log.Data[i:i+wordSize])
	}

	if len(words) > len(def.args) {
		return nil, fmt.Errorf("%w: %s has %d words, expected at most %d",
			ErrMalformedEvent, def.signature, len(words), len(def.args))
	}

	var (
		addrs   []common.Address
		amounts []*big.Int
	)

	for i, kind := range def.args {
		switch kind {
		case argAddress:
			if i >= len(words) {
				return nil, fmt.Errorf("%w: %s is missing argument %d", ErrMalformedEvent, def.signature, i)
			}
			addrs = append(addrs, common.BytesToAddress(words[i]))
		case argUint256:
			if i >= len(words) {
				amounts = append(amounts, nil)
				continue
			}
			amounts = append(amounts, new(big.Int).SetBytes(words[i]))
		}
	}

	meta := EventMeta{
		Contract:       log.Address,
		BlockNumber:    log.BlockNumber,
		BlockHash:      log.BlockHash,
		BlockTimestamp: blockTimestamp,
		TxHash:         log.TxHash,
		LogIndex:       log.Index,
	}

	return def.build(meta, addrs, amounts), nil
}

// CanonicalSignature strips parameter names, the indexed keyword and spacing:
// "Transfer(address indexed from, address to, uint256 value)" becomes
// "Transfer(address,address,uint256)".
func CanonicalSignature(sig string) (string, error) {
	sig = strings.TrimSpace(sig)

	open := strings.Index(sig, "(")
	if open <= 0 {
		return "", fmt.Errorf("invalid signature %q: missing event name or opening parenthesis", sig)
	}
	if !strings.HasSuffix(sig, ")") {
		return "", fmt.Errorf("invalid signature %q: missing closing parenthesis", sig)
	}

	name := strings.TrimSpace(sig[:open])
	params := strings.TrimSpace(sig[open+1 : len(sig)-1])
	if params == "" {
		return name + "()", nil
	}

	parts := strings.Split(params, ",")
	argTypes := make([]string, 0, len(parts))
	for _, p := range parts {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			return "", fmt.Errorf("invalid signature %q: empty parameter", sig)
		}
		if len(fields) == 3 && fields[1] != "indexed" { //nolint:mnd
			return "", fmt.Errorf("invalid signature %q: expected 'indexed', got '%s'", sig, fields[1])
		}
		if len(fields) > 3 { //nolint:mnd
			return "", fmt.Errorf("invalid signature %q: too many parts in parameter '%s'", sig, p)
		}
		argTypes = append(argTypes, fields[0])
	}

	return name + "(" + strings.Join(argTypes, ",") + ")", nil
}

// Topic returns the topic0 hash of a signature.
func Topic(sig string) (common.Hash, error) {
	canonical, err := CanonicalSignature(sig)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(canonical)), nil
}
