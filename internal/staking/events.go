package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventType names a decoded event variant. The value doubles as the
// event_type column of stored event records.
type EventType string

const (
	EventStaked             EventType = "Staked"
	EventWithdrawn          EventType = "Withdrawn"
	EventEmergencyWithdrawn EventType = "EmergencyWithdrawn"
	EventRewardsClaimed     EventType = "RewardsClaimed"
	EventMint               EventType = "Mint"
	EventTransfer           EventType = "Transfer"
	EventApproval           EventType = "Approval"
)

// AllEventTypes lists every variant in a stable order.
var AllEventTypes = []EventType{
	EventStaked,
	EventWithdrawn,
	EventEmergencyWithdrawn,
	EventRewardsClaimed,
	EventMint,
	EventTransfer,
	EventApproval,
}

// EventMeta is the position of an event on chain.
type EventMeta struct {
	Contract       common.Address
	BlockNumber    uint64
	BlockHash      common.Hash
	BlockTimestamp uint64
	TxHash         common.Hash
	LogIndex       uint
}

// Meta returns the event position.
func (m EventMeta) Meta() EventMeta { return m }

// Event is one decoded staking or token event. The set of variants is closed:
// StakedEvent, WithdrawnEvent, EmergencyWithdrawnEvent, RewardsClaimedEvent,
// MintEvent, TransferEvent and ApprovalEvent.
//
// Amount fields are nil when the log did not carry them.
type Event interface {
	Meta() EventMeta
	Type() EventType

	sealed()
}

type StakedEvent struct {
	EventMeta
	User           common.Address
	Amount         *big.Int
	NewTotalStaked *big.Int
}

type WithdrawnEvent struct {
	EventMeta
	User   common.Address
	Amount *big.Int
}

type EmergencyWithdrawnEvent struct {
	EventMeta
	User   common.Address
	Amount *big.Int
}

type RewardsClaimedEvent struct {
	EventMeta
	User   common.Address
	Amount *big.Int
}

// MintEvent is the staking contract's token(user, value) event.
type MintEvent struct {
	EventMeta
	User  common.Address
	Value *big.Int
}

type TransferEvent struct {
	EventMeta
	From  common.Address
	To    common.Address
	Value *big.Int
}

type ApprovalEvent struct {
	EventMeta
	Owner   common.Address
	Spender common.Address
	Value   *big.Int
}

func (StakedEvent) Type() EventType             { return EventStaked }
func (WithdrawnEvent) Type() EventType          { return EventWithdrawn }
func (EmergencyWithdrawnEvent) Type() EventType { return EventEmergencyWithdrawn }
func (RewardsClaimedEvent) Type() EventType     { return EventRewardsClaimed }
func (MintEvent) Type() EventType               { return EventMint }
func (TransferEvent) Type() EventType           { return EventTransfer }
func (ApprovalEvent) Type() EventType           { return EventApproval }

func (StakedEvent) sealed()             {}
func (WithdrawnEvent) sealed()          {}
func (EmergencyWithdrawnEvent) sealed() {}
func (RewardsClaimedEvent) sealed()     {}
func (MintEvent) sealed()               {}
func (TransferEvent) sealed()           {}
func (ApprovalEvent) sealed()           {}
