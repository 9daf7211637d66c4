package staking

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ContractDetails is the aggregate of one monitored contract.
type ContractDetails struct {
	ID                      int64          `meddler:"id,pk" json:"-"`
	Address                 common.Address `meddler:"address,address" json:"address"`
	TotalMinted             *big.Int       `meddler:"total_minted,bigint" json:"total_minted"`
	TotalStakes             *big.Int       `meddler:"total_stakes,bigint" json:"total_stakes"`
	TotalRewardsGiven       *big.Int       `meddler:"total_rewards_given,bigint" json:"total_rewards_given"`
	TotalWithdrawn          *big.Int       `meddler:"total_withdrawn,bigint" json:"total_withdrawn"`
	TotalEmergencyWithdrawn *big.Int       `meddler:"total_emergency_withdrawn,bigint" json:"total_emergency_withdrawn"`
	UpdatedBlock            uint64         `meddler:"updated_block" json:"updated_block"`
}

func newContractDetails(address common.Address) *ContractDetails {
	return &ContractDetails{
		Address:                 address,
		TotalMinted:             new(big.Int),
		TotalStakes:             new(big.Int),
		TotalRewardsGiven:       new(big.Int),
		TotalWithdrawn:          new(big.Int),
		TotalEmergencyWithdrawn: new(big.Int),
	}
}

// UserTransactions is the aggregate of one user key. In compat accounting the
// key of token level events is the emitting contract, not a user.
type UserTransactions struct {
	ID                          int64          `meddler:"id,pk" json:"-"`
	Address                     common.Address `meddler:"address,address" json:"address"`
	TotalTransactions           uint64         `meddler:"total_transactions" json:"total_transactions"`
	TotalUserTransactions       uint64         `meddler:"total_user_transactions" json:"total_user_transactions"`
	TotalUserStake              *big.Int       `meddler:"total_user_stake,bigint" json:"total_user_stake"`
	TotalUserWithdrawn          *big.Int       `meddler:"total_user_withdrawn,bigint" json:"total_user_withdrawn"`
	TotalUserEmergencyWithdrawn *big.Int       `meddler:"total_user_emergency_withdrawn,bigint" json:"total_user_emergency_withdrawn"` //nolint:lll
	TotalUserRewards            *big.Int       `meddler:"total_user_rewards,bigint" json:"total_user_rewards"`
	TotalUserMinted             *big.Int       `meddler:"total_user_minted,bigint" json:"total_user_minted"`
	BlockNumber                 uint64         `meddler:"block_number" json:"block_number"`
	BlockTimestamp              uint64         `meddler:"block_timestamp" json:"block_timestamp"`
}

func newUserTransactions(address common.Address) *UserTransactions {
	return &UserTransactions{
		Address:                     address,
		TotalUserStake:              new(big.Int),
		TotalUserWithdrawn:          new(big.Int),
		TotalUserEmergencyWithdrawn: new(big.Int),
		TotalUserRewards:            new(big.Int),
		TotalUserMinted:             new(big.Int),
	}
}

// EventRecord is the immutable stored copy of one event.
type EventRecord struct {
	ID             int64           `meddler:"id,pk" json:"id"`
	EventType      EventType       `meddler:"event_type" json:"event_type"`
	Contract       common.Address  `meddler:"contract_address,address" json:"contract_address"`
	Participant    common.Address  `meddler:"participant,address" json:"participant"`
	Counterparty   *common.Address `meddler:"counterparty,address" json:"counterparty,omitempty"`
	Amount         *big.Int        `meddler:"amount,bigint" json:"amount"`
	NewTotalStaked *big.Int        `meddler:"new_total_staked,bigint" json:"new_total_staked,omitempty"`
	BlockNumber    uint64          `meddler:"block_number" json:"block_number"`
	BlockHash      common.Hash     `meddler:"block_hash,hash" json:"block_hash"`
	BlockTimestamp uint64          `meddler:"block_timestamp" json:"block_timestamp"`
	TxHash         common.Hash     `meddler:"tx_hash,hash" json:"tx_hash"`
	LogIndex       uint            `meddler:"log_index" json:"log_index"`
}

// recordOf flattens an event into its stored form.
func recordOf(ev Event) *EventRecord {
	m := ev.Meta()
	rec := &EventRecord{
		EventType:      ev.Type(),
		Contract:       m.Contract,
		BlockNumber:    m.BlockNumber,
		BlockHash:      m.BlockHash,
		BlockTimestamp: m.BlockTimestamp,
		TxHash:         m.TxHash,
		LogIndex:       m.LogIndex,
	}

	switch e := ev.(type) {
	case StakedEvent:
		rec.Participant, rec.Amount, rec.NewTotalStaked = e.User, e.Amount, e.NewTotalStaked
	case WithdrawnEvent:
		rec.Participant, rec.Amount = e.User, e.Amount
	case EmergencyWithdrawnEvent:
		rec.Participant, rec.Amount = e.User, e.Amount
	case RewardsClaimedEvent:
		rec.Participant, rec.Amount = e.User, e.Amount
	case MintEvent:
		rec.Participant, rec.Amount = e.User, e.Value
	case TransferEvent:
		to := e.To
		rec.Participant, rec.Counterparty, rec.Amount = e.From, &to, e.Value
	case ApprovalEvent:
		spender := e.Spender
		rec.Participant, rec.Counterparty, rec.Amount = e.Owner, &spender, e.Value
	}

	return rec
}

// Event rebuilds the decoded variant of a stored record.
func (r *EventRecord) Event() (Event, error) {
	m := EventMeta{
		Contract:       r.Contract,
		BlockNumber:    r.BlockNumber,
		BlockHash:      r.BlockHash,
		BlockTimestamp: r.BlockTimestamp,
		TxHash:         r.TxHash,
		LogIndex:       r.LogIndex,
	}

	var counterparty common.Address
	if r.Counterparty != nil {
		counterparty = *r.Counterparty
	}

	switch r.EventType {
	case EventStaked:
		return StakedEvent{EventMeta: m, User: r.Participant, Amount: r.Amount, NewTotalStaked: r.NewTotalStaked}, nil
	case EventWithdrawn:
		return WithdrawnEvent{EventMeta: m, User: r.Participant, Amount: r.Amount}, nil
	case EventEmergencyWithdrawn:
		return EmergencyWithdrawnEvent{EventMeta: m, User: r.Participant, Amount: r.Amount}, nil
	case EventRewardsClaimed:
		return RewardsClaimedEvent{EventMeta: m, User: r.Participant, Amount: r.Amount}, nil
	case EventMint:
		return MintEvent{EventMeta: m, User: r.Participant, Value: r.Amount}, nil
	case EventTransfer:
		return TransferEvent{EventMeta: m, From: r.Participant, To: counterparty, Value: r.Amount}, nil
	case EventApproval:
		return ApprovalEvent{EventMeta: m, Owner: r.Participant, Spender: counterparty, Value: r.Amount}, nil
	default:
		return nil, fmt.Errorf("%w: stored event type %q", ErrUnknownEvent, r.EventType)
	}
}
