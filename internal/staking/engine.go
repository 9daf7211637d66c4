package staking

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
)

// Engine folds events into the aggregates held by a Store.
//
// Events must be applied one at a time in chain order; every handler is a
// read-modify-write of the records it touches.
type Engine struct {
	consistent bool
	log        *logger.Logger
}

// NewEngine creates an engine for the given accounting mode ("compat" or "consistent").
func NewEngine(accounting string, log *logger.Logger) (*Engine, error) {
	switch accounting {
	case config.AccountingCompat, "":
		return &Engine{log: log}, nil
	case config.AccountingConsistent:
		return &Engine{consistent: true, log: log}, nil
	default:
		return nil, fmt.Errorf("unknown accounting mode %q", accounting)
	}
}

// Apply folds ev into the aggregates and stores its event record. An event
// whose (tx hash, log index) is already stored changes nothing and reports false.
func (e *Engine) Apply(ctx context.Context, store Store, ev Event) (bool, error) {
	m := ev.Meta()

	seen, err := store.HasEvent(ctx, m.TxHash, m.LogIndex)
	if err != nil {
		return false, err
	}
	if seen {
		e.log.Debugw("skipping already applied event",
			"type", ev.Type(),
			"tx_hash", m.TxHash.Hex(),
			"log_index", m.LogIndex,
		)
		return false, nil
	}

	if err := e.fold(ctx, store, ev); err != nil {
		return false, err
	}

	if err := store.InsertEvent(ctx, recordOf(ev)); err != nil {
		return false, err
	}

	return true, nil
}

// fold applies the aggregate effect of ev without touching event records.
func (e *Engine) fold(ctx context.Context, store Store, ev Event) error {
	m := ev.Meta()

	switch ev := ev.(type) {
	case StakedEvent:
		if err := e.updateContract(ctx, store, m, func(cd *ContractDetails) {
			if ev.NewTotalStaked != nil {
				cd.TotalStakes = new(big.Int).Set(ev.NewTotalStaked)
			}
		}); err != nil {
			return err
		}
		return e.updateUser(ctx, store, m, ev.User, false, func(ut *UserTransactions) {
			add(ut.TotalUserStake, ev.Amount)
		})

	case WithdrawnEvent:
		if err := e.updateContract(ctx, store, m, func(cd *ContractDetails) {
			add(cd.TotalWithdrawn, ev.Amount)
		}); err != nil {
			return err
		}
		return e.updateUser(ctx, store, m, ev.User, false, func(ut *UserTransactions) {
			add(ut.TotalUserWithdrawn, ev.Amount)
		})

	case EmergencyWithdrawnEvent:
		if err := e.updateContract(ctx, store, m, func(cd *ContractDetails) {
			add(cd.TotalEmergencyWithdrawn, ev.Amount)
		}); err != nil {
			return err
		}
		return e.updateUser(ctx, store, m, ev.User, false, func(ut *UserTransactions) {
			add(ut.TotalUserEmergencyWithdrawn, ev.Amount)
		})

	case RewardsClaimedEvent:
		if err := e.updateContract(ctx, store, m, func(cd *ContractDetails) {
			add(cd.TotalMinted, ev.Amount)
		}); err != nil {
			return err
		}
		return e.updateUser(ctx, store, m, ev.User, false, func(ut *UserTransactions) {
			add(ut.TotalUserRewards, ev.Amount)
		})

	case MintEvent:
		if err := e.updateContract(ctx, store, m, func(cd *ContractDetails) {
			add(cd.TotalMinted, ev.Value)
		}); err != nil {
			return err
		}
		if e.consistent {
			return e.updateUser(ctx, store, m, ev.User, false, func(ut *UserTransactions) {
				add(ut.TotalUserMinted, ev.Value)
			})
		}
		// compat: keyed by the contract and credited as a withdrawal
		return e.updateUser(ctx, store, m, m.Contract, false, func(ut *UserTransactions) {
			add(ut.TotalUserWithdrawn, ev.Value)
		})

	case TransferEvent:
		return e.updateUser(ctx, store, m, e.tokenKey(m, ev.From), true, nil)

	case ApprovalEvent:
		return e.updateUser(ctx, store, m, e.tokenKey(m, ev.Owner), true, nil)

	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// tokenKey returns the user key of a token level event.
func (e *Engine) tokenKey(m EventMeta, participant common.Address) common.Address {
	if e.consistent {
		return participant
	}
	return m.Contract
}

func (e *Engine) updateContract(
	ctx context.Context,
	store Store,
	m EventMeta,
	apply func(*ContractDetails),
) error {
	cd, err := store.LoadOrCreateContractDetails(ctx, m.Contract, m.BlockNumber)
	if err != nil {
		return err
	}

	apply(cd)
	cd.UpdatedBlock = m.BlockNumber

	return store.SaveContractDetails(ctx, cd)
}

// updateUser loads the aggregate of key, bumps its counters and applies the delta.
// Staking level events bump only totalUserTransactions in compat accounting;
// token level events and consistent accounting bump both counters.
func (e *Engine) updateUser(
	ctx context.Context,
	store Store,
	m EventMeta,
	key common.Address,
	tokenLevel bool,
	apply func(*UserTransactions),
) error {
	ut, err := store.LoadOrCreateUserTransactions(ctx, key)
	if err != nil {
		return err
	}

	ut.TotalUserTransactions++
	if tokenLevel || e.consistent {
		ut.TotalTransactions++
	}

	if apply != nil {
		apply(ut)
	}

	ut.BlockNumber = m.BlockNumber
	ut.BlockTimestamp = m.BlockTimestamp

	return store.SaveUserTransactions(ctx, ut)
}

// add accumulates delta into total in place. A nil delta is a missing amount and adds nothing.
func add(total, delta *big.Int) {
	if delta == nil {
		return
	}
	total.Add(total, delta)
}
