package reorg

import "fmt"

// ErrReorgDetected is returned when the chain no longer contains a block the indexer already consumed.
// Everything from FirstReorgBlock onwards must be rolled back and fetched again.
type ErrReorgDetected struct {
	FirstReorgBlock uint64
	Details         string
}

func (e *ErrReorgDetected) Error() string {
	return fmt.Sprintf("reorg detected at block %d: %s", e.FirstReorgBlock, e.Details)
}

// NewReorgError creates a new ErrReorgDetected.
func NewReorgError(firstReorgBlock uint64, details string) error {
	return &ErrReorgDetected{
		FirstReorgBlock: firstReorgBlock,
		Details:         details,
	}
}
