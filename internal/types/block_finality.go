package types

import (
	"fmt"
	"slices"
	"strings"
)

// BlockFinality selects which chain head the fetcher treats as final.
type BlockFinality string

const (
	// FinalityFinalized follows the "finalized" tag. Blocks below it never reorg.
	FinalityFinalized BlockFinality = "finalized"

	// FinalitySafe follows the "safe" tag.
	FinalitySafe BlockFinality = "safe"

	// FinalityLatest follows the latest block minus the configured lag.
	FinalityLatest BlockFinality = "latest"
)

var finalities = []BlockFinality{FinalityFinalized, FinalitySafe, FinalityLatest}

func (f BlockFinality) String() string {
	return string(f)
}

// IsValid reports whether f is one of the known finality modes.
func (f BlockFinality) IsValid() bool {
	return slices.Contains(finalities, f)
}

// Reorgable reports whether indexed blocks can still be replaced under f,
// which is when checkpoint verification can actually detect something.
func (f BlockFinality) Reorgable() bool {
	return f == FinalitySafe || f == FinalityLatest
}

// ParseBlockFinality parses s, ignoring case and surrounding whitespace.
func ParseBlockFinality(s string) (BlockFinality, error) {
	f := BlockFinality(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid block finality %q (must be one of: finalized, safe, latest)", s)
	}
	return f, nil
}
