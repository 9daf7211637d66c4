package indexer

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	"github.com/goran-ethernal/StakingIndexor/pkg/rpc"
)

// Factory creates an indexer from its configuration. The client is used for
// contract reads; it may be nil for indexers that never read chain state.
type Factory func(cfg config.IndexerConfig, client rpc.EthClient, log *logger.Logger) (Indexer, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register registers an indexer factory with the given type name.
// It is typically called from init() of the indexer package.
// The type name is case-insensitive and stored in lowercase.
func Register(indexerType string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	name := strings.ToLower(indexerType)
	if _, exists := registry[name]; exists {
		logger.GetDefaultLogger().Infof("indexer type %s already registered, overwriting", name)
	}

	registry[name] = factory
}

// GetFactory returns the factory for the given indexer type, or nil.
func GetFactory(indexerType string) Factory {
	mu.RLock()
	defer mu.RUnlock()

	return registry[strings.ToLower(indexerType)]
}

// ListRegistered returns the registered indexer types in sorted order.
func ListRegistered() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.Sort(types)

	return types
}

// Create creates a new indexer instance using the registered factory.
func Create(indexerType string, cfg config.IndexerConfig, client rpc.EthClient, log *logger.Logger) (Indexer, error) {
	factory := GetFactory(indexerType)
	if factory == nil {
		return nil, fmt.Errorf("unknown indexer type: %s (registered types: %v)", indexerType, ListRegistered())
	}

	return factory(cfg, client, log)
}
