package common

const (
	ComponentDownloader         = "downloader"
	ComponentLogFetcher         = "log-fetcher"
	ComponentSyncManager        = "sync-manager"
	ComponentReorgDetector      = "reorg-detector"
	ComponentMaintenance        = "maintenance"
	ComponentIndexerCoordinator = "indexer-coordinator"
	ComponentStakingIndexer     = "staking-indexer"
	ComponentEntityStore        = "entity-store"
	ComponentContractReader     = "contract-reader"
	ComponentAPI                = "api"
	ComponentMetrics            = "metrics"
)

var AllComponents = map[string]struct{}{
	ComponentDownloader:         {},
	ComponentLogFetcher:         {},
	ComponentSyncManager:        {},
	ComponentReorgDetector:      {},
	ComponentMaintenance:        {},
	ComponentIndexerCoordinator: {},
	ComponentStakingIndexer:     {},
	ComponentEntityStore:        {},
	ComponentContractReader:     {},
	ComponentAPI:                {},
	ComponentMetrics:            {},
}
