// Package api provides REST API handlers for StakingIndexor
// @title StakingIndexor API
// @version 1.0
// @description REST API for querying staking aggregates and events indexed by StakingIndexor
// @contact.name API Support
// @contact.url https://github.com/goran-ethernal/StakingIndexor
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
//
//go:generate swag init -g docs.go -o docs --parseDependency
package api
