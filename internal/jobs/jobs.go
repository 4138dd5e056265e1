// Package jobs holds the background jobs run after a contract deployment:
// token/NFT classification and explorer verification.
package jobs

import (
	"time"

	"github.com/Mohsinsiddi/hhbridge/internal/queue"
)

// Job names.
const (
	NamePopulateAssetRecords = "populate_asset_records"
	NameVerifyContract       = "verify_contract"
)

// DefaultRetryDelay is how long a failed verification waits before retrying.
const DefaultRetryDelay = 60 * time.Second

// PopulateAssetRecords classifies a contract and creates its Token or
// NftCollection row.
type PopulateAssetRecords struct {
	ContractID int64 `json:"contract_id"`
}

func (PopulateAssetRecords) JobName() string { return NamePopulateAssetRecords }

// VerifyContract verifies a contract on its network's explorer.
type VerifyContract struct {
	ContractID      int64             `json:"contract_id"`
	Network         string            `json:"network"`
	ConstructorArgs []string          `json:"constructor_args,omitempty"`
	Env             map[string]string `json:"env,omitempty"`
	Tries           int               `json:"tries,omitempty"`
}

func (VerifyContract) JobName() string { return NameVerifyContract }

// MaxAttempts bounds how often the job is released.
func (j VerifyContract) MaxAttempts() int { return j.Tries }

// Register binds the job handlers on q.
func Register(q *queue.Queue, populator *AssetPopulator, verifier *ContractVerifier) {
	q.Register(NamePopulateAssetRecords, queue.HandlerFor(populator.Handle))
	q.Register(NameVerifyContract, queue.HandlerFor(verifier.Handle))
}
