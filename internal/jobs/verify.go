package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/queue"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
)

// Verifier submits a contract to a block explorer.
type Verifier interface {
	Verify(ctx context.Context, address, network string, args []string, env map[string]string) (string, error)
}

// ContractVerifier runs VerifyContract jobs.
type ContractVerifier struct {
	store      store.Store
	verifier   Verifier
	retryDelay time.Duration
	log        *zap.SugaredLogger
}

// NewContractVerifier creates a ContractVerifier. A non-positive retryDelay
// uses DefaultRetryDelay.
func NewContractVerifier(s store.Store, v Verifier, retryDelay time.Duration, log *zap.SugaredLogger) *ContractVerifier {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ContractVerifier{store: s, verifier: v, retryDelay: retryDelay, log: log}
}

// Handle verifies the contract and records the outcome under meta.verify.
// A failed verification is released for another attempt.
func (v *ContractVerifier) Handle(ctx context.Context, job VerifyContract) error {
	c, err := v.store.Contract(ctx, job.ContractID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	out, verr := v.verifier.Verify(ctx, c.Address, job.Network, job.ConstructorArgs, job.Env)
	if c.Meta == nil {
		c.Meta = store.Meta{}
	}
	if verr == nil {
		c.Meta.SetVerify(store.VerifyRecord{Status: store.VerifyOK, Output: out})
	} else {
		c.Meta.SetVerify(store.VerifyRecord{Status: store.VerifyError, Error: verr.Error()})
	}
	if err := v.store.UpdateContract(ctx, c); err != nil {
		return fmt.Errorf("saving verification result: %w", err)
	}

	if verr != nil {
		v.log.Warnw("verification failed", "contract", c.ID, "network", job.Network, "err", verr)
		return queue.Release(v.retryDelay, verr)
	}
	v.log.Infow("contract verified", "contract", c.ID, "network", job.Network)
	return nil
}
