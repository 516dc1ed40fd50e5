package worker

import (
	"errors"
	"time"

	"github.com/isschain/blockchain/foundation/blockchain/ledger"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines the oldest pending transaction into a new block
// in favor of the node's beneficiary account.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	beneficiaryID := w.state.RetrieveBeneficiary()
	if beneficiaryID == "" {
		w.evHandler("worker: runMiningOperation: MINING: no beneficiary configured")
		return
	}

	length := w.state.QueryPendingLength()
	if length == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no transactions to mine")
		return
	}

	// After running a mining operation, check if a new operation should
	// be signaled again.
	defer func() {
		length := w.state.QueryPendingLength()
		if length > 0 && !w.isShutdown() {
			w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", length)
			w.SignalStartMining()
		}
	}()

	start := time.Now()
	block, err := w.state.MineNewBlock(w.ctx, beneficiaryID)
	duration := time.Since(start)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrEmptyPool):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: no transactions in pool")
		case w.ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCELLED: by shutdown")
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: SOLVED: blk[%s]", block)
}
