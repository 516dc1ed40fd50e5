// Package private maintains the group of handlers for node operator access.
package private

import (
	"context"
	"net/http"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/state"
	"github.com/isschain/blockchain/foundation/nameservice"
	"github.com/isschain/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveLatestBlock()

	accts, err := h.State.RetrieveAccounts()
	if err != nil {
		return err
	}

	beneficiary := h.State.RetrieveBeneficiary()
	var beneficiaryName string
	if beneficiary != "" {
		beneficiaryName = h.NS.Lookup(beneficiary)
	}

	status := struct {
		LatestBlockIndex uint64             `json:"latest_block_index"`
		LatestBlockHash  string             `json:"latest_block_hash"`
		Difficulty       int                `json:"difficulty"`
		Uncommitted      int                `json:"uncommitted"`
		Accounts         int                `json:"accounts"`
		Beneficiary      database.AccountID `json:"beneficiary,omitempty"`
		BeneficiaryName  string             `json:"beneficiary_name,omitempty"`
	}{
		LatestBlockIndex: latest.Index,
		LatestBlockHash:  latest.Hash,
		Difficulty:       h.State.RetrieveGenesis().Difficulty,
		Uncommitted:      h.State.QueryPendingLength(),
		Accounts:         len(accts),
		Beneficiary:      beneficiary,
		BeneficiaryName:  beneficiaryName,
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Validate runs a full verification of the chain held by the node.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Valid  bool   `json:"valid"`
		Blocks int    `json:"blocks"`
		Error  string `json:"error,omitempty"`
	}{
		Valid:  true,
		Blocks: len(h.State.RetrieveBlocks()),
	}

	if err := h.State.ValidateChain(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining asks the background worker to mine the pending pool.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker != nil {
		h.State.Worker.SignalStartMining()
	}

	resp := struct {
		Status  string `json:"status"`
		Pending int    `json:"pending"`
	}{
		Status:  "mining signaled",
		Pending: h.State.QueryPendingLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}
