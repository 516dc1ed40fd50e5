// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isschain/blockchain/business/sys/validate"
	v1 "github.com/isschain/blockchain/business/web/v1"
	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/ledger"
	"github.com/isschain/blockchain/foundation/blockchain/state"
	"github.com/isschain/blockchain/foundation/events"
	"github.com/isschain/blockchain/foundation/nameservice"
	"github.com/isschain/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Accounts returns the current balances for all accounts or the one
// specified account.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var blkAccounts []database.Account

	switch id := web.Param(r, "account"); id {
	case "":
		accts, err := h.State.RetrieveAccounts()
		if err != nil {
			return err
		}
		blkAccounts = accts

	default:
		accountID, err := database.ToAccountID(id)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		acct, err := h.State.QueryAccount(accountID)
		if err != nil {
			if errors.Is(err, state.ErrUnknownAccount) {
				return v1.NewRequestError(err, http.StatusNotFound)
			}
			return err
		}
		blkAccounts = []database.Account{acct}
	}

	acts := make([]account, len(blkAccounts))
	for i, acct := range blkAccounts {
		acts[i] = toAccount(acct, h.NS)
	}

	resp := accounts{
		LatestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted: h.State.QueryPendingLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterAccount creates a new account with the genesis starting balance.
func (h Handlers) RegisterAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var reg register
	if err := web.Decode(r, &reg); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(reg); err != nil {
		return err
	}

	acct, err := h.State.RegisterAccount(reg.Name, reg.AttestationKey)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
	h.NS.Add(acct)

	h.Log.Infow("register account", "traceid", v.TraceID, "account", acct.AccountID, "name", acct.Name, "number", acct.Number)

	return web.Respond(ctx, w, toAccount(acct, h.NS), http.StatusCreated)
}

// SubmitTransaction adds a new signed transfer to the pending pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signed database.SignedTransfer
	if err := web.Decode(r, &signed); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(signed); err != nil {
		return err
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "from", signed.From, "to", signed.To, "amount", signed.Amount)

	t, err := h.State.SubmitTransaction(signed)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrUnknownAccount):
			return v1.NewRequestError(err, http.StatusNotFound)
		case errors.Is(err, state.ErrDuplicateTx):
			return v1.NewRequestError(err, http.StatusConflict)
		case errors.Is(err, state.ErrBadSignature):
			return v1.NewRequestError(err, http.StatusUnauthorized)
		default:
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
	}

	return web.Respond(ctx, w, toTx(t, h.NS), http.StatusAccepted)
}

// Pending returns the set of uncommitted transactions, optionally only the
// ones sent or received by the specified account.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := database.AccountID(web.Param(r, "account"))

	pending := h.State.RetrievePending()

	trans := make([]tx, 0, len(pending))
	for _, t := range pending {
		if acct != "" && acct != t.Outputs.Sender && acct != t.Outputs.Receiver {
			continue
		}
		trans = append(trans, toTx(t, h.NS))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// BlocksByAccount returns the blocks, newest first, holding a transaction
// for the specified account. No account returns the whole chain.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if id := web.Param(r, "account"); id != "" {
		var err error
		if accountID, err = database.ToAccountID(id); err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
	}

	dbBlocks := h.State.QueryBlocksByAccount(accountID)

	blocks := make([]block, len(dbBlocks))
	for i, b := range dbBlocks {
		blocks[len(dbBlocks)-1-i] = toBlock(b, h.NS)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// LatestBlock returns the tail of the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlock(h.State.RetrieveLatestBlock(), h.NS), http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid index: %w", err), http.StatusBadRequest)
	}

	b, err := h.State.QueryBlock(index)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return v1.NewRequestError(fmt.Errorf("block %d not found", index), http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, toBlock(b, h.NS), http.StatusOK)
}

// Mine mines the oldest pending transaction in favor of the specified
// account.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	minerID, err := database.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("mine block", "traceid", v.TraceID, "miner", minerID)

	b, err := h.State.MineNewBlock(ctx, minerID)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrUnknownAccount):
			return v1.NewRequestError(err, http.StatusNotFound)
		case errors.Is(err, ledger.ErrEmptyPool):
			return v1.NewRequestError(err, http.StatusConflict)
		default:
			return err
		}
	}

	return web.Respond(ctx, w, toBlock(b, h.NS), http.StatusCreated)
}
