// Package accounts applies the money movements of the ledger to account
// balances: the reserve taken when a transfer is submitted and the
// settlement done when its block is mined.
package accounts

import (
	"errors"
	"fmt"

	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// MinerSharePercent is the part of every confirmed amount paid to the
// account that mined the block. The receiver gets the rest.
const MinerSharePercent = 10

// Querier represents the behavior required to look up stored accounts.
type Querier interface {
	QueryAccount(accountID database.AccountID) (database.Account, error)
}

// ErrPendingShort is returned when a sender's pending balance does not
// cover the amount being settled.
var ErrPendingShort = errors.New("pending balance below settled amount")

// EventHandler defines a function that is called when events
// occur while balances are changed.
type EventHandler func(v string, args ...any)

// Split divides a confirmed amount into the receiver and miner shares. The
// miner share is rounded down so no minor unit is lost.
func Split(amount database.Amount) (receiver database.Amount, miner database.Amount) {
	miner = amount * MinerSharePercent / 100
	return amount - miner, miner
}

// =============================================================================

// Sheet stages account changes on top of stored accounts. Nothing is
// written until the caller commits the accounts returned by Changed.
type Sheet struct {
	querier   Querier
	staged    map[database.AccountID]database.Account
	order     []database.AccountID
	evHandler EventHandler
}

// NewSheet constructs a sheet that reads accounts through the querier.
func NewSheet(querier Querier, evHandler EventHandler) *Sheet {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Sheet{
		querier:   querier,
		staged:    make(map[database.AccountID]database.Account),
		evHandler: ev,
	}
}

// Account returns the staged version of the account.
func (s *Sheet) Account(accountID database.AccountID) (database.Account, error) {
	if acct, exists := s.staged[accountID]; exists {
		return acct, nil
	}

	acct, err := s.querier.QueryAccount(accountID)
	if err != nil {
		return database.Account{}, fmt.Errorf("account %s: %w", accountID.Short(), err)
	}

	return acct, nil
}

// Reserve moves the amount from the account's available balance to its
// pending balance.
func (s *Sheet) Reserve(accountID database.AccountID, amount database.Amount) error {
	acct, err := s.Account(accountID)
	if err != nil {
		return err
	}

	if acct.Available < amount {
		return fmt.Errorf("insufficient funds, bal %s, needed %s", acct.Available, amount)
	}

	acct.Available -= amount
	acct.Pending += amount
	s.put(acct)

	s.evHandler("accounts: Reserve: acct[%s] amount[%s] available[%s] pending[%s]", accountID.Short(), amount, acct.Available, acct.Pending)

	return nil
}

// Settle applies a confirmed transaction. The sender's pending balance
// drops by the amount, the receiver gets 90 percent and the miner gets 10
// percent. The sender, receiver and miner may be the same account. A
// pending balance smaller than the amount fails with ErrPendingShort and
// stages nothing.
func (s *Sheet) Settle(tx database.Tx, minerID database.AccountID) error {
	amount := tx.Amount()
	toReceiver, toMiner := Split(amount)

	sender, err := s.Account(tx.Outputs.Sender)
	if err != nil {
		return err
	}

	if _, err := s.Account(tx.Outputs.Receiver); err != nil {
		return err
	}

	if _, err := s.Account(minerID); err != nil {
		return err
	}

	if sender.Pending < amount {
		return fmt.Errorf("acct %s pending %s amount %s: %w", sender.AccountID.Short(), sender.Pending, amount, ErrPendingShort)
	}

	sender.Pending -= amount
	s.put(sender)

	receiver, _ := s.Account(tx.Outputs.Receiver)
	receiver.Available += toReceiver
	s.put(receiver)

	miner, _ := s.Account(minerID)
	miner.Available += toMiner
	s.put(miner)

	s.evHandler("accounts: Settle: tx[%s] receiver[%s] miner[%s]", tx, toReceiver, toMiner)

	return nil
}

// Changed returns the staged accounts in the order they were first changed.
func (s *Sheet) Changed() []database.Account {
	accts := make([]database.Account, len(s.order))
	for i, accountID := range s.order {
		accts[i] = s.staged[accountID]
	}

	return accts
}

// put stages the account.
func (s *Sheet) put(acct database.Account) {
	if _, exists := s.staged[acct.AccountID]; !exists {
		s.order = append(s.order, acct.AccountID)
	}

	s.staged[acct.AccountID] = acct
}
