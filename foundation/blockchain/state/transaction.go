package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/isschain/blockchain/foundation/blockchain/accounts"
	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// SubmitTransaction accepts a signed transfer from a wallet. The sender's
// funds are reserved and the transaction joins the tail of the pending
// pool once both are durably written.
func (s *State) SubmitTransaction(signed database.SignedTransfer) (database.Tx, error) {
	if err := signed.Validate(); err != nil {
		return database.Tx{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sheet := accounts.NewSheet(s.storage, accounts.EventHandler(s.evHandler))

	sender, err := sheet.Account(signed.From)
	if err != nil {
		return database.Tx{}, s.accountErr("sender", err)
	}

	if _, err := sheet.Account(signed.To); err != nil {
		return database.Tx{}, s.accountErr("receiver", err)
	}

	if sender.AttestationKey != "" {
		signer, err := signed.Signer()
		if err != nil {
			return database.Tx{}, fmt.Errorf("%w: %s", ErrBadSignature, err)
		}
		if !strings.EqualFold(signer, sender.AttestationKey) {
			return database.Tx{}, ErrBadSignature
		}
	}

	tx, err := database.NewTx(signed, sender.Available)
	if err != nil {
		return database.Tx{}, err
	}

	if s.ledger.IsPending(tx.TxID) || s.ledger.HasTransaction(tx.TxID) {
		return database.Tx{}, ErrDuplicateTx
	}

	if err := sheet.Reserve(signed.From, signed.Amount); err != nil {
		return database.Tx{}, err
	}

	cs := database.ChangeSet{
		Enqueue:  []database.Tx{tx},
		Accounts: sheet.Changed(),
	}
	if err := s.storage.Commit(cs); err != nil {
		return database.Tx{}, fmt.Errorf("writing transaction: %w", err)
	}

	if err := s.ledger.AddNewTransaction(tx); err != nil {
		s.rebuild(err)
		return database.Tx{}, err
	}

	s.evHandler("state: SubmitTransaction: tx[%s] pending[%d]", tx, s.ledger.PendingCount())

	s.signalWorker()

	return tx, nil
}

// accountErr maps a lookup failure to the error returned to callers.
func (s *State) accountErr(role string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%s: %w", role, ErrUnknownAccount)
	}
	return err
}
