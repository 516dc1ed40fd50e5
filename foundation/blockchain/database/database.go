// Package database defines the records that make up the blockchain and the
// behavior required of any package providing durable storage for them.
package database

import (
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrOutOfOrder is returned when a block is written that does not extend
// the stored chain by exactly one.
var ErrOutOfOrder = errors.New("block is out of order")

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the blockchain,
// the accounts and the pending transactions.
type Storage interface {
	ForEach() Iterator
	Pending() ([]Tx, error)
	Accounts() ([]Account, error)
	QueryAccount(accountID AccountID) (Account, error)
	Commit(cs ChangeSet) error
	Reset() error
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// ChangeSet groups every write produced by one ledger operation. Storage
// implementations must apply a change set completely or not at all.
type ChangeSet struct {
	Block    *BlockData // Appended to the block store.
	Dequeue  int        // Number of pending transactions removed from the head.
	Enqueue  []Tx       // Appended to the tail of the pending store.
	Accounts []Account  // Upserted by account id.
}

// IsEmpty reports whether the change set carries no writes.
func (cs ChangeSet) IsEmpty() bool {
	return cs.Block == nil && cs.Dequeue == 0 && len(cs.Enqueue) == 0 && len(cs.Accounts) == 0
}

// =============================================================================

// ReadAllBlocks walks the storage iterator and returns every stored block
// record in insertion order.
func ReadAllBlocks(strg Storage) ([]BlockData, error) {
	var blocks []BlockData

	iter := strg.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, blockData)
	}

	return blocks, nil
}
