// Package memory implements the ability to read and write blocks, accounts
// and pending transactions to memory.
package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// Memory represents the storage implementation for reading and storing
// the blockchain in memory. This implements the database.Storage
// interface.
type Memory struct {
	mu       sync.RWMutex
	blocks   []database.BlockData
	pending  []database.Tx
	accounts map[database.AccountID]database.Account
}

// New constructs an Memory value for use.
func New() (*Memory, error) {
	m := Memory{
		accounts: make(map[database.AccountID]database.Account),
	}

	return &m, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Commit applies the change set. Everything is checked before anything
// is changed so a rejected change set leaves the storage as it was.
func (m *Memory) Commit(cs database.ChangeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cs.Block != nil && cs.Block.Index != uint64(len(m.blocks)) {
		return fmt.Errorf("%w: got %d, exp %d", database.ErrOutOfOrder, cs.Block.Index, len(m.blocks))
	}

	if cs.Dequeue > len(m.pending) {
		return fmt.Errorf("dequeue %d of %d pending transactions", cs.Dequeue, len(m.pending))
	}

	if cs.Block != nil {
		m.blocks = append(m.blocks, *cs.Block)
	}

	pending := make([]database.Tx, 0, len(m.pending)-cs.Dequeue+len(cs.Enqueue))
	pending = append(pending, m.pending[cs.Dequeue:]...)
	m.pending = append(pending, cs.Enqueue...)

	for _, acct := range cs.Accounts {
		m.accounts[acct.AccountID] = acct
	}

	return nil
}

// GetBlock searches the blockchain to locate and return the contents of
// the specified block by number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num >= uint64(len(m.blocks)) {
		return database.BlockData{}, database.ErrNotFound
	}

	return m.blocks[num], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 0.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Pending returns the pending transactions in queue order.
func (m *Memory) Pending() ([]database.Tx, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cpy := make([]database.Tx, len(m.pending))
	copy(cpy, m.pending)

	return cpy, nil
}

// Accounts returns all the accounts in registration order.
func (m *Memory) Accounts() ([]database.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accts := make([]database.Account, 0, len(m.accounts))
	for _, acct := range m.accounts {
		accts = append(accts, acct)
	}
	sort.Sort(database.ByNumber(accts))

	return accts, nil
}

// QueryAccount returns the specified account.
func (m *Memory) QueryAccount(accountID database.AccountID) (database.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, exists := m.accounts[accountID]
	if !exists {
		return database.Account{}, database.ErrNotFound
	}

	return acct, nil
}

// Reset will clear out everything in storage.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	m.pending = nil
	m.accounts = make(map[database.AccountID]database.Account)

	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through and reading blocks in memory. This implements the database
// Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	mi.current++

	return blockData, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
