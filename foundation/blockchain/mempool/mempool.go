// Package mempool maintains the queue of transactions waiting to be mined.
package mempool

import (
	"errors"
	"sync"

	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// ErrEmpty is returned when the head is requested from an empty pool.
var ErrEmpty = errors.New("mempool is empty")

// Mempool represents a first in, first out queue of transactions. The
// transaction id is a secondary key used to replace an entry in place.
type Mempool struct {
	pool []database.Tx
	mu   sync.RWMutex
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the tail of the pool. A transaction already
// in the pool with the same id is replaced and keeps its position.
func (mp *Mempool) Upsert(tx database.Tx) (int, error) {
	if tx.TxID == "" {
		return 0, errors.New("transaction id missing")
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	for i := range mp.pool {
		if mp.pool[i].TxID == tx.TxID {
			mp.pool[i] = tx
			return len(mp.pool), nil
		}
	}

	mp.pool = append(mp.pool, tx)

	return len(mp.pool), nil
}

// Contains reports whether a transaction with the id is in the pool.
func (mp *Mempool) Contains(txID string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for _, tx := range mp.pool {
		if tx.TxID == txID {
			return true
		}
	}

	return false
}

// Head returns the oldest transaction without removing it.
func (mp *Mempool) Head() (database.Tx, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if len(mp.pool) == 0 {
		return database.Tx{}, ErrEmpty
	}

	return mp.pool[0], nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(txID string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for i := range mp.pool {
		if mp.pool[i].TxID == txID {
			mp.pool = append(mp.pool[:i:i], mp.pool[i+1:]...)
			return
		}
	}
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// Copy returns a copy of the pool in queue order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Tx, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}
