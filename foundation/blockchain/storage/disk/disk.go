// Package disk implements the ability to read and write blocks, accounts and
// pending transactions to disk using a pebble key/value store.
package disk

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// Key prefixes keep the record types in their own ranges of the key space.
const (
	prefixBlocks   = "blk:"
	prefixPending  = "pnd:"
	prefixAccounts = "act:"
	prefixMeta     = "met:"
)

// keyPendingSeq holds the sequence number for the next pending transaction.
var keyPendingSeq = []byte(prefixMeta + "pending_seq")

// Disk represents the storage implementation for reading and storing the
// blockchain in pebble. This implements the database.Storage interface.
type Disk struct {
	db *pebble.DB
	mu sync.Mutex
}

// New opens or creates the pebble database at the specified path.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return NewWithOptions(dbPath, &pebble.Options{})
}

// NewReadOnly opens an existing pebble database for reading only. This is
// used by tooling that inspects the store while the node is down.
func NewReadOnly(dbPath string) (*Disk, error) {
	return NewWithOptions(dbPath, &pebble.Options{ReadOnly: true})
}

// NewWithOptions opens the pebble database with the provided options. Tests
// use this to run against an in memory file system.
func NewWithOptions(dbPath string, opts *pebble.Options) (*Disk, error) {
	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Disk{db: db}, nil
}

// Close closes the database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Commit writes the change set in a single synced batch. The batch is
// only built after every check passes.
func (d *Disk) Commit(cs database.ChangeSet) error {
	if cs.IsEmpty() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	batch := d.db.NewBatch()
	defer batch.Close()

	if cs.Block != nil {
		if err := d.stageBlock(batch, *cs.Block); err != nil {
			return err
		}
	}

	if cs.Dequeue > 0 {
		if err := d.stageDequeue(batch, cs.Dequeue); err != nil {
			return err
		}
	}

	if len(cs.Enqueue) > 0 {
		if err := d.stageEnqueue(batch, cs.Enqueue); err != nil {
			return err
		}
	}

	for _, acct := range cs.Accounts {
		data, err := json.Marshal(acct)
		if err != nil {
			return err
		}

		if err := batch.Set(accountKey(acct.AccountID), data, nil); err != nil {
			return err
		}
	}

	return batch.Commit(pebble.Sync)
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by number.
func (d *Disk) GetBlock(num uint64) (database.BlockData, error) {
	var blockData database.BlockData
	if err := d.get(blockKey(num), &blockData); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 0.
func (d *Disk) ForEach() database.Iterator {
	prefix := []byte(prefixBlocks)

	iter, err := d.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})

	return &diskIterator{iter: iter, err: err}
}

// Pending returns the pending transactions in queue order.
func (d *Disk) Pending() ([]database.Tx, error) {
	var txs []database.Tx

	fn := func(value []byte) error {
		var tx database.Tx
		if err := json.Unmarshal(value, &tx); err != nil {
			return err
		}
		txs = append(txs, tx)
		return nil
	}

	if err := d.scan(prefixPending, fn); err != nil {
		return nil, err
	}

	return txs, nil
}

// Accounts returns all the accounts in registration order.
func (d *Disk) Accounts() ([]database.Account, error) {
	var accts []database.Account

	fn := func(value []byte) error {
		var acct database.Account
		if err := json.Unmarshal(value, &acct); err != nil {
			return err
		}
		accts = append(accts, acct)
		return nil
	}

	if err := d.scan(prefixAccounts, fn); err != nil {
		return nil, err
	}

	sort.Sort(database.ByNumber(accts))

	return accts, nil
}

// QueryAccount returns the specified account.
func (d *Disk) QueryAccount(accountID database.AccountID) (database.Account, error) {
	var acct database.Account
	if err := d.get(accountKey(accountID), &acct); err != nil {
		return database.Account{}, err
	}

	return acct, nil
}

// Reset will clear out the blockchain, accounts and pending transactions.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch := d.db.NewBatch()
	defer batch.Close()

	for _, prefix := range []string{prefixBlocks, prefixPending, prefixAccounts, prefixMeta} {
		p := []byte(prefix)
		if err := batch.DeleteRange(p, prefixUpperBound(p), nil); err != nil {
			return err
		}
	}

	return batch.Commit(pebble.Sync)
}

// =============================================================================

// stageBlock adds the block to the batch after checking it extends the
// stored chain by exactly one.
func (d *Disk) stageBlock(batch *pebble.Batch, blockData database.BlockData) error {
	exists, err := d.has(blockKey(blockData.Index))
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: block %d already stored", database.ErrOutOfOrder, blockData.Index)
	}

	if blockData.Index > 0 {
		exists, err := d.has(blockKey(blockData.Index - 1))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: block %d missing", database.ErrOutOfOrder, blockData.Index-1)
		}
	}

	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return batch.Set(blockKey(blockData.Index), data, nil)
}

// stageDequeue adds the removal of the oldest n pending transactions.
func (d *Disk) stageDequeue(batch *pebble.Batch, n int) error {
	prefix := []byte(prefixPending)

	iter, err := d.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	removed := 0
	for valid := iter.First(); valid && removed < n; valid = iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			return err
		}
		removed++
	}

	if removed != n {
		return fmt.Errorf("dequeue %d of %d pending transactions", n, removed)
	}

	return iter.Error()
}

// stageEnqueue adds the transactions to the tail of the pending queue.
func (d *Disk) stageEnqueue(batch *pebble.Batch, txs []database.Tx) error {
	seq, err := d.pendingSeq()
	if err != nil {
		return err
	}

	for _, tx := range txs {
		data, err := json.Marshal(tx)
		if err != nil {
			return err
		}

		if err := batch.Set(pendingKey(seq), data, nil); err != nil {
			return err
		}
		seq++
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)

	return batch.Set(keyPendingSeq, buf[:], nil)
}

// pendingSeq returns the next pending sequence number.
func (d *Disk) pendingSeq() (uint64, error) {
	value, closer, err := d.db.Get(keyPendingSeq)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	defer closer.Close()

	if len(value) != 8 {
		return 0, errors.New("corrupt pending sequence")
	}

	return binary.BigEndian.Uint64(value), nil
}

// get reads and decodes the value stored under the key.
func (d *Disk) get(key []byte, v any) error {
	value, closer, err := d.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return database.ErrNotFound
		}
		return err
	}
	defer closer.Close()

	return json.Unmarshal(value, v)
}

// has reports whether the key exists.
func (d *Disk) has(key []byte) (bool, error) {
	_, closer, err := d.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	closer.Close()

	return true, nil
}

// scan calls the function for every value under the prefix in key order.
func (d *Disk) scan(prefix string, fn func(value []byte) error) error {
	p := []byte(prefix)

	iter, err := d.db.NewIter(&pebble.IterOptions{
		LowerBound: p,
		UpperBound: prefixUpperBound(p),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for valid := iter.First(); valid; valid = iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}

	return iter.Error()
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the database
// Iterator interface.
type diskIterator struct {
	iter    *pebble.Iterator
	err     error
	started bool
	eoc     bool
}

// Next retrieves the next block from disk.
func (di *diskIterator) Next() (database.BlockData, error) {
	if di.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	if di.err != nil {
		return database.BlockData{}, di.err
	}

	var valid bool
	switch di.started {
	case false:
		valid = di.iter.First()
		di.started = true
	default:
		valid = di.iter.Next()
	}

	if !valid {
		di.eoc = true
		if err := di.iter.Error(); err != nil {
			di.eoc = false
			di.err = err
		}
		di.iter.Close()
		return database.BlockData{}, di.Err()
	}

	var blockData database.BlockData
	if err := json.Unmarshal(di.iter.Value(), &blockData); err != nil {
		di.err = fmt.Errorf("decoding block: %w", err)
		di.iter.Close()
		return database.BlockData{}, di.err
	}

	return blockData, nil
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}

// Err returns the error that stopped the iteration, or the end of chain
// error when the iteration completed.
func (di *diskIterator) Err() error {
	if di.err != nil {
		return di.err
	}
	return errors.New("end of chain")
}

// =============================================================================

// blockKey forms the key for the specified block. The number is zero padded
// so keys sort in block order.
func blockKey(num uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixBlocks, num))
}

// pendingKey forms the key for the specified pending sequence number.
func pendingKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixPending, seq))
}

// accountKey forms the key for the specified account.
func accountKey(accountID database.AccountID) []byte {
	return []byte(prefixAccounts + string(accountID))
}

// prefixUpperBound returns the upper bound for prefix iteration.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)

	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}

	return nil
}
