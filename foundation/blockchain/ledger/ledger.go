// Package ledger owns the ordered chain of blocks and the queue of pending
// transactions. It implements genesis creation, proof of work mining, block
// validation and chain reconstruction from storage.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/mempool"
)

// Set of error variables for ledger operations.
var (
	ErrChainContinuity = errors.New("block does not extend the chain tail")
	ErrInvalidProof    = errors.New("invalid proof of work")
	ErrEmptyPool       = errors.New("no pending transactions to mine")
	ErrEmptyChain      = errors.New("chain has no genesis block")
	ErrGenesisExists   = errors.New("genesis block already exists")
	ErrBadDifficulty   = errors.New("difficulty out of range")
)

// MaxDifficulty is the length of a hex encoded block hash. No hash can have
// more leading zeros than that.
const MaxDifficulty = 64

// ReconstructionError is returned when a stored block record can't be
// turned into a block. No part of the stored chain is loaded.
type ReconstructionError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (re *ReconstructionError) Error() string {
	return fmt.Sprintf("reconstruct record[%d]: %s", re.Index, re.Err)
}

// Unwrap provides access to the underlying error.
func (re *ReconstructionError) Unwrap() error {
	return re.Err
}

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// =============================================================================

// Ledger manages the in memory chain and pending pool.
type Ledger struct {
	mu         sync.RWMutex
	difficulty int
	chain      []database.Block
	pool       *mempool.Mempool
	evHandler  EventHandler
}

// New constructs an empty ledger. The difficulty is the number of leading
// zero characters a block hash needs and must be between 0 and
// MaxDifficulty.
func New(difficulty int, evHandler EventHandler) (*Ledger, error) {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return nil, fmt.Errorf("difficulty %d: %w", difficulty, ErrBadDifficulty)
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	l := Ledger{
		difficulty: difficulty,
		pool:       mempool.New(),
		evHandler:  ev,
	}

	return &l, nil
}

// Difficulty returns the number of leading zeros required of a block hash.
func (l *Ledger) Difficulty() int {
	return l.difficulty
}

// CreateGenesis appends block 0. Genesis carries no transaction and its hash
// is computed directly without proof of work.
func (l *Ledger) CreateGenesis(timeStamp time.Time) (database.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.chain) != 0 {
		return database.Block{}, ErrGenesisExists
	}

	block := database.NewBlock(0, nil, uint64(timeStamp.UTC().UnixMilli()), database.GenesisPrevHash)
	block.Hash = block.ComputeHash()

	l.chain = append(l.chain, block)

	l.evHandler("ledger: CreateGenesis: blk[%s]", block)

	return block, nil
}

// AddNewTransaction appends the transaction to the tail of the pending pool.
// Signature and balance checks belong to the caller.
func (l *Ledger) AddNewTransaction(tx database.Tx) error {
	n, err := l.pool.Upsert(tx)
	if err != nil {
		return err
	}

	l.evHandler("ledger: AddNewTransaction: tx[%s] pending[%d]", tx, n)

	return nil
}

// Mine takes the transaction at the head of the pending pool, builds the
// next block for it, runs the proof of work and appends the block. The
// transaction leaves the pool only when the block is appended.
func (l *Ledger) Mine() (database.Block, error) {
	l.mu.RLock()
	if len(l.chain) == 0 {
		l.mu.RUnlock()
		return database.Block{}, ErrEmptyChain
	}
	last := l.chain[len(l.chain)-1]
	l.mu.RUnlock()

	tx, err := l.pool.Head()
	if err != nil {
		return database.Block{}, ErrEmptyPool
	}

	timeStamp := uint64(time.Now().UTC().UnixMilli())
	if timeStamp < last.TimeStamp {
		timeStamp = last.TimeStamp
	}

	block := database.NewBlock(last.Index+1, &tx, timeStamp, last.Hash)

	l.evHandler("ledger: Mine: MINING: started: blk[%d] tx[%s]", block.Index, tx)

	start := time.Now()
	proof := l.ProofOfWork(&block)

	l.evHandler("ledger: Mine: MINING: solved: blk[%d] nonce[%d] duration[%v]", block.Index, block.Nonce, time.Since(start))

	if err := l.AddBlock(&block, proof); err != nil {
		return database.Block{}, err
	}

	l.pool.Delete(tx.TxID)

	return block, nil
}

// ProofOfWork searches for the nonce that makes the block hash start with
// the required number of zeros. The nonce starts at zero and goes up by one.
// There is no upper bound on the search.
func (l *Ledger) ProofOfWork(block *database.Block) string {
	block.Nonce = 0

	hash := block.ComputeHash()
	for !isHashSolved(l.difficulty, hash) {
		block.Nonce++
		hash = block.ComputeHash()
	}

	return hash
}

// AddBlock validates the block against the chain tail and the proof. When
// both pass, the proof becomes the block's hash and the block is appended.
// On failure the chain is not touched.
func (l *Ledger) AddBlock(block *database.Block, proof string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.chain) == 0 {
		return ErrEmptyChain
	}

	last := l.chain[len(l.chain)-1]
	if block.PrevHash != last.Hash || block.Index != last.Index+1 {
		l.evHandler("ledger: AddBlock: REJECTED: blk[%d] prev[%s] tail[%s]", block.Index, block.PrevHash, last)
		return ErrChainContinuity
	}

	if !l.IsValidProof(*block, proof) {
		l.evHandler("ledger: AddBlock: REJECTED: blk[%d] invalid proof", block.Index)
		return ErrInvalidProof
	}

	block.Hash = proof
	l.chain = append(l.chain, *block)

	l.evHandler("ledger: AddBlock: blk[%s]", block)

	return nil
}

// IsValidProof reports whether the digest meets the difficulty and is the
// hash of the block as it stands.
func (l *Ledger) IsValidProof(block database.Block, digest string) bool {
	return isHashSolved(l.difficulty, digest) && digest == block.ComputeHash()
}

// ReadBlocks walks the storage iterator and returns every stored block
// record in insertion order. A record that can't be read fails with a
// ReconstructionError carrying its position.
func ReadBlocks(strg database.Storage) ([]database.BlockData, error) {
	var records []database.BlockData

	iter := strg.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, &ReconstructionError{Index: len(records), Err: err}
		}

		records = append(records, blockData)
	}

	return records, nil
}

// Reconstruct replaces the in memory chain with the stored block records.
// Stored hashes are taken as they are. A record that is not a well formed
// block fails the whole call and leaves the current chain in place.
func (l *Ledger) Reconstruct(records []database.BlockData) error {
	chain := make([]database.Block, 0, len(records))

	for i, record := range records {
		if record.Index != uint64(i) {
			return &ReconstructionError{Index: i, Err: fmt.Errorf("index %d out of sequence", record.Index)}
		}

		block, err := database.ToBlock(record)
		if err != nil {
			return &ReconstructionError{Index: i, Err: err}
		}

		chain = append(chain, block)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.chain = chain

	l.evHandler("ledger: Reconstruct: blocks[%d]", len(chain))

	return nil
}

// LoadPending replaces the pending pool with the transactions in order.
func (l *Ledger) LoadPending(txs []database.Tx) error {
	l.pool.Truncate()

	for _, tx := range txs {
		if _, err := l.pool.Upsert(tx); err != nil {
			return err
		}
	}

	return nil
}

// ValidateChain fully verifies the chain: every hash recomputes, every
// non-genesis hash meets the difficulty and every block links to the one
// before it.
func (l *Ledger) ValidateChain() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i, block := range l.chain {
		if block.Hash != block.ComputeHash() {
			return fmt.Errorf("block %d: hash does not match contents", i)
		}

		if i == 0 {
			if block.PrevHash != database.GenesisPrevHash {
				return fmt.Errorf("block 0: previous hash must be %q", database.GenesisPrevHash)
			}
			continue
		}

		if !isHashSolved(l.difficulty, block.Hash) {
			return fmt.Errorf("block %d: %w", i, ErrInvalidProof)
		}

		if block.PrevHash != l.chain[i-1].Hash {
			return fmt.Errorf("block %d: %w", i, ErrChainContinuity)
		}
	}

	return nil
}

// =============================================================================

// Blocks returns a copy of the chain in order.
func (l *Ledger) Blocks() []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cpy := make([]database.Block, len(l.chain))
	copy(cpy, l.chain)

	return cpy
}

// Block returns the block at the specified index.
func (l *Ledger) Block(index uint64) (database.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index >= uint64(len(l.chain)) {
		return database.Block{}, database.ErrNotFound
	}

	return l.chain[index], nil
}

// LatestBlock returns the tail of the chain.
func (l *Ledger) LatestBlock() (database.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.chain) == 0 {
		return database.Block{}, ErrEmptyChain
	}

	return l.chain[len(l.chain)-1], nil
}

// Length returns the number of blocks in the chain.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain)
}

// Pending returns a copy of the pending pool in queue order.
func (l *Ledger) Pending() []database.Tx {
	return l.pool.Copy()
}

// PendingCount returns the number of pending transactions.
func (l *Ledger) PendingCount() int {
	return l.pool.Count()
}

// IsPending reports whether the transaction id is waiting to be mined.
func (l *Ledger) IsPending(txID string) bool {
	return l.pool.Contains(txID)
}

// HasTransaction reports whether the transaction id is already in a block.
func (l *Ledger) HasTransaction(txID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, block := range l.chain {
		if block.Transaction != nil && block.Transaction.TxID == txID {
			return true
		}
	}

	return false
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty int, hash string) bool {
	if len(hash) < difficulty {
		return false
	}

	return strings.HasPrefix(hash, strings.Repeat("0", difficulty))
}
