// Package state is the core API for the blockchain and implements all the
// business rules and processing. It owns the ledger and the storage and
// serializes every change to them.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/genesis"
	"github.com/isschain/blockchain/foundation/blockchain/ledger"
)

// Set of error variables for state operations.
var (
	ErrUnknownAccount = errors.New("unknown account")
	ErrDuplicateTx    = errors.New("transaction already submitted")
	ErrBadSignature   = errors.New("signature does not match the account's attestation key")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	BeneficiaryID database.AccountID
	Genesis       genesis.Genesis
	Storage       database.Storage
	EvHandler     EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	beneficiaryID database.AccountID
	evHandler     EventHandler

	genesis genesis.Genesis
	storage database.Storage
	ledger  *ledger.Ledger

	Worker Worker
}

// New constructs a new blockchain for data management. The chain and the
// pending pool are rebuilt from storage. An empty storage gets a genesis
// block.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	ldgr, err := ledger.New(cfg.Genesis.Difficulty, ledger.EventHandler(ev))
	if err != nil {
		return nil, err
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		evHandler:     ev,
		genesis:       cfg.Genesis,
		storage:       cfg.Storage,
		ledger:        ldgr,
	}

	if err := state.load(); err != nil {
		return nil, err
	}

	if state.ledger.Length() == 0 {
		if err := state.createGenesis(); err != nil {
			return nil, err
		}
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the database file is properly closed.
	return s.storage.Close()
}

// Reload throws away the in memory chain and pending pool and rebuilds
// them from storage.
func (s *State) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// =============================================================================

// load reconstructs the ledger from what is in storage.
func (s *State) load() error {
	records, err := ledger.ReadBlocks(s.storage)
	if err != nil {
		return fmt.Errorf("reading blocks: %w", err)
	}

	if err := s.ledger.Reconstruct(records); err != nil {
		return err
	}

	pending, err := s.storage.Pending()
	if err != nil {
		return fmt.Errorf("reading pending transactions: %w", err)
	}

	if err := s.ledger.LoadPending(pending); err != nil {
		return err
	}

	s.evHandler("state: load: blocks[%d] pending[%d]", len(records), len(pending))

	return nil
}

// createGenesis creates the first block and writes it to storage.
func (s *State) createGenesis() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := s.genesis.Date
	if date.IsZero() {
		date = time.Now()
	}

	block, err := s.ledger.CreateGenesis(date)
	if err != nil {
		return err
	}

	blockData := database.NewBlockData(block)
	if err := s.storage.Commit(database.ChangeSet{Block: &blockData}); err != nil {
		s.rebuild(err)
		return fmt.Errorf("writing genesis: %w", err)
	}

	return nil
}

// rebuild rebuilds the ledger from storage after a failed write. The
// caller must hold the lock.
func (s *State) rebuild(cause error) {
	s.evHandler("state: rebuild: rebuilding from storage: %s", cause)

	if err := s.load(); err != nil {
		s.evHandler("state: rebuild: ERROR: %s", err)
	}
}

// signalWorker asks the worker to start mining if one is registered.
func (s *State) signalWorker() {
	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
}
