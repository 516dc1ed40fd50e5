package state

import (
	"context"
	"fmt"

	"github.com/isschain/blockchain/foundation/blockchain/accounts"
	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// MineNewBlock mines the oldest pending transaction into a new block and
// settles it in favor of the miner. The proof of work can't be interrupted,
// the context is only checked before it starts.
func (s *State) MineNewBlock(ctx context.Context, minerID database.AccountID) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started: miner[%s]", minerID.Short())
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return database.Block{}, err
	}

	if _, err := s.storage.QueryAccount(minerID); err != nil {
		return database.Block{}, s.accountErr("miner", err)
	}

	block, err := s.ledger.Mine()
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: settle: blk[%s]", block)

	// From here the in memory chain is ahead of storage. Any failure needs
	// the ledger rebuilt from what was last written.
	sheet := accounts.NewSheet(s.storage, accounts.EventHandler(s.evHandler))
	if err := sheet.Settle(*block.Transaction, minerID); err != nil {
		s.rebuild(err)
		return database.Block{}, fmt.Errorf("settling block %d: %w", block.Index, err)
	}

	blockData := database.NewBlockData(block)
	cs := database.ChangeSet{
		Block:    &blockData,
		Dequeue:  1,
		Accounts: sheet.Changed(),
	}
	if err := s.storage.Commit(cs); err != nil {
		s.rebuild(err)
		return database.Block{}, fmt.Errorf("writing block %d: %w", block.Index, err)
	}

	return block, nil
}
