package state

import (
	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveBeneficiary returns the account credited by background mining.
func (s *State) RetrieveBeneficiary() database.AccountID {
	return s.beneficiaryID
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	block, _ := s.ledger.LatestBlock()
	return block
}

// RetrieveBlocks returns a copy of the whole chain in order.
func (s *State) RetrieveBlocks() []database.Block {
	return s.ledger.Blocks()
}

// RetrievePending returns a copy of the pending transactions in queue order.
func (s *State) RetrievePending() []database.Tx {
	return s.ledger.Pending()
}

// RetrieveAccounts returns all the accounts in registration order.
func (s *State) RetrieveAccounts() ([]database.Account, error) {
	return s.storage.Accounts()
}

// QueryPendingLength returns the number of pending transactions.
func (s *State) QueryPendingLength() int {
	return s.ledger.PendingCount()
}

// QueryBlock returns the block at the specified index.
func (s *State) QueryBlock(index uint64) (database.Block, error) {
	return s.ledger.Block(index)
}

// QueryAccount returns the specified account.
func (s *State) QueryAccount(accountID database.AccountID) (database.Account, error) {
	acct, err := s.storage.QueryAccount(accountID)
	if err != nil {
		return database.Account{}, s.accountErr("account", err)
	}

	return acct, nil
}

// QueryBlocksByAccount returns the blocks holding a transaction sent or
// received by the account. An empty account returns every block.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) []database.Block {
	blocks := s.ledger.Blocks()
	if accountID == "" {
		return blocks
	}

	var out []database.Block
	for _, block := range blocks {
		tx := block.Transaction
		if tx == nil {
			continue
		}

		if tx.Outputs.Sender == accountID || tx.Outputs.Receiver == accountID {
			out = append(out, block)
		}
	}

	return out
}

// ValidateChain fully verifies the in memory chain.
func (s *State) ValidateChain() error {
	return s.ledger.ValidateChain()
}
