// Package storagetest provides the behavior checks every database.Storage
// implementation must pass.
package storagetest

import (
	"errors"
	"testing"

	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Run exercises the storage contract against an empty storage value.
func Run(t *testing.T, strg database.Storage) {
	kennedy := database.NewAccount("kennedy", 1, 1, database.Coins(100), "")
	pavel := database.NewAccount("pavel", 2, 2, database.Coins(100), "")

	tx1 := newTx(kennedy.AccountID, pavel.AccountID, 1)
	tx2 := newTx(pavel.AccountID, kennedy.AccountID, 2)
	tx3 := newTx(kennedy.AccountID, pavel.AccountID, 3)

	genesis := database.NewBlock(0, nil, 1, database.GenesisPrevHash)
	genesis.Hash = genesis.ComputeHash()
	next := database.NewBlock(1, &tx1, 2, genesis.Hash)
	next.Hash = next.ComputeHash()

	t.Log("Given the need to store the blockchain durably.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen committing change sets.", testID)
		{
			gd := database.NewBlockData(genesis)
			cs := database.ChangeSet{
				Block:    &gd,
				Accounts: []database.Account{pavel, kennedy},
				Enqueue:  []database.Tx{tx1, tx2},
			}
			if err := strg.Commit(cs); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to commit genesis: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to commit genesis.", success, testID)

			accts, err := strg.Accounts()
			if err != nil || len(accts) != 2 || accts[0].AccountID != kennedy.AccountID {
				t.Fatalf("\t%s\tTest %d:\tShould list accounts in registration order: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould list accounts in registration order.", success, testID)

			if _, err := strg.QueryAccount(database.NewAccountID("ghost", 9, 9)); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould report an unknown account: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report an unknown account.", success, testID)

			bad := database.NewBlockData(next)
			bad.Index = 5
			if err := strg.Commit(database.ChangeSet{Block: &bad, Dequeue: 1, Enqueue: []database.Tx{tx3}}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a block out of order.", failed, testID)
			}
			if pending, _ := strg.Pending(); len(pending) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould leave storage untouched on a rejected commit, got %d pending.", failed, testID, len(pending))
			}
			t.Logf("\t%s\tTest %d:\tShould reject a block out of order and change nothing.", success, testID)

			kennedy.Available -= database.Coins(10)
			nd := database.NewBlockData(next)
			cs = database.ChangeSet{
				Block:    &nd,
				Dequeue:  1,
				Enqueue:  []database.Tx{tx3},
				Accounts: []database.Account{kennedy},
			}
			if err := strg.Commit(cs); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to commit the next block: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to commit the next block.", success, testID)

			pending, err := strg.Pending()
			if err != nil || len(pending) != 2 || pending[0].TxID != tx2.TxID || pending[1].TxID != tx3.TxID {
				t.Fatalf("\t%s\tTest %d:\tShould keep the pending queue in order: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the pending queue in order.", success, testID)

			acct, err := strg.QueryAccount(kennedy.AccountID)
			if err != nil || acct.Available != database.Coins(90) {
				t.Fatalf("\t%s\tTest %d:\tShould update the account: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould update the account.", success, testID)

			blocks, err := database.ReadAllBlocks(strg)
			if err != nil || len(blocks) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould read back two blocks: %v", failed, testID, err)
			}
			if blocks[1].Hash != next.Hash || blocks[1].Transaction == nil || blocks[1].Transaction.TxID != tx1.TxID {
				t.Fatalf("\t%s\tTest %d:\tShould read back the stored block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould read back every block in order.", success, testID)

			if err := strg.Commit(database.ChangeSet{Dequeue: 3}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to dequeue more than is pending.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to dequeue more than is pending.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen resetting the storage.", testID)
		{
			if err := strg.Reset(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reset: %s", failed, testID, err)
			}

			blocks, _ := database.ReadAllBlocks(strg)
			pending, _ := strg.Pending()
			accts, _ := strg.Accounts()
			if len(blocks)+len(pending)+len(accts) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould be empty after reset.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be empty after reset.", success, testID)
		}
	}
}

func newTx(from database.AccountID, to database.AccountID, ts uint64) database.Tx {
	return database.Tx{
		Inputs:    database.TxInputs{Sender: from, Balance: database.Coins(100)},
		Outputs:   database.TxOutputs{Sender: from, Remains: database.Coins(99), Receiver: to, Amount: database.Coins(1)},
		TxID:      database.TxID(from, to, ts, database.Coins(1)),
		TimeStamp: ts,
	}
}
