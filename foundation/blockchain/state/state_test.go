package state_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/genesis"
	"github.com/isschain/blockchain/foundation/blockchain/ledger"
	"github.com/isschain/blockchain/foundation/blockchain/state"
	"github.com/isschain/blockchain/foundation/blockchain/storage/disk"
	"github.com/isschain/blockchain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newState(t *testing.T, storage database.Storage) *state.State {
	gen := genesis.Default()
	gen.Difficulty = 1

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: storage,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}

	return st
}

func newKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a key: %s", failed, err)
	}

	return pk, crypto.PubkeyToAddress(pk.PublicKey).Hex()
}

func register(t *testing.T, st *state.State, name string, key string) database.Account {
	acct, err := st.RegisterAccount(name, key)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to register %s: %s", failed, name, err)
	}

	return acct
}

func transfer(t *testing.T, pk *ecdsa.PrivateKey, from, to database.AccountID, amount database.Amount, ts uint64) database.SignedTransfer {
	tr := database.Transfer{
		From:      from,
		To:        to,
		Amount:    amount,
		TimeStamp: ts,
	}

	signed, err := tr.Sign(pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transfer: %s", failed, err)
	}

	return signed
}

// =============================================================================

func Test_Settlement(t *testing.T) {
	t.Log("Given the need to move money from submission to settlement.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen sending 100 coins between three accounts.", testID)
		{
			storage, _ := memory.New()
			st := newState(t, storage)

			if st.RetrieveLatestBlock().Index != 0 || len(st.RetrieveBlocks()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould start with only the genesis block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould start with only the genesis block.", success, testID)

			pk, addr := newKey(t)
			bill := register(t, st, "bill", addr)
			pavel := register(t, st, "pavel", "")
			miner := register(t, st, "miner", "")

			if bill.Available != database.Coins(100) || bill.Number != 1 || miner.Number != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould register with the opening balance in order: %+v", failed, testID, bill)
			}
			t.Logf("\t%s\tTest %d:\tShould register with the opening balance in order.", success, testID)

			tx, err := st.SubmitTransaction(transfer(t, pk, bill.AccountID, pavel.AccountID, database.Coins(100), 1000))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit the transaction: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to submit the transaction.", success, testID)

			acct, _ := st.QueryAccount(bill.AccountID)
			if acct.Available != 0 || acct.Pending != database.Coins(100) {
				t.Fatalf("\t%s\tTest %d:\tShould reserve the sender's funds: %+v", failed, testID, acct)
			}
			t.Logf("\t%s\tTest %d:\tShould reserve the sender's funds.", success, testID)

			if st.QueryPendingLength() != 1 || st.RetrievePending()[0].TxID != tx.TxID {
				t.Fatalf("\t%s\tTest %d:\tShould hold the transaction in the pending pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould hold the transaction in the pending pool.", success, testID)

			block, err := st.MineNewBlock(context.Background(), miner.AccountID)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %s", failed, testID, err)
			}
			if block.Index != 1 || block.Hash[0] != '0' || block.Transaction.TxID != tx.TxID {
				t.Fatalf("\t%s\tTest %d:\tShould mine block 1 with the transaction: %s", failed, testID, block)
			}
			t.Logf("\t%s\tTest %d:\tShould mine block 1 with the transaction.", success, testID)

			if st.QueryPendingLength() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould empty the pending pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould empty the pending pool.", success, testID)

			exp := map[database.AccountID]database.Amount{
				bill.AccountID:  0,
				pavel.AccountID: database.Coins(190),
				miner.AccountID: database.Coins(110),
			}
			for id, amount := range exp {
				acct, err := st.QueryAccount(id)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to query %s: %s", failed, testID, id.Short(), err)
				}
				if acct.Available != amount || acct.Pending != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould settle %s to %s, got %s.", failed, testID, acct.Name, amount, acct.Available)
				}
				t.Logf("\t%s\tTest %d:\tShould settle %s to %s.", success, testID, acct.Name, amount)
			}

			if err := st.ValidateChain(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)

			if blocks := st.QueryBlocksByAccount(pavel.AccountID); len(blocks) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould find one block for the receiver, got %d.", failed, testID, len(blocks))
			}
			t.Logf("\t%s\tTest %d:\tShould find one block for the receiver.", success, testID)

			if _, err := st.MineNewBlock(context.Background(), miner.AccountID); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not mine with an empty pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not mine with an empty pool.", success, testID)
		}
	}
}

func Test_Restart(t *testing.T) {
	t.Log("Given the need to restart a node on the same storage.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block is mined and a transaction is pending.", testID)
		{
			storage, _ := memory.New()
			st := newState(t, storage)

			pk, _ := newKey(t)
			bill := register(t, st, "bill", "")
			pavel := register(t, st, "pavel", "")

			if _, err := st.SubmitTransaction(transfer(t, pk, bill.AccountID, pavel.AccountID, database.Coins(10), 1000)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %s", failed, testID, err)
			}
			if _, err := st.MineNewBlock(context.Background(), pavel.AccountID); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %s", failed, testID, err)
			}
			pending, err := st.SubmitTransaction(transfer(t, pk, bill.AccountID, pavel.AccountID, database.Coins(20), 2000))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %s", failed, testID, err)
			}

			latest := st.RetrieveLatestBlock()

			restarted := newState(t, storage)

			if got := restarted.RetrieveLatestBlock(); got.Hash != latest.Hash || len(restarted.RetrieveBlocks()) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould reconstruct the chain: %s", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould reconstruct the chain.", success, testID)

			txs := restarted.RetrievePending()
			if len(txs) != 1 || txs[0].TxID != pending.TxID {
				t.Fatalf("\t%s\tTest %d:\tShould reload the pending pool: %v", failed, testID, txs)
			}
			t.Logf("\t%s\tTest %d:\tShould reload the pending pool.", success, testID)

			if err := restarted.ValidateChain(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}
	}
}

func Test_CorruptBlock(t *testing.T) {
	t.Log("Given the need to refuse a stored chain that can't be read.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen block 1 on disk is not a block record.", testID)
		{
			fs := vfs.NewMem()

			strg, err := disk.NewWithOptions("ledger", &pebble.Options{FS: fs})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open disk storage: %s", failed, testID, err)
			}
			if err := newState(t, strg).Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shut down: %s", failed, testID, err)
			}

			db, err := pebble.Open("ledger", &pebble.Options{FS: fs})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open pebble: %s", failed, testID, err)
			}
			if err := db.Set([]byte("blk:00000000000000000001"), []byte("{garbage"), pebble.Sync); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the record: %s", failed, testID, err)
			}
			if err := db.Close(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to close pebble: %s", failed, testID, err)
			}

			strg, err = disk.NewWithOptions("ledger", &pebble.Options{FS: fs})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reopen disk storage: %s", failed, testID, err)
			}
			defer strg.Close()

			gen := genesis.Default()
			gen.Difficulty = 1

			_, err = state.New(state.Config{Genesis: gen, Storage: strg})

			var re *ledger.ReconstructionError
			if !errors.As(err, &re) {
				t.Fatalf("\t%s\tTest %d:\tShould fail with a reconstruction error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail with a reconstruction error.", success, testID)

			if re.Index != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould report record 1, got %d.", failed, testID, re.Index)
			}
			t.Logf("\t%s\tTest %d:\tShould report record 1.", success, testID)
		}
	}
}

func Test_SubmitRejected(t *testing.T) {
	storage, _ := memory.New()
	st := newState(t, storage)

	pk, addr := newKey(t)
	other, _ := newKey(t)
	bill := register(t, st, "bill", addr)
	pavel := register(t, st, "pavel", "")
	ghost := database.NewAccountID("ghost", 99, 1)

	if _, err := st.SubmitTransaction(transfer(t, pk, bill.AccountID, pavel.AccountID, database.Coins(5), 500)); err != nil {
		t.Fatalf("\t%s\tShould be able to submit the first transaction: %s", failed, err)
	}

	tt := []struct {
		name   string
		signed database.SignedTransfer
		exp    error
	}{
		{"self", transfer(t, pk, bill.AccountID, bill.AccountID, 1, 1000), nil},
		{"zero", transfer(t, pk, bill.AccountID, pavel.AccountID, 0, 1000), nil},
		{"receiver", transfer(t, pk, bill.AccountID, ghost, 1, 1000), state.ErrUnknownAccount},
		{"sender", transfer(t, pk, ghost, pavel.AccountID, 1, 1000), state.ErrUnknownAccount},
		{"funds", transfer(t, pk, bill.AccountID, pavel.AccountID, database.Coins(96), 1000), nil},
		{"duplicate", transfer(t, pk, bill.AccountID, pavel.AccountID, database.Coins(5), 500), state.ErrDuplicateTx},
		{"signer", transfer(t, other, bill.AccountID, pavel.AccountID, 1, 1000), state.ErrBadSignature},
	}

	t.Log("Given the need to reject bad transfers.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s transfer.", testID, tst.name)
				{
					_, err := st.SubmitTransaction(tst.signed)
					if err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould reject the transfer.", failed, testID)
					}
					if tst.exp != nil && !errors.Is(err, tst.exp) {
						t.Fatalf("\t%s\tTest %d:\tShould reject with %q, got %q.", failed, testID, tst.exp, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the transfer: %s", success, testID, err)
				}
			}
			t.Run(tst.name, f)
		}
	}

	acct, _ := st.QueryAccount(bill.AccountID)
	if acct.Available != database.Coins(95) || acct.Pending != database.Coins(5) || st.QueryPendingLength() != 1 {
		t.Fatalf("\t%s\tShould leave balances and pool untouched: %+v", failed, acct)
	}
	t.Logf("\t%s\tShould leave balances and pool untouched.", success)
}
