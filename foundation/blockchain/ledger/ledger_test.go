package ledger_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/ledger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var (
	bill  = database.NewAccountID("bill", 1, 1)
	pavel = database.NewAccountID("pavel", 2, 1)
)

func newTx(ts uint64, amount database.Amount) database.Tx {
	return database.Tx{
		Inputs:    database.TxInputs{Sender: bill, Balance: database.Coins(100)},
		Outputs:   database.TxOutputs{Sender: bill, Remains: database.Coins(100) - amount, Receiver: pavel, Amount: amount},
		Signature: "0xsig",
		TxID:      database.TxID(bill, pavel, ts, amount),
		TimeStamp: ts,
	}
}

func newLedger(t *testing.T, difficulty int) *ledger.Ledger {
	l, err := ledger.New(difficulty, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %s", failed, err)
	}
	if _, err := l.CreateGenesis(time.Now()); err != nil {
		t.Fatalf("\t%s\tShould be able to create genesis: %s", failed, err)
	}
	return l
}

// =============================================================================

func Test_New(t *testing.T) {
	tt := []struct {
		difficulty int
		valid      bool
	}{
		{0, true},
		{5, true},
		{ledger.MaxDifficulty, true},
		{-1, false},
		{ledger.MaxDifficulty + 1, false},
	}

	t.Log("Given the need to construct a ledger at a difficulty.")
	{
		for testID, tst := range tt {
			l, err := ledger.New(tst.difficulty, nil)
			if !tst.valid {
				if !errors.Is(err, ledger.ErrBadDifficulty) || l != nil {
					t.Fatalf("\t%s\tTest %d:\tShould reject difficulty %d: %v", failed, testID, tst.difficulty, err)
				}
				t.Logf("\t%s\tTest %d:\tShould reject difficulty %d.", success, testID, tst.difficulty)
				continue
			}

			if err != nil || l.Difficulty() != tst.difficulty {
				t.Fatalf("\t%s\tTest %d:\tShould accept difficulty %d: %v", failed, testID, tst.difficulty, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept difficulty %d.", success, testID, tst.difficulty)
		}
	}
}

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start a new chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the ledger is empty.", testID)
		{
			l, err := ledger.New(5, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the ledger: %s", failed, testID, err)
			}

			if _, err := l.Mine(); !errors.Is(err, ledger.ErrEmptyChain) {
				t.Fatalf("\t%s\tTest %d:\tShould not mine without genesis: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not mine without genesis.", success, testID)

			gen, err := l.CreateGenesis(time.Now())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create genesis: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to create genesis.", success, testID)

			if l.Length() != 1 || gen.Index != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have a chain of one block at index 0.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have a chain of one block at index 0.", success, testID)

			if gen.PrevHash != "0" || gen.Transaction != nil {
				t.Fatalf("\t%s\tTest %d:\tShould have the zero previous hash and no transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have the zero previous hash and no transaction.", success, testID)

			if gen.Hash != gen.ComputeHash() || gen.Nonce != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould hash genesis directly.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould hash genesis directly.", success, testID)

			if _, err := l.CreateGenesis(time.Now()); !errors.Is(err, ledger.ErrGenesisExists) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse a second genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse a second genesis.", success, testID)
		}
	}
}

func Test_Mine(t *testing.T) {
	type table struct {
		name       string
		difficulty int
		txs        int
	}

	tt := []table{
		{name: "diff1", difficulty: 1, txs: 1},
		{name: "diff2", difficulty: 2, txs: 3},
	}

	t.Log("Given the need to mine pending transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen mining with difficulty %d.", testID, tst.difficulty)
				{
					l := newLedger(t, tst.difficulty)

					if _, err := l.Mine(); !errors.Is(err, ledger.ErrEmptyPool) {
						t.Fatalf("\t%s\tTest %d:\tShould report an empty pool: %v", failed, testID, err)
					}
					if l.Length() != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould not change the chain on an empty pool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould report an empty pool without changes.", success, testID)

					var txs []database.Tx
					for i := 0; i < tst.txs; i++ {
						tx := newTx(uint64(i+1), database.Coins(uint64(i+1)))
						txs = append(txs, tx)
						if err := l.AddNewTransaction(tx); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to add a transaction: %s", failed, testID, err)
						}
					}

					zeros := strings.Repeat("0", tst.difficulty)
					for i := 0; i < tst.txs; i++ {
						pending := l.PendingCount()

						block, err := l.Mine()
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %s", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould be able to mine a block: %s", success, testID, block)

						chain := l.Blocks()
						if len(chain) != i+2 {
							t.Fatalf("\t%s\tTest %d:\tShould grow the chain by one.", failed, testID)
						}

						if !strings.HasPrefix(block.Hash, zeros) || block.Hash != block.ComputeHash() {
							t.Fatalf("\t%s\tTest %d:\tShould have a solved hash that recomputes.", failed, testID)
						}

						if block.PrevHash != chain[i].Hash {
							t.Fatalf("\t%s\tTest %d:\tShould link to the previous block.", failed, testID)
						}

						if l.PendingCount() != pending-1 {
							t.Fatalf("\t%s\tTest %d:\tShould remove the mined transaction.", failed, testID)
						}

						if block.Transaction.TxID != txs[i].TxID {
							t.Fatalf("\t%s\tTest %d:\tShould mine transactions in submission order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould mine every transaction in order into a linked chain.", success, testID)

					if err := l.ValidateChain(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould validate the chain: %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould validate the chain.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_AddBlock(t *testing.T) {
	t.Log("Given the need to reject bad blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen adding blocks by hand.", testID)
		{
			l := newLedger(t, 1)
			tail, _ := l.LatestBlock()
			tx := newTx(1, 1)

			block := database.NewBlock(1, &tx, tail.TimeStamp, strings.Repeat("a", 64))
			proof := l.ProofOfWork(&block)
			if err := l.AddBlock(&block, proof); !errors.Is(err, ledger.ErrChainContinuity) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a block with the wrong previous hash: %v", failed, testID, err)
			}
			if l.Length() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not change the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a block with the wrong previous hash.", success, testID)

			block = database.NewBlock(1, &tx, tail.TimeStamp, tail.Hash)
			proof = l.ProofOfWork(&block)

			bad := "f" + proof[1:]
			if err := l.AddBlock(&block, bad); !errors.Is(err, ledger.ErrInvalidProof) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a proof without the leading zero: %v", failed, testID, err)
			}
			if l.Length() != 1 || block.Hash != "" {
				t.Fatalf("\t%s\tTest %d:\tShould not change the chain or the block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a proof without the leading zero.", success, testID)

			forged := "0" + strings.Repeat("1", 63)
			if l.IsValidProof(block, forged) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a forged digest that meets the difficulty.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a forged digest that meets the difficulty.", success, testID)

			if l.IsValidProof(block, proof) != l.IsValidProof(block, proof) || !l.IsValidProof(block, proof) {
				t.Fatalf("\t%s\tTest %d:\tShould give the same answer every time.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould give the same answer every time.", success, testID)

			block.Nonce++
			if err := l.AddBlock(&block, proof); !errors.Is(err, ledger.ErrInvalidProof) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a block changed after mining: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a block changed after mining.", success, testID)

			block.Nonce--
			if err := l.AddBlock(&block, proof); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the valid block: %s", failed, testID, err)
			}
			if l.Length() != 2 || block.Hash != proof {
				t.Fatalf("\t%s\tTest %d:\tShould append the block with the proof as hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the valid block.", success, testID)
		}
	}
}

func Test_Reconstruct(t *testing.T) {
	t.Log("Given the need to rebuild the chain from storage.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling stored records.", testID)
		{
			src := newLedger(t, 1)
			for i := 1; i <= 3; i++ {
				src.AddNewTransaction(newTx(uint64(i), database.Amount(i)))
				if _, err := src.Mine(); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %s", failed, testID, err)
				}
			}

			var records []database.BlockData
			for _, block := range src.Blocks() {
				records = append(records, database.NewBlockData(block))
			}

			// A stored hash that no longer matches the contents is still
			// taken as is.
			records[2].Nonce += 1000

			l, err := ledger.New(1, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the ledger: %s", failed, testID, err)
			}
			if err := l.Reconstruct(records); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reconstruct: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to reconstruct.", success, testID)

			chain := l.Blocks()
			if len(chain) != len(records) {
				t.Fatalf("\t%s\tTest %d:\tShould have %d blocks, got %d.", failed, testID, len(records), len(chain))
			}
			for i := range chain {
				if chain[i].Hash != records[i].Hash {
					t.Fatalf("\t%s\tTest %d:\tShould take hashes verbatim.", failed, testID)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould have every block with its stored hash.", success, testID)

			if err := l.ValidateChain(); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould catch the altered block when validating.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould catch the altered block when validating.", success, testID)

			broken := append([]database.BlockData(nil), records...)
			broken[1].Hash = "not a hash"

			l2 := newLedger(t, 1)
			err = l2.Reconstruct(broken)

			var re *ledger.ReconstructionError
			if !errors.As(err, &re) || re.Index != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould report the malformed record: %v", failed, testID, err)
			}
			if l2.Length() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not load a partial chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail the whole call on a malformed record.", success, testID)
		}
	}
}
