package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/ledger"
	"github.com/spf13/cobra"
)

// ErrReserveMismatch is returned when an account's pending balance doesn't
// match the transactions it has waiting in the pool.
var ErrReserveMismatch = errors.New("pending balance does not match the pending pool")

func verifyCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Rebuild the chain from storage and verify it",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cfg.openReadOnly()
			if err != nil {
				return err
			}
			defer db.Close()

			return Verify(cfg.out, db, cfg.genesis().Difficulty)
		},
	}
}

func resetCmd(cfg *config) *cobra.Command {
	var confirm bool

	cmd := cobra.Command{
		Use:   "reset",
		Short: "Delete every block, account and pending transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("reset deletes the whole ledger, pass --yes to confirm")
			}

			db, err := openWritable(cfg.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Reset(); err != nil {
				return err
			}

			cfg.log.Infow("reset", "status", "ledger deleted", "db", cfg.dbPath)
			fmt.Fprintln(cfg.out, "ledger reset")

			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the reset.")

	return &cmd
}

// =============================================================================

// Verify reconstructs the chain held in storage and checks every hash, proof
// and link. It also checks the reserved balances against the pending pool.
func Verify(out io.Writer, db database.Storage, difficulty int) error {
	records, err := ledger.ReadBlocks(db)
	if err != nil {
		return err
	}

	l, err := ledger.New(difficulty, nil)
	if err != nil {
		return err
	}

	if err := l.Reconstruct(records); err != nil {
		return err
	}

	if err := l.ValidateChain(); err != nil {
		return err
	}
	fmt.Fprintf(out, "chain: %d blocks valid at difficulty %d\n", l.Length(), difficulty)

	txs, err := db.Pending()
	if err != nil {
		return err
	}

	reserved := make(map[database.AccountID]database.Amount)
	for _, tx := range txs {
		reserved[tx.Outputs.Sender] += tx.Amount()
	}

	accts, err := db.Accounts()
	if err != nil {
		return err
	}

	for _, acct := range accts {
		if acct.Pending != reserved[acct.AccountID] {
			return fmt.Errorf("account %s: %w: pending %s, pool %s", acct.AccountID.Short(), ErrReserveMismatch, acct.Pending, reserved[acct.AccountID])
		}
	}
	fmt.Fprintf(out, "accounts: %d reserves match %d pending transactions\n", len(accts), len(txs))

	return nil
}
