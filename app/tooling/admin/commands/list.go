package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

func blocksCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List the stored blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cfg.openReadOnly()
			if err != nil {
				return err
			}
			defer db.Close()

			return Blocks(cfg.out, db)
		},
	}
}

func accountsCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the registered accounts and their balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cfg.openReadOnly()
			if err != nil {
				return err
			}
			defer db.Close()

			return Accounts(cfg.out, db)
		},
	}
}

func pendingCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List the transactions waiting to be mined",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := cfg.openReadOnly()
			if err != nil {
				return err
			}
			defer db.Close()

			return Pending(cfg.out, db)
		},
	}
}

// =============================================================================

// Blocks prints every stored block in chain order.
func Blocks(out io.Writer, db database.Storage) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tTIMESTAMP\tNONCE\tHASH\tTRANSACTION")

	iter := db.ForEach()
	for bd, err := iter.Next(); !iter.Done(); bd, err = iter.Next() {
		if err != nil {
			return err
		}

		tx := "-"
		if bd.Transaction != nil {
			tx = bd.Transaction.String()
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", bd.Index, bd.TimeStamp, bd.Nonce, bd.Hash, tx)
	}

	return w.Flush()
}

// Accounts prints every account in registration order.
func Accounts(out io.Writer, db database.Storage) error {
	accts, err := db.Accounts()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tNAME\tACCOUNT\tAVAILABLE\tPENDING")
	for _, acct := range accts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", acct.Number, acct.Name, acct.AccountID, acct.Available, acct.Pending)
	}

	return w.Flush()
}

// Pending prints the pending queue from oldest to newest.
func Pending(out io.Writer, db database.Storage) error {
	txs, err := db.Pending()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POSITION\tTRANSACTION\tSENDER\tRECEIVER\tAMOUNT")
	for i, tx := range txs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i, tx.TxID, tx.Outputs.Sender.Short(), tx.Outputs.Receiver.Short(), tx.Outputs.Amount)
	}

	return w.Flush()
}
