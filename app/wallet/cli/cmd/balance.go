package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type account struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Number    uint64 `json:"number"`
	Available uint64 `json:"available"`
	Pending   uint64 `json:"pending"`
	Balance   string `json:"balance"`
}

type accounts struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Accounts    []account `json:"accounts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	id, err := getAccountID()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("For Account:", id)

	var accts accounts
	if err := call(http.MethodGet, "/v1/accounts/list/"+string(id), nil, &accts); err != nil {
		log.Fatal(err)
	}

	for _, acct := range accts.Accounts {
		fmt.Printf("Name: %s  Available: %s  Pending: %d\n", acct.Name, acct.Balance, acct.Pending)
	}
}
