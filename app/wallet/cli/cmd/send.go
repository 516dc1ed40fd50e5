package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send coins to another account",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account id of the receiver.")
	sendCmd.Flags().StringVarP(&amount, "amount", "v", "", "Amount of coins to send, like 12.50.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	from, err := getAccountID()
	if err != nil {
		log.Fatal(err)
	}

	toID, err := database.ToAccountID(to)
	if err != nil {
		log.Fatal(err)
	}

	value, err := database.ParseAmount(amount)
	if err != nil {
		log.Fatal(err)
	}

	tr, err := database.NewTransfer(from, toID, value)
	if err != nil {
		log.Fatal(err)
	}

	signed, err := tr.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	var resp struct {
		TxID string `json:"transaction_id"`
	}
	if err := call(http.MethodPost, "/v1/tx/submit", signed, &resp); err != nil {
		log.Fatal(err)
	}

	fmt.Println(tr.Description())
	fmt.Println("Transaction:", resp.TxID)
}
