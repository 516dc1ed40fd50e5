package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var name string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account bound to the wallet key",
	Run:   registerRun,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&name, "name", "n", "", "Display name of the account.")
	registerCmd.MarkFlagRequired("name")
}

func registerRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	req := struct {
		Name           string `json:"name"`
		AttestationKey string `json:"attestation_key"`
	}{
		Name:           name,
		AttestationKey: crypto.PubkeyToAddress(privateKey.PublicKey).Hex(),
	}

	var acct account
	if err := call(http.MethodPost, "/v1/accounts/register", req, &acct); err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(getAccountPath(), []byte(acct.AccountID+"\n"), 0600); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Account:", acct.AccountID)
	fmt.Println("Number: ", acct.Number)
	fmt.Println("Balance:", acct.Balance)
}
