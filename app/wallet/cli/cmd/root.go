// Package cmd contains the wallet app.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	nodeURL     string
	accountID   string
)

const (
	keyExtension     = ".ecdsa"
	accountExtension = ".account"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
	rootCmd.PersistentFlags().StringVarP(&accountID, "id", "i", "", "Account id to use instead of the one saved by register.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Simple wallet for the ISS ledger",
}

// Execute runs the wallet command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := strings.TrimSuffix(accountName, keyExtension)
	return filepath.Join(accountPath, name+keyExtension)
}

func getAccountPath() string {
	name := strings.TrimSuffix(accountName, keyExtension)
	return filepath.Join(accountPath, name+accountExtension)
}

// getAccountID returns the account id from the flag or, when not set, from
// the file written by the register command.
func getAccountID() (database.AccountID, error) {
	id := accountID
	if id == "" {
		data, err := os.ReadFile(getAccountPath())
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("no account id given and %s not found, run register first", getAccountPath())
			}
			return "", err
		}
		id = strings.TrimSpace(string(data))
	}

	return database.ToAccountID(id)
}
