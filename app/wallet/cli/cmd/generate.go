package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	if err := os.MkdirAll(accountPath, 0700); err != nil {
		log.Fatal(err)
	}

	if _, err := os.Stat(getPrivateKeyPath()); err == nil {
		log.Fatalf("key file %s already exists", getPrivateKeyPath())
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	if err := crypto.SaveECDSA(getPrivateKeyPath(), privateKey); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Key:    ", getPrivateKeyPath())
	fmt.Println("Address:", crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
}
