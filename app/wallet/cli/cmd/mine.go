package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine the oldest pending transaction in favor of your account",
	Run:   mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) {
	id, err := getAccountID()
	if err != nil {
		log.Fatal(err)
	}

	var blk struct {
		Index uint64 `json:"index"`
		Nonce uint64 `json:"nonce"`
		Hash  string `json:"hash"`
	}
	if err := call(http.MethodPost, "/v1/mining/mine/"+string(id), nil, &blk); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Block: %d  Nonce: %d  Hash: %s\n", blk.Index, blk.Nonce, blk.Hash)
}
