// This program is the wallet for the ISS ledger.
package main

import "github.com/isschain/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
