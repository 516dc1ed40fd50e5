// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"io"

	"github.com/isschain/blockchain/foundation/blockchain/genesis"
	"github.com/isschain/blockchain/foundation/blockchain/storage/disk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// config holds the flags shared by every command.
type config struct {
	log         *zap.SugaredLogger
	out         io.Writer
	dbPath      string
	genesisPath string
}

// New constructs the admin command tree writing its reports to out.
func New(log *zap.SugaredLogger, out io.Writer) *cobra.Command {
	cfg := config{
		log: log,
		out: out,
	}

	root := cobra.Command{
		Use:          "admin",
		Short:        "Inspect and maintain the ledger database of a stopped node",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfg.dbPath, "db", "d", "zblock/ledger.db", "Path to the ledger database.")
	root.PersistentFlags().StringVarP(&cfg.genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")

	root.AddCommand(
		blocksCmd(&cfg),
		accountsCmd(&cfg),
		pendingCmd(&cfg),
		verifyCmd(&cfg),
		resetCmd(&cfg),
	)

	return &root
}

// openReadOnly opens the database for inspection.
func (cfg *config) openReadOnly() (*disk.Disk, error) {
	db, err := disk.NewReadOnly(cfg.dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.dbPath, err)
	}

	return db, nil
}

// genesis loads the genesis file, falling back to the defaults.
func (cfg *config) genesis() genesis.Genesis {
	gen, err := genesis.Load(cfg.genesisPath)
	if err != nil {
		cfg.log.Infow("genesis", "status", "using defaults", "path", cfg.genesisPath, "ERROR", err)
		return genesis.Default()
	}

	return gen
}
