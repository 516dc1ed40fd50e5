// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/ledger"
	"gopkg.in/yaml.v3"
)

// Default values applied when the genesis file leaves them out.
const (
	DefaultDifficulty      = 5
	DefaultStartingBalance = 100
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date" yaml:"date"`
	Difficulty      int       `json:"difficulty" yaml:"difficulty"`             // Number of leading 0's a block hash needs.
	StartingBalance uint64    `json:"starting_balance" yaml:"starting_balance"` // Coins given to every new account.
}

// Default returns the genesis used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2022, time.April, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:      DefaultDifficulty,
		StartingBalance: DefaultStartingBalance,
	}
}

// OpeningBalance returns the starting balance of new accounts.
func (g Genesis) OpeningBalance() database.Amount {
	return database.Coins(g.StartingBalance)
}

// =============================================================================

// file is the on disk form of the genesis. Pointers tell a value left out
// of the file apart from an explicit zero.
type file struct {
	Date            time.Time `json:"date" yaml:"date"`
	Difficulty      *int      `json:"difficulty" yaml:"difficulty"`
	StartingBalance *uint64   `json:"starting_balance" yaml:"starting_balance"`
}

// Load opens and consumes the genesis file. Files ending in .yaml or .yml
// are read as YAML, everything else as JSON. Fields the file leaves out get
// their defaults.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &f)
	default:
		err = json.Unmarshal(content, &f)
	}
	if err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis %s: %w", path, err)
	}

	genesis := Genesis{
		Date:            f.Date,
		Difficulty:      DefaultDifficulty,
		StartingBalance: DefaultStartingBalance,
	}
	if f.Difficulty != nil {
		genesis.Difficulty = *f.Difficulty
	}
	if f.StartingBalance != nil {
		genesis.StartingBalance = *f.StartingBalance
	}

	if genesis.Difficulty < 0 || genesis.Difficulty > ledger.MaxDifficulty {
		return Genesis{}, fmt.Errorf("genesis difficulty %d: %w", genesis.Difficulty, ledger.ErrBadDifficulty)
	}

	return genesis, nil
}
