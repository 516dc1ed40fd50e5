package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestLoad(t *testing.T) {
	type table struct {
		name       string
		file       string
		content    string
		difficulty int
		balance    database.Amount
		valid      bool
	}

	tt := []table{
		{
			name:       "json",
			file:       "genesis.json",
			content:    `{"date":"2022-04-01T00:00:00Z","difficulty":4,"starting_balance":50}`,
			difficulty: 4,
			balance:    database.Coins(50),
			valid:      true,
		},
		{
			name:       "yaml",
			file:       "genesis.yaml",
			content:    "date: 2022-04-01T00:00:00Z\ndifficulty: 3\n",
			difficulty: 3,
			balance:    database.Coins(genesis.DefaultStartingBalance),
			valid:      true,
		},
		{
			name:       "defaults",
			file:       "genesis.json",
			content:    `{}`,
			difficulty: genesis.DefaultDifficulty,
			balance:    database.Coins(genesis.DefaultStartingBalance),
			valid:      true,
		},
		{
			name:       "zero difficulty",
			file:       "genesis.json",
			content:    `{"difficulty":0}`,
			difficulty: 0,
			balance:    database.Coins(genesis.DefaultStartingBalance),
			valid:      true,
		},
		{
			name:       "zero yaml",
			file:       "genesis.yml",
			content:    "difficulty: 0\nstarting_balance: 0\n",
			difficulty: 0,
			balance:    0,
			valid:      true,
		},
		{
			name:    "range",
			file:    "genesis.json",
			content: `{"difficulty":65}`,
		},
		{
			name:    "negative",
			file:    "genesis.json",
			content: `{"difficulty":-1}`,
		},
	}

	t.Log("Given the need to load the genesis file.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s file.", testID, tst.name)
				{
					path := filepath.Join(t.TempDir(), tst.file)
					if err := os.WriteFile(path, []byte(tst.content), 0600); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %s", failed, testID, err)
					}

					gen, err := genesis.Load(path)
					if !tst.valid {
						if err == nil {
							t.Fatalf("\t%s\tTest %d:\tShould reject the file.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the file.", success, testID)
						return
					}

					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to load the file.", success, testID)

					if gen.Difficulty != tst.difficulty || gen.OpeningBalance() != tst.balance {
						t.Fatalf("\t%s\tTest %d:\tShould get difficulty %d and balance %s, got %d and %s.", failed, testID, tst.difficulty, tst.balance, gen.Difficulty, gen.OpeningBalance())
					}
					t.Logf("\t%s\tTest %d:\tShould get the right settings.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
