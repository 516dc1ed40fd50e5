package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// RegisterAccount creates a new account with the genesis starting balance.
// The attestation key is optional. When set, it is the address transfers
// from this account must be signed by.
func (s *State) RegisterAccount(name string, attestationKey string) (database.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return database.Account{}, errors.New("account name is required")
	}

	if attestationKey != "" {
		if !common.IsHexAddress(attestationKey) {
			return database.Account{}, fmt.Errorf("attestation key %q is not an address", attestationKey)
		}
		attestationKey = common.HexToAddress(attestationKey).String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accts, err := s.storage.Accounts()
	if err != nil {
		return database.Account{}, err
	}

	var number uint64 = 1
	if len(accts) > 0 {
		number = accts[len(accts)-1].Number + 1
	}

	acct := database.NewAccount(name, number, uint64(time.Now().UTC().UnixMilli()), s.genesis.OpeningBalance(), attestationKey)

	if err := s.storage.Commit(database.ChangeSet{Accounts: []database.Account{acct}}); err != nil {
		return database.Account{}, fmt.Errorf("writing account: %w", err)
	}

	s.evHandler("state: RegisterAccount: acct[%s] name[%s] number[%d]", acct.AccountID.Short(), name, number)

	return acct, nil
}
