// Package nameservice maintains a lookup between account ids and the
// display names the accounts were registered with.
package nameservice

import (
	"sync"

	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	mu       sync.RWMutex
	accounts map[database.AccountID]string
}

// New constructs a name service from the registered accounts.
func New(accts []database.Account) *NameService {
	ns := NameService{
		accounts: make(map[database.AccountID]string, len(accts)),
	}

	for _, acct := range accts {
		ns.accounts[acct.AccountID] = acct.Name
	}

	return &ns
}

// Add records the name of a newly registered account.
func (ns *NameService) Add(acct database.Account) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.accounts[acct.AccountID] = acct.Name
}

// Lookup returns the name for the specified account. Unknown accounts are
// returned in their short form.
func (ns *NameService) Lookup(accountID database.AccountID) string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	name, exists := ns.accounts[accountID]
	if !exists {
		return accountID.Short()
	}
	return name
}

// Find returns the accounts registered under the specified name. Names are
// not unique so more than one id can come back.
func (ns *NameService) Find(name string) []database.AccountID {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	var ids []database.AccountID
	for id, n := range ns.accounts {
		if n == name {
			ids = append(ids, id)
		}
	}
	return ids
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[database.AccountID]string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	cpy := make(map[database.AccountID]string, len(ns.accounts))
	for account, name := range ns.accounts {
		cpy[account] = name
	}
	return cpy
}
