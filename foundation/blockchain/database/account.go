package database

import (
	"errors"

	"github.com/isschain/blockchain/foundation/blockchain/signature"
)

// identityVersion tags the encoding used to derive account identities.
const identityVersion = "identity/v1"

// Account represents information stored in the database for an individual account.
type Account struct {
	AccountID      AccountID `json:"account_id"`
	Name           string    `json:"name"`
	Number         uint64    `json:"number"`
	TimeStamp      uint64    `json:"timestamp"`
	Available      Amount    `json:"available"`
	Pending        Amount    `json:"pending"`
	AttestationKey string    `json:"attestation_key,omitempty"`
}

// NewAccount constructs a new account value for use. The identity is
// derived from the display name, the sequence number and the timestamp.
func NewAccount(name string, number uint64, timeStamp uint64, opening Amount, attestationKey string) Account {
	return Account{
		AccountID:      NewAccountID(name, number, timeStamp),
		Name:           name,
		Number:         number,
		TimeStamp:      timeStamp,
		Available:      opening,
		AttestationKey: attestationKey,
	}
}

// =============================================================================

// AccountID represents the stable identity of an account. It is the hex
// encoded hash of the account's registration details.
type AccountID string

// NewAccountID derives an account identity from the display name, the
// registration sequence number and the registration time.
func NewAccountID(name string, number uint64, timeStamp uint64) AccountID {
	return AccountID(signature.HashFields(identityVersion, name, number, timeStamp))
}

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	return signature.IsHash(string(a))
}

// Short returns an abbreviated form of the id for logging.
func (a AccountID) Short() string {
	if len(a) < 8 {
		return string(a)
	}
	return string(a[:8])
}

// =============================================================================

// ByNumber provides sorting support by the registration number.
type ByNumber []Account

// Len returns the number of accounts in the list.
func (bn ByNumber) Len() int {
	return len(bn)
}

// Less helps to sort the list by registration number in ascending order.
func (bn ByNumber) Less(i, j int) bool {
	return bn[i].Number < bn[j].Number
}

// Swap moves accounts in the order of the registration number.
func (bn ByNumber) Swap(i, j int) {
	bn[i], bn[j] = bn[j], bn[i]
}
