package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/isschain/blockchain/foundation/blockchain/signature"
)

// Encoding versions for the hashed forms of a transaction.
const (
	txIDVersion = "txid/v1"
	txVersion   = "tx/v1"
)

// =============================================================================

// Transfer is the request by an account to move money to another account.
// It is what the wallet signs.
type Transfer struct {
	From      AccountID `json:"from" validate:"required"`
	To        AccountID `json:"to" validate:"required"`
	Amount    Amount    `json:"amount" validate:"required"`
	TimeStamp uint64    `json:"timestamp" validate:"required"`
}

// NewTransfer constructs a new transfer stamped with the current time.
func NewTransfer(from AccountID, to AccountID, amount Amount) (Transfer, error) {
	if !from.IsAccountID() {
		return Transfer{}, errors.New("from account is not properly formatted")
	}
	if !to.IsAccountID() {
		return Transfer{}, errors.New("to account is not properly formatted")
	}

	tr := Transfer{
		From:      from,
		To:        to,
		Amount:    amount,
		TimeStamp: uint64(time.Now().UTC().UnixMilli()),
	}

	return tr, nil
}

// Description returns the human readable statement of the transfer. This
// is the message the signature is bound to.
func (tr Transfer) Description() string {
	return fmt.Sprintf("%s wants to send %s ISS coins to %s", tr.From, tr.Amount, tr.To)
}

// Sign uses the specified private key to sign the transfer description.
func (tr Transfer) Sign(privateKey *ecdsa.PrivateKey) (SignedTransfer, error) {
	v, r, s, err := signature.Sign(tr.Description(), privateKey)
	if err != nil {
		return SignedTransfer{}, err
	}

	st := SignedTransfer{
		Transfer:  tr,
		Signature: signature.SignatureString(v, r, s),
	}

	return st, nil
}

// =============================================================================

// SignedTransfer is a signed version of the transfer. This is how clients
// like a wallet provide transfers to the node.
type SignedTransfer struct {
	Transfer
	Signature string `json:"signature" validate:"required"`
}

// Validate checks the transfer is well formed and the signature conforms to
// our standards. It does not check who signed it, see Signer.
func (st SignedTransfer) Validate() error {
	if !st.From.IsAccountID() {
		return errors.New("invalid account for from account")
	}

	if !st.To.IsAccountID() {
		return errors.New("invalid account for to account")
	}

	if st.From == st.To {
		return fmt.Errorf("transfer invalid, sending money to yourself, from %s, to %s", st.From, st.To)
	}

	if st.Amount == 0 {
		return errors.New("transfer invalid, amount must be greater than zero")
	}

	v, r, s, err := signature.ToVRSFromHexSignature(st.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	return signature.VerifySignature(v, r, s)
}

// Signer extracts the address of the key that signed the transfer.
func (st SignedTransfer) Signer() (string, error) {
	v, r, s, err := signature.ToVRSFromHexSignature(st.Signature)
	if err != nil {
		return "", err
	}

	return signature.FromAddress(st.Description(), v, r, s)
}

// =============================================================================

// TxInputs records the sender and the balance snapshot the transaction
// was built against.
type TxInputs struct {
	Sender  AccountID `json:"sender"`
	Balance Amount    `json:"balance"`
}

// TxOutputs records where the money goes.
type TxOutputs struct {
	Sender   AccountID `json:"sender"`
	Remains  Amount    `json:"remains"`
	Receiver AccountID `json:"receiver"`
	Amount   Amount    `json:"amount"`
}

// Tx is the transaction as it sits in the pending pool and as it is
// embedded in a block.
type Tx struct {
	Inputs    TxInputs  `json:"inputs"`
	Outputs   TxOutputs `json:"outputs"`
	Signature string    `json:"signature"`
	TxID      string    `json:"transaction_id"`
	TimeStamp uint64    `json:"timestamp"`
}

// NewTx constructs the transaction for a signed transfer given the sender's
// available balance at submission time.
func NewTx(st SignedTransfer, balance Amount) (Tx, error) {
	if st.Amount > balance {
		return Tx{}, fmt.Errorf("transaction invalid, insufficient funds, bal %s, needed %s", balance, st.Amount)
	}

	tx := Tx{
		Inputs: TxInputs{
			Sender:  st.From,
			Balance: balance,
		},
		Outputs: TxOutputs{
			Sender:   st.From,
			Remains:  balance - st.Amount,
			Receiver: st.To,
			Amount:   st.Amount,
		},
		Signature: st.Signature,
		TxID:      TxID(st.From, st.To, st.TimeStamp, st.Amount),
		TimeStamp: st.TimeStamp,
	}

	return tx, nil
}

// TxID derives the unique key of a transaction.
func TxID(sender AccountID, receiver AccountID, timeStamp uint64, amount Amount) string {
	return signature.HashFields(txIDVersion, string(sender), string(receiver), timeStamp, uint64(amount))
}

// Amount returns the value being moved by the transaction.
func (tx Tx) Amount() Amount {
	return tx.Outputs.Amount
}

// Fields returns the ordered encoding of the transaction used when it is
// hashed as part of a block.
func (tx Tx) Fields() []any {
	return []any{
		txVersion,
		string(tx.Inputs.Sender),
		uint64(tx.Inputs.Balance),
		string(tx.Outputs.Sender),
		uint64(tx.Outputs.Remains),
		string(tx.Outputs.Receiver),
		uint64(tx.Outputs.Amount),
		tx.Signature,
		tx.TxID,
		tx.TimeStamp,
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	id := tx.TxID
	if len(id) > 16 {
		id = id[:16]
	}

	return fmt.Sprintf("%s:%s->%s:%s", id, tx.Outputs.Sender.Short(), tx.Outputs.Receiver.Short(), tx.Outputs.Amount)
}
