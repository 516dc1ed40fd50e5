package public

import (
	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/nameservice"
)

type account struct {
	AccountID      database.AccountID `json:"account_id"`
	Name           string             `json:"name"`
	Number         uint64             `json:"number"`
	TimeStamp      uint64             `json:"timestamp"`
	Available      database.Amount    `json:"available"`
	Pending        database.Amount    `json:"pending"`
	Balance        string             `json:"balance"`
	AttestationKey string             `json:"attestation_key,omitempty"`
}

type accounts struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Accounts    []account `json:"accounts"`
}

type tx struct {
	TxID         string             `json:"transaction_id"`
	Sender       database.AccountID `json:"sender"`
	SenderName   string             `json:"sender_name"`
	Receiver     database.AccountID `json:"receiver"`
	ReceiverName string             `json:"receiver_name"`
	Balance      database.Amount    `json:"balance"`
	Remains      database.Amount    `json:"remains"`
	Amount       database.Amount    `json:"amount"`
	Display      string             `json:"display"`
	TimeStamp    uint64             `json:"timestamp"`
	Signature    string             `json:"signature"`
}

type block struct {
	Index       uint64 `json:"index"`
	TimeStamp   uint64 `json:"timestamp"`
	PrevHash    string `json:"previous_hash"`
	Nonce       uint64 `json:"nonce"`
	Hash        string `json:"hash"`
	Transaction *tx    `json:"transaction,omitempty"`
}

// register is the payload to create a new account.
type register struct {
	Name           string `json:"name" validate:"required,max=64"`
	AttestationKey string `json:"attestation_key" validate:"omitempty,eth_addr"`
}

// =============================================================================

func toAccount(acct database.Account, ns *nameservice.NameService) account {
	return account{
		AccountID:      acct.AccountID,
		Name:           ns.Lookup(acct.AccountID),
		Number:         acct.Number,
		TimeStamp:      acct.TimeStamp,
		Available:      acct.Available,
		Pending:        acct.Pending,
		Balance:        acct.Available.String(),
		AttestationKey: acct.AttestationKey,
	}
}

func toTx(t database.Tx, ns *nameservice.NameService) tx {
	return tx{
		TxID:         t.TxID,
		Sender:       t.Outputs.Sender,
		SenderName:   ns.Lookup(t.Outputs.Sender),
		Receiver:     t.Outputs.Receiver,
		ReceiverName: ns.Lookup(t.Outputs.Receiver),
		Balance:      t.Inputs.Balance,
		Remains:      t.Outputs.Remains,
		Amount:       t.Outputs.Amount,
		Display:      t.Outputs.Amount.String(),
		TimeStamp:    t.TimeStamp,
		Signature:    t.Signature,
	}
}

func toBlock(b database.Block, ns *nameservice.NameService) block {
	blk := block{
		Index:     b.Index,
		TimeStamp: b.TimeStamp,
		PrevHash:  b.PrevHash,
		Nonce:     b.Nonce,
		Hash:      b.Hash,
	}

	if b.Transaction != nil {
		t := toTx(*b.Transaction, ns)
		blk.Transaction = &t
	}

	return blk
}
