package database

import (
	"fmt"

	"github.com/isschain/blockchain/foundation/blockchain/signature"
)

// GenesisPrevHash is the previous hash recorded on the genesis block.
const GenesisPrevHash = "0"

// blockVersion tags the encoding used to compute block hashes.
const blockVersion = "block/v1"

// =============================================================================

// Block represents one link in the chain. Each block carries exactly one
// transaction, except genesis which carries none.
type Block struct {
	Index       uint64 `json:"index"`
	Transaction *Tx    `json:"transaction"`
	TimeStamp   uint64 `json:"timestamp"`
	PrevHash    string `json:"previous_hash"`
	Nonce       uint64 `json:"nonce"`
	Hash        string `json:"hash"`
}

// NewBlock constructs a candidate block. The nonce starts at zero and the
// hash stays empty until the proof of work assigns it.
func NewBlock(index uint64, tx *Tx, timeStamp uint64, prevHash string) Block {
	return Block{
		Index:       index,
		Transaction: tx,
		TimeStamp:   timeStamp,
		PrevHash:    prevHash,
	}
}

// ComputeHash returns the digest of the block's current field values. The
// Hash field itself never takes part.
func (b Block) ComputeHash() string {
	var tx []any
	if b.Transaction != nil {
		tx = b.Transaction.Fields()
	}

	return signature.HashFields(blockVersion, b.Index, tx, b.TimeStamp, b.PrevHash, b.Nonce)
}

// IsGenesis reports whether this is the first block of a chain.
func (b Block) IsGenesis() bool {
	return b.Index == 0
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	hash := b.Hash
	if len(hash) > 16 {
		hash = hash[:16]
	}

	return fmt.Sprintf("%d:%s:nonce[%d]", b.Index, hash, b.Nonce)
}

// =============================================================================

// BlockData represents what is written to the durable block store.
type BlockData struct {
	Index       uint64 `json:"index"`
	Transaction *Tx    `json:"transaction"`
	TimeStamp   uint64 `json:"timestamp"`
	PrevHash    string `json:"previous_hash"`
	Nonce       uint64 `json:"nonce"`
	Hash        string `json:"hash"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Index:       block.Index,
		Transaction: block.Transaction,
		TimeStamp:   block.TimeStamp,
		PrevHash:    block.PrevHash,
		Nonce:       block.Nonce,
		Hash:        block.Hash,
	}
}

// ToBlock converts stored block data into a block. The stored hash is taken
// as is; only the shape of the record is checked.
func ToBlock(blockData BlockData) (Block, error) {
	if !signature.IsHash(blockData.Hash) {
		return Block{}, fmt.Errorf("block %d: malformed hash %q", blockData.Index, blockData.Hash)
	}

	switch blockData.Index {
	case 0:
		if blockData.PrevHash != GenesisPrevHash {
			return Block{}, fmt.Errorf("block 0: previous hash must be %q", GenesisPrevHash)
		}
		if blockData.Transaction != nil {
			return Block{}, fmt.Errorf("block 0: genesis can't carry a transaction")
		}

	default:
		if !signature.IsHash(blockData.PrevHash) {
			return Block{}, fmt.Errorf("block %d: malformed previous hash %q", blockData.Index, blockData.PrevHash)
		}
		if blockData.Transaction == nil {
			return Block{}, fmt.Errorf("block %d: missing transaction", blockData.Index)
		}
		if !signature.IsHash(blockData.Transaction.TxID) {
			return Block{}, fmt.Errorf("block %d: malformed transaction id", blockData.Index)
		}
	}

	block := Block{
		Index:       blockData.Index,
		Transaction: blockData.Transaction,
		TimeStamp:   blockData.TimeStamp,
		PrevHash:    blockData.PrevHash,
		Nonce:       blockData.Nonce,
		Hash:        blockData.Hash,
	}

	return block, nil
}
