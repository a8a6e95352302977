package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChainFamily is a class of blockchain wire protocol.
type ChainFamily string

const (
	ChainFamilyAccountLedger ChainFamily = "account_ledger"
	ChainFamilyEVM           ChainFamily = "evm"
	ChainFamilyUTXO          ChainFamily = "utxo"
)

// Valid reports whether f is a known family.
func (f ChainFamily) Valid() bool {
	switch f {
	case ChainFamilyAccountLedger, ChainFamilyEVM, ChainFamilyUTXO:
		return true
	}
	return false
}

// KeyEncVersion tags blobs sealed with AES-256-GCM under an HKDF-derived key.
const KeyEncVersion = 1

// KeyRecord is the encrypted signing key of one owner on one chain family.
// EncryptedMaterial has the form nonce:authTag:ciphertext, hex-encoded.
type KeyRecord struct {
	ID                uuid.UUID   `json:"id"`
	OwnerID           uuid.UUID   `json:"owner_id"`
	Family            ChainFamily `json:"chain_family"`
	PublicAddress     string      `json:"public_address"`
	EncryptedMaterial string      `json:"-"`
	EncVersion        int         `json:"enc_version"`
	Superseded        bool        `json:"superseded"`
	CreatedAt         time.Time   `json:"created_at"`
}

// KeyBinding is the additional data a record's ciphertext is bound to.
func KeyBinding(ownerID uuid.UUID, family ChainFamily) string {
	return ownerID.String() + "|" + string(family)
}
