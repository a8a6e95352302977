package ports

import (
	"context"

	"custodial-wallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// TransferIntent is what the worker asks an adapter to move on-chain.
type TransferIntent struct {
	Currency    string
	FromAddress string
	ToAddress   string
	Amount      decimal.Decimal
	Memo        string
}

// UnsignedTransfer is a chain-native payload ready for signing.
// Payload holds the adapter's own type and is opaque to callers.
type UnsignedTransfer struct {
	Family      domain.ChainFamily
	Currency    string
	FromAddress string
	NetworkFee  decimal.Decimal
	Payload     any
}

// SignedTransfer is a signed, serialised payload and its precomputed hash.
type SignedTransfer struct {
	Family  domain.ChainFamily
	TxHash  string
	Raw     []byte
	Payload any
}

// Signer signs an unsigned payload with raw key material. Implementations
// must not perform I/O.
type Signer interface {
	Sign(unsigned *UnsignedTransfer, keyMaterial []byte) (*SignedTransfer, error)
}

// ChainAdapter is one chain family's build/sign/broadcast implementation.
type ChainAdapter interface {
	Signer
	Family() domain.ChainFamily
	ValidateAddress(address string) error
	EstimateFee(ctx context.Context) (decimal.Decimal, error)
	Build(ctx context.Context, intent TransferIntent) (*UnsignedTransfer, error)
	// Broadcast submits the payload and returns the chain's transaction id.
	Broadcast(ctx context.Context, signed *SignedTransfer) (string, error)
}

// GeneratedKey is freshly generated key material and its public address.
type GeneratedKey struct {
	Address  string
	Material []byte
}

// KeyGenerator creates keys in a chain family's native curve and format.
type KeyGenerator interface {
	Family() domain.ChainFamily
	Generate() (*GeneratedKey, error)
	// Address derives the public address from stored material.
	Address(material []byte) (string, error)
}

// AdapterRegistry resolves adapters by currency and generators by family.
type AdapterRegistry interface {
	ForCurrency(currency string) (ChainAdapter, error)
	Generator(family domain.ChainFamily) (KeyGenerator, error)
}
