package evm

import (
	"fmt"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"

	"github.com/ethereum/go-ethereum/crypto"
)

// KeyGenerator creates secp256k1 keys. Material is the 32-byte scalar.
type KeyGenerator struct{}

func (KeyGenerator) Family() domain.ChainFamily { return domain.ChainFamilyEVM }

func (KeyGenerator) Generate() (*ports.GeneratedKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &ports.GeneratedKey{
		Address:  crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Material: crypto.FromECDSA(key),
	}, nil
}

func (KeyGenerator) Address(material []byte) (string, error) {
	key, err := crypto.ToECDSA(material)
	if err != nil {
		return "", fmt.Errorf("load key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
