package accountledger

import (
	"fmt"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
)

const seedSize = 32

// KeyGenerator creates ed25519 account keys. Material is the raw seed.
type KeyGenerator struct{}

func (KeyGenerator) Family() domain.ChainFamily { return domain.ChainFamilyAccountLedger }

func (KeyGenerator) Generate() (*ports.GeneratedKey, error) {
	kp, err := keypair.Random()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	seed, err := strkey.Decode(strkey.VersionByteSeed, kp.Seed())
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &ports.GeneratedKey{Address: kp.Address(), Material: seed}, nil
}

func (KeyGenerator) Address(material []byte) (string, error) {
	kp, err := fullKeypair(material)
	if err != nil {
		return "", err
	}
	return kp.Address(), nil
}

func fullKeypair(material []byte) (*keypair.Full, error) {
	if len(material) != seedSize {
		return nil, fmt.Errorf("key material must be %d bytes, got %d", seedSize, len(material))
	}
	var raw [seedSize]byte
	copy(raw[:], material)
	kp, err := keypair.FromRawSeed(raw)
	for i := range raw {
		raw[i] = 0
	}
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	return kp, nil
}
