package utxo

import (
	"fmt"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// ParamsFor resolves a network name to its chain parameters.
func ParamsFor(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet", "":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}

// KeyGenerator creates secp256k1 keys with compressed P2PKH addresses.
type KeyGenerator struct {
	params *chaincfg.Params
}

func NewKeyGenerator(network string) (*KeyGenerator, error) {
	params, err := ParamsFor(network)
	if err != nil {
		return nil, err
	}
	return &KeyGenerator{params: params}, nil
}

func (g *KeyGenerator) Family() domain.ChainFamily { return domain.ChainFamilyUTXO }

func (g *KeyGenerator) Generate() (*ports.GeneratedKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	addr, err := p2pkh(priv.PubKey(), g.params)
	if err != nil {
		return nil, err
	}
	return &ports.GeneratedKey{Address: addr.EncodeAddress(), Material: priv.Serialize()}, nil
}

func (g *KeyGenerator) Address(material []byte) (string, error) {
	if len(material) != btcec.PrivKeyBytesLen {
		return "", fmt.Errorf("key material must be %d bytes", btcec.PrivKeyBytesLen)
	}
	_, pub := btcec.PrivKeyFromBytes(material)
	addr, err := p2pkh(pub, g.params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

func p2pkh(pub *btcec.PublicKey, params *chaincfg.Params) (*btcutil.AddressPubKeyHash, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), params)
	if err != nil {
		return nil, fmt.Errorf("derive address: %w", err)
	}
	return addr, nil
}
