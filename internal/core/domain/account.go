package domain

import "github.com/google/uuid"

// KeyAddress is the public part of a KeyRecord.
type KeyAddress struct {
	Family  ChainFamily `json:"chain_family"`
	Address string      `json:"address"`
}

// AccountOverview is an owner's wallets and chain addresses.
type AccountOverview struct {
	OwnerID uuid.UUID    `json:"owner_id"`
	Wallets []Wallet     `json:"wallets"`
	Keys    []KeyAddress `json:"keys"`
}
