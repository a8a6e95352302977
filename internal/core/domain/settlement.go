package domain

import "github.com/google/uuid"

// SettlementOutcome is the result of one claimed row in a worker pass.
type SettlementOutcome string

const (
	SettlementSucceeded SettlementOutcome = "SUCCESS"
	SettlementFailed    SettlementOutcome = "FAILED"
	SettlementSkipped   SettlementOutcome = "SKIPPED" // claim lost to another pass
)

// SettlementResult pairs a transaction id with its outcome.
type SettlementResult struct {
	TransactionID  uuid.UUID         `json:"transaction_id"`
	Currency       string            `json:"currency"`
	Outcome        SettlementOutcome `json:"outcome"`
	SettlementHash string            `json:"settlement_hash,omitempty"`
	Reason         string            `json:"reason,omitempty"`
}

// SettlementReport summarises a worker pass.
type SettlementReport struct {
	Advanced int                `json:"advanced"`
	Results  []SettlementResult `json:"results"`
}
