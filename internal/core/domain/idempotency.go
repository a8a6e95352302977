package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrDuplicateReference is returned by persistence when a ledger reference
// has already been recorded.
var ErrDuplicateReference = errors.New("duplicate ledger reference")

// BuildReferenceKey is the cache key of a recorded ledger reference.
func BuildReferenceKey(reference string) string {
	return "ref:" + reference
}

// NewReference generates a reference for operations whose caller did not
// supply one.
func NewReference(t TransactionType) string {
	return strings.ToLower(string(t)) + "-" + uuid.NewString()
}

// ReversalReference is the reference of the refund recorded for a failed send.
func ReversalReference(original uuid.UUID) string {
	return "REVERSAL-" + original.String()
}
