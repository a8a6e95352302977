package handler

import (
	"errors"
	"time"

	"custodial-wallet/internal/adapter/http/dto"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/pkg/apperror"
	"custodial-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errNoTransaction = errors.New("ledger returned no transaction")

func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:              tx.ID.String(),
		Reference:       tx.Reference,
		Type:            string(tx.Type),
		Status:          string(tx.Status),
		Amount:          tx.Amount.String(),
		Fee:             tx.Fee.String(),
		Currency:        tx.Currency,
		FromWalletID:    uuidString(tx.FromWalletID),
		ToWalletID:      uuidString(tx.ToWalletID),
		ExternalAddress: tx.ExternalAddress,
		TargetCurrency:  tx.TargetCurrency,
		SettlementHash:  tx.SettlementHash,
		FailureReason:   tx.FailureReason,
		RetryOf:         uuidString(tx.RetryOf),
		ResolvedBy:      uuidString(tx.ResolvedBy),
		CreatedAt:       tx.CreatedAt.UTC().Format(time.RFC3339),
	}
	if tx.TargetAmount != nil {
		s := tx.TargetAmount.String()
		resp.TargetAmount = &s
	}
	if tx.ProcessedAt != nil {
		s := tx.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

func toQuoteResponse(q *domain.SwapQuote) dto.QuoteResponse {
	return dto.QuoteResponse{
		ID:             q.ID.String(),
		OwnerID:        q.OwnerID.String(),
		SourceCurrency: q.SourceCurrency,
		TargetCurrency: q.TargetCurrency,
		FromAmount:     q.FromAmount.String(),
		ToAmount:       q.ToAmount.String(),
		Fee:            q.Fee.String(),
		Rate:           q.Rate.String(),
		ExpiresAt:      q.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// pathUUID parses a uuid path parameter, writing a validation error when it
// is malformed.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// validation maps binding errors to LED_002.
func validation(err error) error {
	return apperror.Validation(err.Error())
}
