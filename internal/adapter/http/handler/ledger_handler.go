package handler

import (
	"custodial-wallet/internal/adapter/http/dto"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"
	"custodial-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler exposes the Ledger Engine operations.
type LedgerHandler struct {
	ledger ports.LedgerService
}

func NewLedgerHandler(ledger ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Deposit handles POST /api/v1/deposits.
func (h *LedgerHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation(err))
		return
	}

	result, err := h.ledger.CreateDeposit(c.Request.Context(), ports.DepositRequest{
		OwnerID:   uuid.MustParse(req.OwnerID),
		Currency:  req.Currency,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	writeResult(c, result)
}

// Withdraw handles POST /api/v1/withdrawals.
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation(err))
		return
	}

	result, err := h.ledger.CreateWithdrawal(c.Request.Context(), ports.WithdrawalRequest{
		OwnerID:         uuid.MustParse(req.OwnerID),
		Currency:        req.Currency,
		Amount:          req.Amount,
		ExternalAddress: req.ExternalAddress,
		Reference:       req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	writeResult(c, result)
}

// Transfer handles POST /api/v1/transfers.
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation(err))
		return
	}

	in := ports.TransferRequest{
		OwnerID:         uuid.MustParse(req.OwnerID),
		Currency:        req.Currency,
		Amount:          req.Amount,
		ExternalAddress: req.ExternalAddress,
		Reference:       req.Reference,
	}
	if req.ToOwnerID != "" {
		to := uuid.MustParse(req.ToOwnerID)
		in.ToOwnerID = &to
	}

	result, err := h.ledger.CreateTransfer(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeResult(c, result)
}

// Payment handles POST /api/v1/payments.
func (h *LedgerHandler) Payment(c *gin.Context) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation(err))
		return
	}

	result, err := h.ledger.CreatePayment(c.Request.Context(), ports.PaymentRequest{
		OwnerID:   uuid.MustParse(req.OwnerID),
		Currency:  req.Currency,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	writeResult(c, result)
}

// RequestQuote handles POST /api/v1/swaps/quotes.
func (h *LedgerHandler) RequestQuote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation(err))
		return
	}

	quote, err := h.ledger.RequestSwapQuote(c.Request.Context(), ports.QuoteRequest{
		OwnerID:        uuid.MustParse(req.OwnerID),
		SourceCurrency: req.SourceCurrency,
		TargetCurrency: req.TargetCurrency,
		FromAmount:     req.FromAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toQuoteResponse(quote))
}

// SettleQuote handles POST /api/v1/swaps/quotes/:id/settle.
func (h *LedgerHandler) SettleQuote(c *gin.Context) {
	quoteID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SettleQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation(err))
		return
	}

	tx, err := h.ledger.SettleSwapQuote(c.Request.Context(), quoteID, uuid.MustParse(req.OwnerID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(tx))
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	tx, err := h.ledger.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toTransactionResponse(tx))
}

// Resubmit handles POST /api/v1/transactions/:id/resubmit. The body is
// optional.
func (h *LedgerHandler) Resubmit(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ResubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, validation(err))
			return
		}
	}

	tx, err := h.ledger.ResubmitFailed(c.Request.Context(), id, req.Reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, toTransactionResponse(tx))
}

// Reverse handles POST /api/v1/transactions/:id/reverse.
func (h *LedgerHandler) Reverse(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	tx, err := h.ledger.ReverseFailed(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toTransactionResponse(tx))
}

// writeResult answers 200 for a replay, 202 for a queued external send and
// 201 otherwise.
func writeResult(c *gin.Context, result *ports.LedgerResult) {
	if result == nil || result.Transaction == nil {
		response.Error(c, apperror.InternalError(errNoTransaction))
		return
	}
	resp := toTransactionResponse(result.Transaction)
	resp.Replayed = result.Replayed

	switch {
	case result.Replayed:
		response.OK(c, resp)
	case result.Transaction.Status == domain.TransactionStatusPending:
		response.Accepted(c, resp)
	default:
		response.Created(c, resp)
	}
}
