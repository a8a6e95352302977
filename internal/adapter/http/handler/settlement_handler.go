package handler

import (
	"strconv"

	"custodial-wallet/internal/adapter/http/dto"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"
	"custodial-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxStalledLimit = 500

// SettlementHandler exposes operator endpoints for the settlement worker.
type SettlementHandler struct {
	settlement   ports.SettlementService
	reporting    ports.ReportingService
	defaultBatch int
}

func NewSettlementHandler(settlement ports.SettlementService, reporting ports.ReportingService, defaultBatch int) *SettlementHandler {
	return &SettlementHandler{settlement: settlement, reporting: reporting, defaultBatch: defaultBatch}
}

// Run handles POST /internal/settlements/run.
func (h *SettlementHandler) Run(c *gin.Context) {
	var req dto.RunSettlementsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, validation(err))
			return
		}
	}
	batch := req.BatchSize
	if batch == 0 {
		batch = h.defaultBatch
	}

	report, err := h.settlement.ProcessPendingSettlements(c.Request.Context(), batch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Stalled handles GET /internal/settlements/stalled?limit=N.
func (h *SettlementHandler) Stalled(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > maxStalledLimit {
		response.Error(c, apperror.Validation("limit must be between 1 and 500"))
		return
	}

	txns, err := h.reporting.ListStalled(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	response.OK(c, items)
}
